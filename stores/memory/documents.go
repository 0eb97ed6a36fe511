package memory

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"wireframe-canvas/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Store keeps documents, scenes and shell settings in process memory.
type Store struct {
	mu        sync.RWMutex
	documents map[string][]byte
	scenes    map[string]core.Scene
	settings  map[settingKey][]byte
}

func NewStore() *Store {
	return &Store{
		documents: make(map[string][]byte),
		scenes:    make(map[string]core.Scene),
		settings:  make(map[settingKey][]byte),
	}
}

func (s *Store) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)

	s.mu.RLock()
	data, ok := s.documents[id]
	s.mu.RUnlock()

	if !ok {
		log.WithField("error", "document not found").Warn("Document with specified ID not found")
		return nil, fmt.Errorf("document with id %s %w", id, core.ErrNotFound)
	}
	log.Info("Document retrieved successfully")
	return &core.Document{Data: *bytes.NewBuffer(bytes.Clone(data))}, nil
}

func (s *Store) Create(ctx context.Context, document *core.Document) (string, error) {
	id := ulid.Make().String()
	data := bytes.Clone(document.Data.Bytes())
	if data == nil {
		data = []byte{}
	}

	s.mu.Lock()
	s.documents[id] = data
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"document_id": id,
		"data_length": len(data),
	}).Info("Document created successfully")
	return id, nil
}
