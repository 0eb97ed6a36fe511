package filesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"wireframe-canvas/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

const (
	documentsDir = "documents"
	scenesDir    = "scenes"
	settingsDir  = "settings"
)

// Store keeps every record as a file below basePath:
// documents/<id>, scenes/<id>.json and settings/<scope>/<key>.json.
type Store struct {
	basePath string
	// mu serializes scene writes so CreatedAt survives concurrent saves.
	mu sync.Mutex
}

func NewStore(basePath string) (*Store, error) {
	for _, dir := range []string{documentsDir, scenesDir, settingsDir} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}
	return &Store{basePath: basePath}, nil
}

// path joins elems below basePath/dir and rejects results that escape it.
func (s *Store) path(dir string, elems ...string) (string, error) {
	root, err := filepath.Abs(filepath.Join(s.basePath, dir))
	if err != nil {
		return "", err
	}
	for _, e := range elems {
		if e == "" || strings.ContainsAny(e, `/\`) || e == "." || e == ".." {
			return "", fmt.Errorf("invalid path element %q: access denied", e)
		}
	}
	full, err := filepath.Abs(filepath.Join(append([]string{root}, elems...)...))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path: access denied")
	}
	return full, nil
}

// writeFile replaces name atomically.
func writeFile(name string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), name)
}

func (s *Store) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)
	filePath, err := s.path(documentsDir, id)
	if err != nil {
		log.WithError(err).Warn("Rejected document path")
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("error", "document not found").Warn("Document with specified ID not found")
			return nil, fmt.Errorf("document with id %s %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve document")
		return nil, err
	}

	log.Info("Document retrieved successfully")
	return &core.Document{Data: *bytes.NewBuffer(data)}, nil
}

func (s *Store) Create(ctx context.Context, document *core.Document) (string, error) {
	id := ulid.Make().String()
	filePath, err := s.path(documentsDir, id)
	if err != nil {
		return "", err
	}
	log := logrus.WithFields(logrus.Fields{
		"document_id": id,
		"file_path":   filePath,
	})

	if err := os.WriteFile(filePath, document.Data.Bytes(), 0o644); err != nil {
		log.WithError(err).Error("Failed to create document")
		return "", err
	}

	log.Info("Document created successfully")
	return id, nil
}

// List reads every scene file, newest first. Unreadable files are skipped.
func (s *Store) List(ctx context.Context) ([]*core.Scene, error) {
	dir := filepath.Join(s.basePath, scenesDir)
	log := logrus.WithField("path", dir)

	files, err := os.ReadDir(dir)
	if err != nil {
		log.WithError(err).Error("Failed to read scenes directory")
		return nil, err
	}

	scenes := make([]*core.Scene, 0, len(files))
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read scene file %s, skipping", file.Name())
			continue
		}
		var scene core.Scene
		if err := json.Unmarshal(data, &scene); err != nil {
			log.WithError(err).Warnf("Failed to unmarshal scene file %s, skipping", file.Name())
			continue
		}
		scene.Objects = nil
		scenes = append(scenes, &scene)
	}
	core.SortScenes(scenes)

	log.Infof("Listed %d scenes", len(scenes))
	return scenes, nil
}

func (s *Store) Get(ctx context.Context, id string) (*core.Scene, error) {
	log := logrus.WithField("scene_id", id)
	filePath, err := s.path(scenesDir, id+".json")
	if err != nil {
		return nil, err
	}
	scene, err := readScene(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Scene file not found")
			return nil, fmt.Errorf("scene with id %s %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to read scene")
		return nil, err
	}
	log.Info("Scene retrieved successfully")
	return scene, nil
}

func readScene(filePath string) (*core.Scene, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var scene core.Scene
	if err := json.Unmarshal(data, &scene); err != nil {
		return nil, err
	}
	return &scene, nil
}

func (s *Store) Save(ctx context.Context, scene *core.Scene) error {
	if scene.ID == "" {
		return fmt.Errorf("scene ID cannot be empty for save operation")
	}
	filePath, err := s.path(scenesDir, scene.ID+".json")
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"scene_id": scene.ID, "path": filePath})

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, err := readScene(filePath); err == nil {
		scene.CreatedAt = existing.CreatedAt
	} else {
		scene.CreatedAt = now
	}
	scene.UpdatedAt = now

	data, err := json.Marshal(scene)
	if err != nil {
		log.WithError(err).Error("Failed to marshal scene")
		return err
	}
	if err := writeFile(filePath, data); err != nil {
		log.WithError(err).Error("Failed to write scene file")
		return err
	}
	log.Info("Scene saved successfully")
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	log := logrus.WithField("scene_id", id)
	filePath, err := s.path(scenesDir, id+".json")
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Scene file not found for deletion")
			return fmt.Errorf("scene with id %s %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to delete scene file")
		return err
	}
	log.Info("Scene deleted successfully")
	return nil
}

type settingsStore struct {
	store *Store
}

// Settings returns the store's view for shell settings.
func (s *Store) Settings() core.SettingsStore {
	return settingsStore{store: s}
}

func (v settingsStore) Load(ctx context.Context, scope, key string) ([]byte, error) {
	filePath, err := v.store.path(settingsDir, scope, key+".json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("setting %s/%s %w", scope, key, core.ErrNotFound)
	}
	return data, err
}

func (v settingsStore) Save(ctx context.Context, scope, key string, value []byte) error {
	filePath, err := v.store.path(settingsDir, scope, key+".json")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	return writeFile(filePath, value)
}

func (v settingsStore) Delete(ctx context.Context, scope, key string) error {
	filePath, err := v.store.path(settingsDir, scope, key+".json")
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
