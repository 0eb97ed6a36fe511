package memory

import (
	"context"
	"fmt"
	"time"

	"wireframe-canvas/core"

	"github.com/sirupsen/logrus"
)

// List returns scene metadata, most recently updated first.
func (s *Store) List(ctx context.Context) ([]*core.Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scenes := make([]*core.Scene, 0, len(s.scenes))
	for _, scene := range s.scenes {
		meta := scene
		meta.Objects = nil
		scenes = append(scenes, &meta)
	}
	core.SortScenes(scenes)

	logrus.Infof("Listed %d scenes", len(scenes))
	return scenes, nil
}

func (s *Store) Get(ctx context.Context, id string) (*core.Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithField("scene_id", id)
	scene, ok := s.scenes[id]
	if !ok {
		log.Warn("Scene not found")
		return nil, fmt.Errorf("scene with id %s %w", id, core.ErrNotFound)
	}
	scene.Objects = append([]core.CanvasObject(nil), scene.Objects...)
	log.Info("Scene retrieved successfully")
	return &scene, nil
}

func (s *Store) Save(ctx context.Context, scene *core.Scene) error {
	if scene.ID == "" {
		return fmt.Errorf("scene ID cannot be empty for save operation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.scenes[scene.ID]; ok {
		scene.CreatedAt = existing.CreatedAt
	} else {
		scene.CreatedAt = now
	}
	scene.UpdatedAt = now

	stored := *scene
	stored.Objects = append([]core.CanvasObject(nil), scene.Objects...)
	s.scenes[scene.ID] = stored

	logrus.WithFields(logrus.Fields{"scene_id": scene.ID, "object_count": len(scene.Objects)}).Info("Scene saved successfully")
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithField("scene_id", id)
	if _, ok := s.scenes[id]; !ok {
		log.Warn("Scene not found for deletion")
		return fmt.Errorf("scene with id %s %w", id, core.ErrNotFound)
	}
	delete(s.scenes, id)
	log.Info("Scene deleted successfully")
	return nil
}
