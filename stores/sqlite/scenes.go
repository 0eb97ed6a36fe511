package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wireframe-canvas/core"

	"github.com/sirupsen/logrus"
)

// List returns scene metadata, most recently updated first.
func (s *Store) List(ctx context.Context) ([]*core.Scene, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, width, height, created_at, updated_at FROM scenes ORDER BY updated_at DESC, id ASC")
	if err != nil {
		logrus.WithError(err).Error("Failed to list scenes")
		return nil, err
	}
	defer rows.Close()

	scenes := []*core.Scene{}
	for rows.Next() {
		var scene core.Scene
		var name sql.NullString
		var created, updated int64
		if err := rows.Scan(&scene.ID, &name, &scene.Width, &scene.Height, &created, &updated); err != nil {
			return nil, err
		}
		scene.Name = name.String
		scene.CreatedAt, scene.UpdatedAt = time.UnixMilli(created), time.UnixMilli(updated)
		scenes = append(scenes, &scene)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logrus.Infof("Listed %d scenes", len(scenes))
	return scenes, nil
}

func (s *Store) Get(ctx context.Context, id string) (*core.Scene, error) {
	log := logrus.WithField("scene_id", id)
	scene := core.Scene{ID: id}
	var name sql.NullString
	var objects []byte
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT name, width, height, objects, created_at, updated_at FROM scenes WHERE id = ?", id).
		Scan(&name, &scene.Width, &scene.Height, &objects, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Scene not found")
			return nil, fmt.Errorf("scene with id %s %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve scene")
		return nil, err
	}
	if len(objects) > 0 {
		if err := json.Unmarshal(objects, &scene.Objects); err != nil {
			log.WithError(err).Error("Failed to decode scene objects")
			return nil, err
		}
	}
	scene.Name = name.String
	scene.CreatedAt, scene.UpdatedAt = time.UnixMilli(created), time.UnixMilli(updated)
	log.Info("Scene retrieved successfully")
	return &scene, nil
}

func (s *Store) Save(ctx context.Context, scene *core.Scene) error {
	if scene.ID == "" {
		return fmt.Errorf("scene ID cannot be empty for save operation")
	}
	log := logrus.WithField("scene_id", scene.ID)

	objects, err := json.Marshal(scene.Objects)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Truncate(time.Millisecond)
	var created int64
	err = tx.QueryRowContext(ctx, "SELECT created_at FROM scenes WHERE id = ?", scene.ID).Scan(&created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		created = now.UnixMilli()
		_, err = tx.ExecContext(ctx,
			"INSERT INTO scenes (id, name, width, height, objects, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			scene.ID, scene.Name, scene.Width, scene.Height, objects, created, now.UnixMilli())
	case err == nil:
		_, err = tx.ExecContext(ctx,
			"UPDATE scenes SET name = ?, width = ?, height = ?, objects = ?, updated_at = ? WHERE id = ?",
			scene.Name, scene.Width, scene.Height, objects, now.UnixMilli(), scene.ID)
	}
	if err != nil {
		log.WithError(err).Error("Failed to save scene")
		return err
	}
	if err := tx.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit scene")
		return err
	}

	scene.CreatedAt, scene.UpdatedAt = time.UnixMilli(created), now
	log.WithField("object_count", len(scene.Objects)).Info("Scene saved successfully")
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	log := logrus.WithField("scene_id", id)
	result, err := s.db.ExecContext(ctx, "DELETE FROM scenes WHERE id = ?", id)
	if err != nil {
		log.WithError(err).Error("Failed to delete scene")
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		log.Warn("Scene not found for deletion")
		return fmt.Errorf("scene with id %s %w", id, core.ErrNotFound)
	}
	log.Info("Scene deleted successfully")
	return nil
}
