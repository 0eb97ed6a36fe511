package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wireframe-canvas/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// CreateSnapshot stores a checkpoint of a scene. When the scene is at its
// snapshot cap the oldest snapshots are evicted first.
func (s *Store) CreateSnapshot(ctx context.Context, sceneID, name, description, createdBy string, data []byte) (string, error) {
	id := ulid.Make().String()
	createdAt := ulid.Now()

	log := logrus.WithFields(logrus.Fields{
		"snapshot_id": id,
		"scene_id":    sceneID,
		"data_length": len(data),
	})

	settings, err := s.GetSnapshotSettings(ctx, sceneID)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots WHERE scene_id = ?", sceneID).Scan(&count); err != nil {
		log.WithError(err).Error("Failed to count snapshots")
		return "", err
	}

	if excess := count - settings.MaxSnapshots + 1; excess > 0 {
		_, err = tx.ExecContext(ctx,
			"DELETE FROM snapshots WHERE id IN (SELECT id FROM snapshots WHERE scene_id = ? ORDER BY created_at ASC, id ASC LIMIT ?)",
			sceneID, excess)
		if err != nil {
			log.WithError(err).Error("Failed to delete oldest snapshots")
			return "", err
		}
		log.WithField("evicted", excess).Debug("Evicted oldest snapshots")
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO snapshots (id, scene_id, name, description, created_by, created_at, data) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, sceneID, name, description, createdBy, createdAt, data)
	if err != nil {
		log.WithError(err).Error("Failed to create snapshot")
		return "", err
	}
	if err := tx.Commit(); err != nil {
		log.WithError(err).Error("Failed to commit snapshot")
		return "", err
	}

	log.Info("Snapshot created successfully")
	return id, nil
}

// ListSnapshots returns a scene's snapshots without data, newest first.
func (s *Store) ListSnapshots(ctx context.Context, sceneID string) ([]core.Snapshot, error) {
	log := logrus.WithField("scene_id", sceneID)
	log.Debug("Listing snapshots for scene")

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, scene_id, name, description, created_by, created_at FROM snapshots WHERE scene_id = ? ORDER BY created_at DESC, id DESC",
		sceneID)
	if err != nil {
		log.WithError(err).Error("Failed to list snapshots")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close snapshot rows")
		}
	}()

	var snapshots []core.Snapshot
	for rows.Next() {
		var snapshot core.Snapshot
		var name, description, createdBy sql.NullString
		if err := rows.Scan(&snapshot.ID, &snapshot.SceneID, &name, &description, &createdBy, &snapshot.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan snapshot")
			continue
		}
		snapshot.Name = name.String
		snapshot.Description = description.String
		snapshot.CreatedBy = createdBy.String
		snapshots = append(snapshots, snapshot)
	}

	log.Info("Snapshots listed successfully")
	return snapshots, nil
}

func (s *Store) GetSnapshot(ctx context.Context, id string) (*core.Snapshot, error) {
	log := logrus.WithField("snapshot_id", id)
	log.Debug("Retrieving snapshot by ID")

	var snapshot core.Snapshot
	var name, description, createdBy sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, scene_id, name, description, created_by, created_at, data FROM snapshots WHERE id = ?",
		id).Scan(&snapshot.ID, &snapshot.SceneID, &name, &description, &createdBy, &snapshot.CreatedAt, &snapshot.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.WithField("error", "snapshot not found").Warn("Snapshot with specified ID not found")
			return nil, fmt.Errorf("snapshot with id %s %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve snapshot")
		return nil, err
	}

	snapshot.Name = name.String
	snapshot.Description = description.String
	snapshot.CreatedBy = createdBy.String

	log.Info("Snapshot retrieved successfully")
	return &snapshot, nil
}

func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	log := logrus.WithField("snapshot_id", id)

	result, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		log.WithError(err).Error("Failed to delete snapshot")
		return err
	}
	if err := expectOne(result, "snapshot", id); err != nil {
		return err
	}

	log.Info("Snapshot deleted successfully")
	return nil
}

func (s *Store) UpdateSnapshotMetadata(ctx context.Context, id, name, description string) error {
	log := logrus.WithField("snapshot_id", id)

	result, err := s.db.ExecContext(ctx,
		"UPDATE snapshots SET name = ?, description = ? WHERE id = ?",
		name, description, id)
	if err != nil {
		log.WithError(err).Error("Failed to update snapshot metadata")
		return err
	}
	if err := expectOne(result, "snapshot", id); err != nil {
		return err
	}

	log.Info("Snapshot metadata updated successfully")
	return nil
}

// GetSnapshotSettings returns the scene's snapshot cap, or the default when
// none was set.
func (s *Store) GetSnapshotSettings(ctx context.Context, sceneID string) (*core.SnapshotSettings, error) {
	log := logrus.WithField("scene_id", sceneID)

	settings := core.SnapshotSettings{SceneID: sceneID}
	err := s.db.QueryRowContext(ctx,
		"SELECT max_snapshots FROM snapshot_settings WHERE scene_id = ?",
		sceneID).Scan(&settings.MaxSnapshots)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("No snapshot settings for scene, returning defaults")
			settings.MaxSnapshots = core.DefaultMaxSnapshots
			return &settings, nil
		}
		log.WithError(err).Error("Failed to retrieve snapshot settings")
		return nil, err
	}
	return &settings, nil
}

func (s *Store) UpdateSnapshotSettings(ctx context.Context, sceneID string, maxSnapshots int) error {
	log := logrus.WithFields(logrus.Fields{
		"scene_id":      sceneID,
		"max_snapshots": maxSnapshots,
	})
	if maxSnapshots < 1 {
		return fmt.Errorf("max snapshots must be at least 1, got %d", maxSnapshots)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO snapshot_settings (scene_id, max_snapshots) VALUES (?, ?) ON CONFLICT(scene_id) DO UPDATE SET max_snapshots = excluded.max_snapshots",
		sceneID, maxSnapshots)
	if err != nil {
		log.WithError(err).Error("Failed to update snapshot settings")
		return err
	}

	log.Info("Snapshot settings updated successfully")
	return nil
}

func expectOne(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%s with id %s %w", kind, id, core.ErrNotFound)
	}
	return nil
}
