package core

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"time"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

type (
	// Document is an anonymously shared blob, usually an exported scene or
	// shell configuration.
	Document struct {
		Data bytes.Buffer
	}

	DocumentStore interface {
		FindID(ctx context.Context, id string) (*Document, error)
		Create(ctx context.Context, document *Document) (string, error)
	}

	// Scene is the persisted object set of one canvas.
	Scene struct {
		ID        string         `json:"id"`
		Name      string         `json:"name"`
		Width     float64        `json:"width"`
		Height    float64        `json:"height"`
		Objects   []CanvasObject `json:"objects,omitempty"` // Not included in list views.
		CreatedAt time.Time      `json:"createdAt"`
		UpdatedAt time.Time      `json:"updatedAt"`
	}

	// SceneStore persists canvas scenes.
	SceneStore interface {
		// List returns scene metadata without objects.
		List(ctx context.Context) ([]*Scene, error)
		Get(ctx context.Context, id string) (*Scene, error)
		// Save creates or updates a scene, preserving CreatedAt on update.
		Save(ctx context.Context, scene *Scene) error
		Delete(ctx context.Context, id string) error
	}

	// SettingsStore is the local persistent key/value storage used by the
	// canvas shell. Scope separates canvases; key is one of the fixed
	// settings keys.
	SettingsStore interface {
		Load(ctx context.Context, scope, key string) ([]byte, error)
		Save(ctx context.Context, scope, key string, value []byte) error
		Delete(ctx context.Context, scope, key string) error
	}

	// Snapshot is a named checkpoint of a scene.
	Snapshot struct {
		ID          string `json:"id"`
		SceneID     string `json:"scene_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		CreatedBy   string `json:"created_by"`
		CreatedAt   int64  `json:"created_at"`
		Data        []byte `json:"data,omitempty"`
	}

	// SnapshotSettings caps the number of snapshots kept per scene.
	SnapshotSettings struct {
		SceneID      string `json:"scene_id"`
		MaxSnapshots int    `json:"max_snapshots"`
	}

	SnapshotStore interface {
		CreateSnapshot(ctx context.Context, sceneID, name, description, createdBy string, data []byte) (string, error)
		ListSnapshots(ctx context.Context, sceneID string) ([]Snapshot, error)
		GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
		DeleteSnapshot(ctx context.Context, id string) error
		UpdateSnapshotMetadata(ctx context.Context, id, name, description string) error
		GetSnapshotSettings(ctx context.Context, sceneID string) (*SnapshotSettings, error)
		UpdateSnapshotSettings(ctx context.Context, sceneID string, maxSnapshots int) error
	}
)

// DefaultMaxSnapshots is used when a scene has no snapshot settings.
const DefaultMaxSnapshots = 10

// SortScenes orders scenes most recently updated first, then by ID.
func SortScenes(scenes []*Scene) {
	sort.Slice(scenes, func(i, j int) bool {
		if scenes[i].UpdatedAt.Equal(scenes[j].UpdatedAt) {
			return scenes[i].ID < scenes[j].ID
		}
		return scenes[i].UpdatedAt.After(scenes[j].UpdatedAt)
	})
}
