package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wireframe-canvas/core"

	"github.com/google/go-cmp/cmp"
)

func testScene(id string) *core.Scene {
	return &core.Scene{
		ID:     id,
		Name:   "Scene " + id,
		Width:  1280,
		Height: 800,
		Objects: []core.CanvasObject{
			{
				ID:        "a",
				Type:      core.TypeShape,
				Left:      10,
				Top:       20,
				Width:     50,
				Height:    50,
				ScaleX:    1,
				ScaleY:    1,
				Angle:     45,
				Visible:   true,
				Lock:      core.LockFlags{Rotation: true},
				OrderKey:  "a0",
				Meta:      core.ObjectMeta{Fill: "#ff0000"},
				CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			},
		},
	}
}

func TestScenes_SaveGet(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	scene := testScene("s1")
	if err := store.Save(ctx, scene); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if diff := cmp.Diff(testScene("s1").Objects, got.Objects); diff != "" {
		t.Errorf("objects mismatch (-want +got):\n%s", diff)
	}
	if got.Name != "Scene s1" || got.Width != 1280 || got.Height != 800 {
		t.Errorf("Get() = %+v", got)
	}
	if !got.CreatedAt.Equal(scene.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, scene.CreatedAt)
	}
}

func TestScenes_UpdatePreservesCreatedAt(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	first := testScene("s1")
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	second := testScene("s1")
	second.Name = "Renamed"
	second.Objects = nil
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save() update failed: %v", err)
	}

	got, _ := store.Get(ctx, "s1")
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, first.CreatedAt)
	}
	if !got.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt = %v not after %v", got.UpdatedAt, first.UpdatedAt)
	}
	if got.Name != "Renamed" || len(got.Objects) != 0 {
		t.Errorf("Get() = %+v", got)
	}
}

func TestScenes_ListNewestFirst(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for _, id := range []string{"s1", "s2", "s3"} {
		if err := store.Save(ctx, testScene(id)); err != nil {
			t.Fatalf("Save(%s) failed: %v", id, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	scenes, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	var ids []string
	for _, s := range scenes {
		ids = append(ids, s.ID)
		if s.Objects != nil {
			t.Errorf("List() included objects for %s", s.ID)
		}
	}
	if diff := cmp.Diff([]string{"s3", "s2", "s1"}, ids); diff != "" {
		t.Errorf("List() order mismatch (-want +got):\n%s", diff)
	}
}

func TestScenes_NotFound(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() error = %v, want core.ErrNotFound", err)
	}
	if err := store.Delete(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete() error = %v, want core.ErrNotFound", err)
	}
	if err := store.Save(ctx, &core.Scene{}); err == nil {
		t.Error("Save() accepted a scene without an id")
	}
}

func TestSettings_Persist(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "settings.db")
	ctx := context.Background()

	first := newTestStore(t, dbPath)
	settings := first.Settings()
	if _, err := settings.Load(ctx, "canvas-1", "grid-config"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Load() of a missing key error = %v, want core.ErrNotFound", err)
	}
	if err := settings.Save(ctx, "canvas-1", "grid-config", []byte(`{"size":8}`)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := settings.Save(ctx, "canvas-1", "grid-config", []byte(`{"size":16}`)); err != nil {
		t.Fatalf("Save() overwrite failed: %v", err)
	}
	first.Close()

	second := newTestStore(t, dbPath)
	defer second.Close()
	got, err := second.Settings().Load(ctx, "canvas-1", "grid-config")
	if err != nil || string(got) != `{"size":16}` {
		t.Errorf("Load() = %q, %v", got, err)
	}
	if err := second.Settings().Delete(ctx, "canvas-1", "grid-config"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := second.Settings().Load(ctx, "canvas-1", "grid-config"); !errors.Is(err, core.ErrNotFound) {
		t.Error("Load() after Delete still returns a value")
	}
}

func TestSnapshots_LoweredCapEvictsExcess(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := store.CreateSnapshot(ctx, "s1", "", "", "", []byte("data")); err != nil {
			t.Fatalf("CreateSnapshot() failed: %v", err)
		}
	}
	if err := store.UpdateSnapshotSettings(ctx, "s1", 2); err != nil {
		t.Fatalf("UpdateSnapshotSettings() failed: %v", err)
	}
	newest, err := store.CreateSnapshot(ctx, "s1", "newest", "", "", []byte("data"))
	if err != nil {
		t.Fatalf("CreateSnapshot() failed: %v", err)
	}

	snapshots, _ := store.ListSnapshots(ctx, "s1")
	if len(snapshots) != 2 {
		t.Fatalf("%d snapshots after lowering the cap, want 2", len(snapshots))
	}
	if snapshots[0].ID != newest {
		t.Errorf("newest snapshot = %s, want %s", snapshots[0].ID, newest)
	}
	if err := store.DeleteSnapshot(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteSnapshot() error = %v, want core.ErrNotFound", err)
	}
}
