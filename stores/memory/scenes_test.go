package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"wireframe-canvas/core"
)

func testScene(id string) *core.Scene {
	return &core.Scene{
		ID:     id,
		Name:   "Scene " + id,
		Width:  1280,
		Height: 800,
		Objects: []core.CanvasObject{
			{ID: "a", Type: core.TypeShape, Width: 50, Height: 50, OrderKey: "a0", Visible: true},
		},
	}
}

func TestSceneSave_Get(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if err := store.Save(ctx, testScene("s1")); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != "Scene s1" || len(got.Objects) != 1 || got.Objects[0].ID != "a" {
		t.Errorf("Get() = %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	// The returned scene is a copy.
	got.Objects[0].ID = "mutated"
	again, _ := store.Get(ctx, "s1")
	if again.Objects[0].ID != "a" {
		t.Error("mutating a returned scene changed the stored one")
	}
}

func TestSceneSave_PreservesCreatedAt(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	first := testScene("s1")
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	created := first.CreatedAt

	time.Sleep(2 * time.Millisecond)
	second := testScene("s1")
	second.Name = "Renamed"
	second.CreatedAt = time.Time{}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, _ := store.Get(ctx, "s1")
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if !got.UpdatedAt.After(created) {
		t.Errorf("UpdatedAt = %v not after %v", got.UpdatedAt, created)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name = %q", got.Name)
	}
}

func TestSceneSave_EmptyID(t *testing.T) {
	if err := NewStore().Save(context.Background(), &core.Scene{}); err == nil {
		t.Error("Save() accepted a scene without an id")
	}
}

func TestSceneList(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, id := range []string{"s1", "s2", "s3"} {
		if err := store.Save(ctx, testScene(id)); err != nil {
			t.Fatalf("Save(%s) failed: %v", id, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	scenes, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(scenes) != 3 {
		t.Fatalf("List() returned %d scenes, want 3", len(scenes))
	}
	if scenes[0].ID != "s3" || scenes[2].ID != "s1" {
		t.Errorf("List() order = %s, %s, %s; want newest first", scenes[0].ID, scenes[1].ID, scenes[2].ID)
	}
	for _, s := range scenes {
		if s.Objects != nil {
			t.Errorf("List() included objects for %s", s.ID)
		}
	}
}

func TestSceneGetDelete_NotFound(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() error = %v, want core.ErrNotFound", err)
	}
	if err := store.Delete(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete() error = %v, want core.ErrNotFound", err)
	}

	store.Save(ctx, testScene("s1"))
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() after Delete error = %v", err)
	}
}

func TestSettings(t *testing.T) {
	settings := NewStore().Settings()
	ctx := context.Background()

	if _, err := settings.Load(ctx, "canvas-1", "grid-config"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Load() of a missing key error = %v, want core.ErrNotFound", err)
	}
	if err := settings.Save(ctx, "canvas-1", "grid-config", []byte(`{"size":8}`)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := settings.Load(ctx, "canvas-1", "grid-config")
	if err != nil || string(got) != `{"size":8}` {
		t.Errorf("Load() = %q, %v", got, err)
	}
	if _, err := settings.Load(ctx, "canvas-2", "grid-config"); !errors.Is(err, core.ErrNotFound) {
		t.Error("settings leaked across scopes")
	}
	if err := settings.Delete(ctx, "canvas-1", "grid-config"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := settings.Load(ctx, "canvas-1", "grid-config"); !errors.Is(err, core.ErrNotFound) {
		t.Error("Load() after Delete still returns a value")
	}
}
