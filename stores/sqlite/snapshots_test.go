package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"wireframe-canvas/core"
)

func TestSnapshots_CreateGet(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	data := []byte(`{"id":"scene-1","objects":[]}`)
	id, err := store.CreateSnapshot(ctx, "scene-1", "Before review", "layout v1", "ana", data)
	if err != nil {
		t.Fatalf("CreateSnapshot() failed: %v", err)
	}

	got, err := store.GetSnapshot(ctx, id)
	if err != nil {
		t.Fatalf("GetSnapshot() failed: %v", err)
	}
	if got.SceneID != "scene-1" || got.Name != "Before review" || got.Description != "layout v1" || got.CreatedBy != "ana" {
		t.Errorf("GetSnapshot() = %+v", got)
	}
	if string(got.Data) != string(data) {
		t.Errorf("Data = %s", got.Data)
	}
	if got.CreatedAt == 0 {
		t.Error("CreatedAt not set")
	}

	if _, err := store.GetSnapshot(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetSnapshot(missing) error = %v, want core.ErrNotFound", err)
	}
}

func TestSnapshots_CapEvictsOldest(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	if err := store.UpdateSnapshotSettings(ctx, "scene-1", 3); err != nil {
		t.Fatalf("UpdateSnapshotSettings() failed: %v", err)
	}
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := store.CreateSnapshot(ctx, "scene-1", fmt.Sprintf("v%d", i), "", "", []byte("{}"))
		if err != nil {
			t.Fatalf("CreateSnapshot(%d) failed: %v", i, err)
		}
		ids = append(ids, id)
	}

	list, err := store.ListSnapshots(ctx, "scene-1")
	if err != nil {
		t.Fatalf("ListSnapshots() failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListSnapshots() returned %d snapshots, want 3", len(list))
	}
	if list[0].Name != "v4" || list[2].Name != "v2" {
		t.Errorf("order = %s..%s, want v4..v2", list[0].Name, list[2].Name)
	}
	for _, s := range list {
		if s.Data != nil {
			t.Errorf("ListSnapshots() included data for %s", s.ID)
		}
	}
	if _, err := store.GetSnapshot(ctx, ids[0]); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("oldest snapshot still present: %v", err)
	}
}

func TestSnapshots_ScopedByScene(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	store.CreateSnapshot(ctx, "scene-1", "a", "", "", []byte("{}"))
	store.CreateSnapshot(ctx, "scene-2", "b", "", "", []byte("{}"))
	store.CreateSnapshot(ctx, "scene-2", "c", "", "", []byte("{}"))

	for scene, want := range map[string]int{"scene-1": 1, "scene-2": 2, "scene-3": 0} {
		list, err := store.ListSnapshots(ctx, scene)
		if err != nil {
			t.Fatalf("ListSnapshots(%s) failed: %v", scene, err)
		}
		if len(list) != want {
			t.Errorf("ListSnapshots(%s) returned %d, want %d", scene, len(list), want)
		}
	}
}

func TestSnapshots_UpdateDelete(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	id, _ := store.CreateSnapshot(ctx, "scene-1", "draft", "", "", []byte("{}"))
	if err := store.UpdateSnapshotMetadata(ctx, id, "final", "approved"); err != nil {
		t.Fatalf("UpdateSnapshotMetadata() failed: %v", err)
	}
	got, _ := store.GetSnapshot(ctx, id)
	if got.Name != "final" || got.Description != "approved" {
		t.Errorf("metadata = %q, %q", got.Name, got.Description)
	}

	if err := store.DeleteSnapshot(ctx, id); err != nil {
		t.Fatalf("DeleteSnapshot() failed: %v", err)
	}
	if err := store.DeleteSnapshot(ctx, id); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second DeleteSnapshot() error = %v, want core.ErrNotFound", err)
	}
	if err := store.UpdateSnapshotMetadata(ctx, id, "x", "y"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateSnapshotMetadata() of a deleted snapshot error = %v", err)
	}
}

func TestSnapshotSettings(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	got, err := store.GetSnapshotSettings(ctx, "scene-1")
	if err != nil {
		t.Fatalf("GetSnapshotSettings() failed: %v", err)
	}
	if got.MaxSnapshots != core.DefaultMaxSnapshots || got.SceneID != "scene-1" {
		t.Errorf("defaults = %+v", got)
	}

	for _, limit := range []int{5, 20} {
		if err := store.UpdateSnapshotSettings(ctx, "scene-1", limit); err != nil {
			t.Fatalf("UpdateSnapshotSettings(%d) failed: %v", limit, err)
		}
		got, _ = store.GetSnapshotSettings(ctx, "scene-1")
		if got.MaxSnapshots != limit {
			t.Errorf("MaxSnapshots = %d, want %d", got.MaxSnapshots, limit)
		}
	}

	for _, bad := range []int{0, -1} {
		if err := store.UpdateSnapshotSettings(ctx, "scene-1", bad); err == nil {
			t.Errorf("UpdateSnapshotSettings(%d) succeeded", bad)
		}
	}
}

func TestSnapshots_Concurrent(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := store.CreateSnapshot(ctx, "scene-1", fmt.Sprintf("v%d", i), "", "", []byte("{}")); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent CreateSnapshot() failed: %v", err)
	}

	list, err := store.ListSnapshots(ctx, "scene-1")
	if err != nil {
		t.Fatalf("ListSnapshots() failed: %v", err)
	}
	if len(list) != core.DefaultMaxSnapshots {
		t.Errorf("ListSnapshots() returned %d, want %d", len(list), core.DefaultMaxSnapshots)
	}
}
