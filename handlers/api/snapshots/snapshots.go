// Package snapshots serves named checkpoints of saved scenes.
package snapshots

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"wireframe-canvas/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	// CreateSnapshotRequest carries the scene JSON to keep. When Data is
	// empty the scene's currently saved state is captured.
	CreateSnapshotRequest struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		CreatedBy   string          `json:"created_by"`
		Data        json.RawMessage `json:"data,omitempty"`
	}

	CreateSnapshotResponse struct {
		ID string `json:"id"`
	}

	UpdateSnapshotRequest struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	UpdateSettingsRequest struct {
		MaxSnapshots int `json:"max_snapshots"`
	}
)

// statusFor maps store errors to a response code.
func statusFor(err error) int {
	if errors.Is(err, core.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// HandleCreateSnapshot stores a snapshot for a scene. scenes may be nil, in
// which case the request must carry data.
func HandleCreateSnapshot(store core.SnapshotStore, scenes core.SceneStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sceneID := chi.URLParam(r, "sceneId")
		log := logrus.WithField("scene_id", sceneID)

		var req CreateSnapshotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.WithField("error", err).Error("Failed to decode request")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		data := []byte(req.Data)
		if len(data) == 0 {
			if scenes == nil {
				http.Error(w, "Snapshot data is required", http.StatusBadRequest)
				return
			}
			scene, err := scenes.Get(r.Context(), sceneID)
			if err != nil {
				log.WithField("error", err).Warn("Failed to load scene for snapshot")
				http.Error(w, "Scene not found", statusFor(err))
				return
			}
			if data, err = json.Marshal(scene); err != nil {
				log.WithField("error", err).Error("Failed to encode scene")
				http.Error(w, "Failed to create snapshot", http.StatusInternalServerError)
				return
			}
		}

		id, err := store.CreateSnapshot(r.Context(), sceneID, req.Name, req.Description, req.CreatedBy, data)
		if err != nil {
			log.WithField("error", err).Error("Failed to create snapshot")
			http.Error(w, "Failed to create snapshot", http.StatusInternalServerError)
			return
		}

		log.WithField("snapshot_id", id).Info("Snapshot created")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateSnapshotResponse{ID: id})
	}
}

// HandleListSnapshots lists a scene's snapshots, newest first, without data.
func HandleListSnapshots(store core.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sceneID := chi.URLParam(r, "sceneId")

		snapshots, err := store.ListSnapshots(r.Context(), sceneID)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list snapshots")
			http.Error(w, "Failed to list snapshots", http.StatusInternalServerError)
			return
		}

		if snapshots == nil {
			snapshots = []core.Snapshot{}
		}

		render.JSON(w, r, snapshots)
	}
}

func HandleGetSnapshotCount(store core.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sceneID := chi.URLParam(r, "sceneId")

		snapshots, err := store.ListSnapshots(r.Context(), sceneID)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list snapshots")
			http.Error(w, "Failed to get snapshot count", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, map[string]int{"count": len(snapshots)})
	}
}

func HandleGetSnapshot(store core.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshotID := chi.URLParam(r, "snapshotId")

		snapshot, err := store.GetSnapshot(r.Context(), snapshotID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"snapshot_id": snapshotID, "error": err}).Warn("Failed to get snapshot")
			http.Error(w, "Snapshot not found", statusFor(err))
			return
		}

		render.JSON(w, r, snapshot)
	}
}

func HandleDeleteSnapshot(store core.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshotID := chi.URLParam(r, "snapshotId")

		if err := store.DeleteSnapshot(r.Context(), snapshotID); err != nil {
			logrus.WithFields(logrus.Fields{"snapshot_id": snapshotID, "error": err}).Error("Failed to delete snapshot")
			http.Error(w, "Failed to delete snapshot", statusFor(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleUpdateSnapshot renames a snapshot or changes its description.
func HandleUpdateSnapshot(store core.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshotID := chi.URLParam(r, "snapshotId")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to read request body")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var req UpdateSnapshotRequest
		if err := json.Unmarshal(body, &req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := store.UpdateSnapshotMetadata(r.Context(), snapshotID, req.Name, req.Description); err != nil {
			logrus.WithField("error", err).Error("Failed to update snapshot")
			http.Error(w, "Failed to update snapshot", statusFor(err))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleRestoreSnapshot writes a snapshot back as its scene's saved state.
// isOpen reports canvases with a live editor session; those are refused so
// the session cannot overwrite the restored scene on its next save.
func HandleRestoreSnapshot(store core.SnapshotStore, scenes core.SceneStore, isOpen func(sceneID string) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshotID := chi.URLParam(r, "snapshotId")
		log := logrus.WithField("snapshot_id", snapshotID)

		snapshot, err := store.GetSnapshot(r.Context(), snapshotID)
		if err != nil {
			log.WithField("error", err).Warn("Failed to get snapshot")
			http.Error(w, "Snapshot not found", statusFor(err))
			return
		}
		if isOpen != nil && isOpen(snapshot.SceneID) {
			http.Error(w, "Canvas is open for editing", http.StatusConflict)
			return
		}

		var scene core.Scene
		if err := json.Unmarshal(snapshot.Data, &scene); err != nil {
			log.WithField("error", err).Error("Snapshot data is not a scene")
			http.Error(w, "Snapshot data is not a scene", http.StatusUnprocessableEntity)
			return
		}
		scene.ID = snapshot.SceneID

		if err := scenes.Save(r.Context(), &scene); err != nil {
			log.WithField("error", err).Error("Failed to restore scene")
			http.Error(w, "Failed to restore snapshot", http.StatusInternalServerError)
			return
		}

		log.WithField("scene_id", scene.ID).Info("Snapshot restored")
		scene.Objects = nil
		render.JSON(w, r, scene)
	}
}

func HandleGetSettings(store core.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sceneID := chi.URLParam(r, "sceneId")

		settings, err := store.GetSnapshotSettings(r.Context(), sceneID)
		if err != nil {
			logrus.WithField("error", err).Error("Failed to get snapshot settings")
			http.Error(w, "Failed to get snapshot settings", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, settings)
	}
}

// HandleUpdateSettings changes how many snapshots a scene keeps. Lowering
// the cap evicts the oldest snapshots on the next create.
func HandleUpdateSettings(store core.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sceneID := chi.URLParam(r, "sceneId")

		var req UpdateSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithField("error", err).Error("Failed to decode request")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.MaxSnapshots < 1 {
			http.Error(w, "max_snapshots must be at least 1", http.StatusBadRequest)
			return
		}

		if err := store.UpdateSnapshotSettings(r.Context(), sceneID, req.MaxSnapshots); err != nil {
			logrus.WithField("error", err).Error("Failed to update snapshot settings")
			http.Error(w, "Failed to update snapshot settings", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
