// Package scenes serves saved canvas scenes.
package scenes

import (
	"encoding/json"
	"errors"
	"net/http"

	"wireframe-canvas/core"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// OpenFunc reports whether a canvas has a live editor session. Writes to an
// open canvas are refused so the session does not overwrite them.
type OpenFunc func(sceneID string) bool

func HandleList(store core.SceneStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scenes, err := store.List(r.Context())
		if err != nil {
			logrus.WithField("error", err).Error("Failed to list scenes")
			http.Error(w, "Failed to list scenes", http.StatusInternalServerError)
			return
		}
		if scenes == nil {
			scenes = []*core.Scene{}
		}
		render.JSON(w, r, scenes)
	}
}

func HandleGet(store core.SceneStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sceneId")

		scene, err := store.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				http.Error(w, "Scene not found", http.StatusNotFound)
				return
			}
			logrus.WithFields(logrus.Fields{"scene_id": id, "error": err}).Error("Failed to get scene")
			http.Error(w, "Failed to get scene", http.StatusInternalServerError)
			return
		}
		render.JSON(w, r, scene)
	}
}

// HandlePut creates or replaces a scene. The id in the path wins over the
// body.
func HandlePut(store core.SceneStore, isOpen OpenFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sceneId")
		log := logrus.WithField("scene_id", id)

		var scene core.Scene
		if err := json.NewDecoder(r.Body).Decode(&scene); err != nil {
			log.WithField("error", err).Warn("Failed to decode scene")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if scene.Width < 0 || scene.Height < 0 {
			http.Error(w, "Scene size cannot be negative", http.StatusBadRequest)
			return
		}
		if isOpen != nil && isOpen(id) {
			http.Error(w, "Canvas is open for editing", http.StatusConflict)
			return
		}
		scene.ID = id

		if err := store.Save(r.Context(), &scene); err != nil {
			log.WithField("error", err).Error("Failed to save scene")
			http.Error(w, "Failed to save scene", http.StatusInternalServerError)
			return
		}
		scene.Objects = nil
		render.JSON(w, r, scene)
	}
}

func HandleDelete(store core.SceneStore, isOpen OpenFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sceneId")

		if isOpen != nil && isOpen(id) {
			http.Error(w, "Canvas is open for editing", http.StatusConflict)
			return
		}
		if err := store.Delete(r.Context(), id); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				http.Error(w, "Scene not found", http.StatusNotFound)
				return
			}
			logrus.WithFields(logrus.Fields{"scene_id": id, "error": err}).Error("Failed to delete scene")
			http.Error(w, "Failed to delete scene", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
