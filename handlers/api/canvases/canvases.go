// Package canvases exposes open editor sessions over HTTP: objects,
// transformations, history, layers and shell configuration.
package canvases

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"wireframe-canvas/canvas"
	"wireframe-canvas/core"
	"wireframe-canvas/editor"
	"wireframe-canvas/layers"
	"wireframe-canvas/shell"
	"wireframe-canvas/transform"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

var (
	errUnknownKind   = errors.New("unknown transformation kind")
	errInvalidObject = errors.New("invalid object")
	errBadRequest    = errors.New("invalid request body")
)

type (
	// AddObjectRequest is a new canvas object. Visible defaults to true.
	AddObjectRequest struct {
		core.CanvasObject
		Visible *bool `json:"visible"`
	}

	OpenRequest struct {
		Name             string            `json:"name"`
		Width            float64           `json:"width"`
		Height           float64           `json:"height"`
		PersistSelection bool              `json:"persistSelection"`
		Grid             *core.GridConfig  `json:"grid,omitempty"`
		Guides           *core.GuideConfig `json:"guides,omitempty"`
	}

	StartRequest struct {
		Kind      transform.Kind      `json:"kind"`
		ObjectID  string              `json:"objectId"`
		Pointer   core.Point          `json:"pointer"`
		Direction transform.Direction `json:"direction,omitempty"`
		Axis      transform.Axis      `json:"axis,omitempty"`
	}

	PointerRequest struct {
		Pointer core.Point `json:"pointer"`
	}

	// TransformStatus is the engine state and the object it works on.
	TransformStatus struct {
		State    transform.State    `json:"state"`
		ObjectID string             `json:"objectId,omitempty"`
		Object   *core.CanvasObject `json:"object,omitempty"`
	}

	HistoryDepth struct {
		Past   int `json:"past"`
		Future int `json:"future"`
	}

	SelectRequest struct {
		Multi bool `json:"multi"`
	}

	GroupRequest struct {
		IDs  []string `json:"ids"`
		Name string   `json:"name"`
	}

	NameRequest struct {
		Name string `json:"name"`
	}

	GuideRequest struct {
		Orientation core.Orientation `json:"orientation"`
		Position    float64          `json:"position"`
	}

	IDResponse struct {
		ID string `json:"id"`
	}
)

type handler struct {
	registry *editor.Registry
}

// Routes mounts the editor API. Every route below /{canvasId} except the
// open call needs an open session.
func Routes(registry *editor.Registry) http.Handler {
	h := handler{registry: registry}
	r := chi.NewRouter()
	r.Get("/", h.list)

	r.Route("/{canvasId}", func(r chi.Router) {
		r.Post("/", h.open)
		r.Get("/", h.info)
		r.Delete("/", h.close)
		r.Post("/save", h.save)
		r.Get("/scene", h.scene)
		r.Get("/stats", h.stats)

		r.Get("/objects", h.objects)
		r.Post("/objects", h.addObject)
		r.Get("/objects/{objectId}", h.object)
		r.Get("/objects/{objectId}/history", h.history)
		r.Post("/objects/{objectId}/undo", h.undoObject)
		r.Post("/objects/{objectId}/redo", h.redoObject)
		r.Post("/objects/{objectId}/actions/{action}", h.quickAction)

		r.Get("/transform", h.transformStatus)
		r.Post("/transform/start", h.startTransform)
		r.Post("/transform/update", h.updateTransform)
		r.Post("/transform/stop", h.stopTransform)
		r.Post("/transform/cancel", h.cancelTransform)
		r.Post("/undo", h.undo)
		r.Post("/redo", h.redo)

		r.Get("/layers", h.layers)
		r.Post("/layers/reorder", h.reorderLayer)
		r.Post("/layers/group", h.groupLayers)
		r.Route("/layers/{layerId}", func(r chi.Router) {
			r.Patch("/", h.renameLayer)
			r.Delete("/", h.deleteLayer)
			r.Post("/select", h.selectLayer)
			r.Post("/visibility", h.toggleLayerVisibility)
			r.Post("/lock", h.toggleLayerLock)
			r.Post("/expanded", h.toggleLayerExpanded)
			r.Post("/duplicate", h.duplicateLayer)
			r.Post("/ungroup", h.ungroupLayer)
		})

		r.Get("/grid", h.grid)
		r.Put("/grid", h.setGrid)
		r.Post("/grid/visibility", h.toggleGrid)
		r.Post("/grid/snap", h.toggleSnap)
		r.Get("/guides", h.guides)
		r.Put("/guides", h.setGuides)
		r.Post("/guides/smart", h.toggleSmartGuides)
		r.Get("/guides/persistent", h.persistentGuides)
		r.Post("/guides/persistent", h.addPersistentGuide)
		r.Delete("/guides/persistent/{guideId}", h.removePersistentGuide)

		r.Get("/presets/grid", h.gridPresets)
		r.Post("/presets/grid", h.saveGridPreset)
		r.Post("/presets/grid/{presetId}/apply", h.applyGridPreset)
		r.Delete("/presets/grid/{presetId}", h.deleteGridPreset)
		r.Get("/presets/guides", h.guidePresets)
		r.Post("/presets/guides", h.saveGuidePreset)
		r.Post("/presets/guides/{presetId}/apply", h.applyGuidePreset)
		r.Delete("/presets/guides/{presetId}", h.deleteGuidePreset)

		r.Get("/config", h.exportConfig)
		r.Post("/config", h.importConfig)
	})
	return r
}

func statusFor(err error) int {
	is := func(targets ...error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
	switch {
	case is(editor.ErrSessionNotFound, editor.ErrSessionClosed, canvas.ErrNotFound,
		shell.ErrPresetNotFound, shell.ErrGuideNotFound):
		return http.StatusNotFound
	case is(transform.ErrLocked, transform.ErrTransformationInProgress, transform.ErrNoActiveTransformation,
		transform.ErrWrongTransformation, transform.ErrNoActiveObject, transform.ErrNothingToUndo,
		transform.ErrNothingToRedo, shell.ErrSystemPreset, canvas.ErrDuplicateID, canvas.ErrDisposed):
		return http.StatusConflict
	case is(errBadRequest, errUnknownKind, errInvalidObject, transform.ErrInvalidDirection,
		transform.ErrInvalidAxis, transform.ErrUnknownAction, shell.ErrInvalidConfig,
		shell.ErrInvalidOrientation, shell.ErrNoHostElement, layers.ErrGroupTooSmall,
		canvas.ErrNotGroup, canvas.ErrMixedParents, canvas.ErrInvalidParent, canvas.ErrInvalidKey):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := logrus.WithFields(logrus.Fields{
		"canvas_id": chi.URLParam(r, "canvasId"),
		"path":      r.URL.Path,
		"status":    status,
		"error":     err,
	})
	if status >= http.StatusInternalServerError {
		log.Error("Editor request failed")
	} else {
		log.Warn("Editor request rejected")
	}
	http.Error(w, err.Error(), status)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// decodeOptional accepts an empty body and leaves v untouched.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// run executes fn with exclusive access to the session and renders its
// result. A nil result answers 204.
func (h handler) run(w http.ResponseWriter, r *http.Request, fn func(s *editor.Session) (any, error)) {
	s, err := h.registry.Get(chi.URLParam(r, "canvasId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var out any
	err = s.Do(r.Context(), func() error {
		var err error
		out, err = fn(s)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	render.JSON(w, r, out)
}

func (h handler) list(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.registry.List())
}

// open returns the session, creating it when needed.
func (h handler) open(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s, err := h.registry.Open(r.Context(), chi.URLParam(r, "canvasId"), editor.OpenOptions{
		Name:             req.Name,
		Width:            req.Width,
		Height:           req.Height,
		PersistSelection: req.PersistSelection,
		Grid:             req.Grid,
		Guides:           req.Guides,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, s.Info())
}

func (h handler) info(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Get(chi.URLParam(r, "canvasId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, s.Info())
}

func (h handler) close(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Close(r.Context(), chi.URLParam(r, "canvasId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handler) save(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Get(chi.URLParam(r, "canvasId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Save(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handler) scene(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Scene(), nil
	})
}

func (h handler) stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Get(chi.URLParam(r, "canvasId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, s.Shell().Stats())
}

func (h handler) objects(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Canvas().Objects(), nil
	})
}

func (h handler) object(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Canvas().Object(chi.URLParam(r, "objectId"))
	})
}

// addObject places user content. Grid lines and guides belong to the shell.
func (h handler) addObject(w http.ResponseWriter, r *http.Request) {
	var req AddObjectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	obj := req.CanvasObject
	obj.Visible = req.Visible == nil || *req.Visible
	switch obj.Type {
	case core.TypeShape, core.TypeText, core.TypeImage, core.TypeGroup:
	default:
		writeError(w, r, fmt.Errorf("%w: type %q cannot be added", errInvalidObject, obj.Type))
		return
	}
	if obj.Width < 0 || obj.Height < 0 {
		writeError(w, r, fmt.Errorf("%w: negative size", errInvalidObject))
		return
	}
	render.Status(r, http.StatusCreated)
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Canvas().Add(obj)
	})
}

func (h handler) history(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		past, future := s.Engine().HistoryDepth(chi.URLParam(r, "objectId"))
		return HistoryDepth{Past: past, Future: future}, nil
	})
}

func (h handler) undoObject(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Engine().UndoObject(chi.URLParam(r, "objectId"))
	})
}

func (h handler) redoObject(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Engine().RedoObject(chi.URLParam(r, "objectId"))
	})
}

func (h handler) undo(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Engine().Undo()
	})
}

func (h handler) redo(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Engine().Redo()
	})
}

func (h handler) quickAction(w http.ResponseWriter, r *http.Request) {
	action := transform.QuickAction(chi.URLParam(r, "action"))
	h.run(w, r, func(s *editor.Session) (any, error) {
		id, err := s.Engine().ApplyQuickAction(chi.URLParam(r, "objectId"), action)
		if err != nil {
			return nil, err
		}
		return IDResponse{ID: id}, nil
	})
}

func transformStatus(s *editor.Session) TransformStatus {
	status := TransformStatus{State: s.Engine().State()}
	if status.State == transform.Idle {
		return status
	}
	status.ObjectID = s.Engine().ActiveObject()
	if obj, err := s.Canvas().Object(status.ObjectID); err == nil {
		status.Object = &obj
	}
	return status
}

func (h handler) transformStatus(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return transformStatus(s), nil
	})
}

func (h handler) startTransform(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.run(w, r, func(s *editor.Session) (any, error) {
		e := s.Engine()
		var err error
		switch req.Kind {
		case transform.KindMove:
			err = e.StartMove(req.ObjectID, req.Pointer)
		case transform.KindResize:
			err = e.StartResize(req.ObjectID, req.Pointer, req.Direction)
		case transform.KindRotate:
			err = e.StartRotate(req.ObjectID, req.Pointer)
		case transform.KindSkew:
			err = e.StartSkew(req.ObjectID, req.Pointer, req.Axis)
		default:
			err = fmt.Errorf("%w: %q", errUnknownKind, req.Kind)
		}
		if err != nil {
			return nil, err
		}
		return transformStatus(s), nil
	})
}

// updateTransform feeds a pointer position to whichever transformation is
// in progress.
func (h handler) updateTransform(w http.ResponseWriter, r *http.Request) {
	var req PointerRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.run(w, r, func(s *editor.Session) (any, error) {
		e := s.Engine()
		var err error
		switch e.State() {
		case transform.Moving:
			_, err = e.Move(req.Pointer)
		case transform.Resizing:
			_, err = e.Resize(req.Pointer)
		case transform.Rotating:
			_, err = e.Rotate(req.Pointer)
		case transform.Skewing:
			_, err = e.Skew(req.Pointer)
		default:
			err = transform.ErrNoActiveTransformation
		}
		if err != nil {
			return nil, err
		}
		return transformStatus(s), nil
	})
}

func (h handler) stopTransform(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Engine().Stop()
	})
}

func (h handler) cancelTransform(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		if err := s.Engine().Cancel(); err != nil {
			return nil, err
		}
		return transformStatus(s), nil
	})
}

func (h handler) layers(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Layers().Layers(), nil
	})
}

func (h handler) reorderLayer(w http.ResponseWriter, r *http.Request) {
	var req layers.Reorder
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.run(w, r, func(s *editor.Session) (any, error) {
		if err := s.Layers().ReorderLayer(req); err != nil {
			return nil, err
		}
		return s.Layers().Layers(), nil
	})
}

func (h handler) groupLayers(w http.ResponseWriter, r *http.Request) {
	var req GroupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	h.run(w, r, func(s *editor.Session) (any, error) {
		id, err := s.Layers().GroupLayers(req.IDs, req.Name)
		if err != nil {
			return nil, err
		}
		return IDResponse{ID: id}, nil
	})
}

func (h handler) renameLayer(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.run(w, r, func(s *editor.Session) (any, error) {
		return nil, s.Layers().RenameLayer(chi.URLParam(r, "layerId"), req.Name)
	})
}

func (h handler) deleteLayer(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return nil, s.Layers().DeleteLayer(chi.URLParam(r, "layerId"))
	})
}

func (h handler) selectLayer(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	h.run(w, r, func(s *editor.Session) (any, error) {
		if err := s.Layers().SelectLayer(chi.URLParam(r, "layerId"), req.Multi); err != nil {
			return nil, err
		}
		return s.Layers().Layers(), nil
	})
}

func (h handler) toggleLayerVisibility(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		visible, err := s.Layers().ToggleLayerVisibility(chi.URLParam(r, "layerId"))
		if err != nil {
			return nil, err
		}
		return map[string]bool{"visible": visible}, nil
	})
}

func (h handler) toggleLayerLock(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		locked, err := s.Layers().ToggleLayerLock(chi.URLParam(r, "layerId"))
		if err != nil {
			return nil, err
		}
		return map[string]bool{"locked": locked}, nil
	})
}

func (h handler) toggleLayerExpanded(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		expanded, err := s.Layers().ToggleLayerExpanded(chi.URLParam(r, "layerId"))
		if err != nil {
			return nil, err
		}
		return map[string]bool{"expanded": expanded}, nil
	})
}

func (h handler) duplicateLayer(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusCreated)
	h.run(w, r, func(s *editor.Session) (any, error) {
		id, err := s.Layers().DuplicateLayer(chi.URLParam(r, "layerId"))
		if err != nil {
			return nil, err
		}
		return IDResponse{ID: id}, nil
	})
}

func (h handler) ungroupLayer(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		ids, err := s.Layers().UngroupLayer(chi.URLParam(r, "layerId"))
		if err != nil {
			return nil, err
		}
		return map[string][]string{"ids": ids}, nil
	})
}

func (h handler) grid(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Shell().GridConfig(), nil
	})
}

func (h handler) setGrid(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		cfg := s.Shell().GridConfig()
		if err := decode(r, &cfg); err != nil {
			return nil, err
		}
		if err := s.Shell().SetGridConfig(r.Context(), cfg); err != nil {
			return nil, err
		}
		return s.Shell().GridConfig(), nil
	})
}

func (h handler) toggleGrid(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return map[string]bool{"visible": s.Shell().ToggleGridVisibility(r.Context())}, nil
	})
}

func (h handler) toggleSnap(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return map[string]bool{"snapToGrid": s.Shell().ToggleSnapToGrid(r.Context())}, nil
	})
}

func (h handler) guides(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Shell().GuideConfig(), nil
	})
}

func (h handler) setGuides(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		cfg := s.Shell().GuideConfig()
		if err := decode(r, &cfg); err != nil {
			return nil, err
		}
		if err := s.Shell().SetGuideConfig(r.Context(), cfg); err != nil {
			return nil, err
		}
		return s.Shell().GuideConfig(), nil
	})
}

func (h handler) toggleSmartGuides(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return map[string]bool{"smartGuides": s.Shell().ToggleSmartGuides(r.Context())}, nil
	})
}

func (h handler) persistentGuides(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		guides := s.Shell().PersistentGuides()
		if guides == nil {
			guides = []core.PersistentGuide{}
		}
		return guides, nil
	})
}

func (h handler) addPersistentGuide(w http.ResponseWriter, r *http.Request) {
	var req GuideRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Shell().AddPersistentGuide(r.Context(), req.Orientation, req.Position)
	})
}

func (h handler) removePersistentGuide(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return nil, s.Shell().RemovePersistentGuide(r.Context(), chi.URLParam(r, "guideId"))
	})
}

func (h handler) gridPresets(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Shell().GridPresets(), nil
	})
}

func (h handler) saveGridPreset(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Shell().SaveGridPreset(r.Context(), req.Name)
	})
}

func (h handler) applyGridPreset(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		if err := s.Shell().ApplyGridPreset(r.Context(), chi.URLParam(r, "presetId")); err != nil {
			return nil, err
		}
		return s.Shell().GridConfig(), nil
	})
}

func (h handler) deleteGridPreset(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return nil, s.Shell().DeleteGridPreset(r.Context(), chi.URLParam(r, "presetId"))
	})
}

func (h handler) guidePresets(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Shell().GuidePresets(), nil
	})
}

func (h handler) saveGuidePreset(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Shell().SaveGuidePreset(r.Context(), req.Name)
	})
}

func (h handler) applyGuidePreset(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		if err := s.Shell().ApplyGuidePreset(r.Context(), chi.URLParam(r, "presetId")); err != nil {
			return nil, err
		}
		return s.Shell().GuideConfig(), nil
	})
}

func (h handler) deleteGuidePreset(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(s *editor.Session) (any, error) {
		return nil, s.Shell().DeleteGuidePreset(r.Context(), chi.URLParam(r, "presetId"))
	})
}

func (h handler) exportConfig(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Get(chi.URLParam(r, "canvasId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var data []byte
	err = s.Do(r.Context(), func() error {
		var err error
		data, err = s.Shell().ExportConfig()
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.ID()+"-config.json"))
	w.Write(data)
}

func (h handler) importConfig(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	h.run(w, r, func(s *editor.Session) (any, error) {
		return s.Shell().ImportConfig(r.Context(), data)
	})
}
