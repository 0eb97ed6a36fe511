package editor

import (
	"context"
	"sync"
	"time"

	"wireframe-canvas/canvas"
	"wireframe-canvas/core"
	"wireframe-canvas/events"
	"wireframe-canvas/layers"
	"wireframe-canvas/shell"
	"wireframe-canvas/transform"

	"github.com/sirupsen/logrus"
)

// Session is one open canvas. The canvas, engine and layer manager are not
// safe for concurrent use; every call on them goes through Do.
type Session struct {
	id        string
	name      string
	scenes    core.SceneStore
	autosave  bool
	openedAt  time.Time
	createdAt time.Time

	mu     sync.Mutex
	closed bool
	dirty  bool
	canvas *canvas.Canvas
	shell  *shell.Shell
	bus    *events.Bus
	engine *transform.Engine
	layers *layers.Manager
	off    func()
}

func (s *Session) ID() string { return s.id }

func (s *Session) Shell() *shell.Shell       { return s.shell }
func (s *Session) Engine() *transform.Engine { return s.engine }
func (s *Session) Layers() *layers.Manager   { return s.layers }
func (s *Session) Canvas() *canvas.Canvas    { return s.canvas }

// Subscribe registers fn for this session's engine and layer events.
func (s *Session) Subscribe(fn events.Handler) (unsubscribe func()) {
	return s.bus.Subscribe(fn)
}

// Info is safe to call without Do.
func (s *Session) Info() Info {
	return Info{
		ID:          s.id,
		Name:        s.name,
		Width:       s.canvas.Width(),
		Height:      s.canvas.Height(),
		ObjectCount: s.canvas.ObjectCount(),
		OpenedAt:    s.openedAt,
	}
}

// Do runs fn with exclusive access to the session. When fn changed the
// canvas and no transformation is left in progress, the scene is autosaved.
// Autosave failures are logged and never returned.
func (s *Session) Do(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	before := s.canvas.RenderCount()
	err := fn()
	if s.canvas.RenderCount() != before {
		s.dirty = true
	}
	if s.autosave && s.dirty && s.engine.State() == transform.Idle {
		if saveErr := s.save(ctx); saveErr == nil {
			s.dirty = false
		}
	}
	return err
}

// Save writes the scene to the scene store.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// Scene returns the saveable state of the canvas. Grid lines and guides are
// left out. Call it inside Do.
func (s *Session) Scene() *core.Scene {
	scene := &core.Scene{
		ID:        s.id,
		Name:      s.name,
		Width:     s.canvas.Width(),
		Height:    s.canvas.Height(),
		CreatedAt: s.createdAt,
	}
	for _, obj := range s.canvas.Objects() {
		if obj.Type.IsUtility() {
			continue
		}
		scene.Objects = append(scene.Objects, obj)
	}
	return scene
}

func (s *Session) save(ctx context.Context) error {
	if s.scenes == nil {
		return ErrNoSceneStore
	}
	scene := s.Scene()
	log := logrus.WithFields(logrus.Fields{"canvas_id": s.id, "object_count": len(scene.Objects)})
	if err := s.scenes.Save(ctx, scene); err != nil {
		log.WithError(err).Error("Failed to save scene")
		return err
	}
	if s.createdAt.IsZero() {
		s.createdAt = scene.CreatedAt
	}
	log.Debug("Scene saved")
	return nil
}

func (s *Session) close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.autosave && s.dirty {
		_ = s.save(ctx)
	}
	s.closed = true
	if s.off != nil {
		s.off()
	}
	s.layers.Close()
	s.engine.Close()
	s.shell.Dispose()
	logrus.WithField("canvas_id", s.id).Info("Editor session closed")
}
