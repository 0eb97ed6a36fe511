// Package editor hosts open canvases. Each session wires a shell, a
// transformation engine and a layer manager to one canvas and one event bus,
// and keeps the scene saved while it is edited.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"wireframe-canvas/core"
	"wireframe-canvas/events"
	"wireframe-canvas/layers"
	"wireframe-canvas/shell"
	"wireframe-canvas/transform"

	"github.com/sirupsen/logrus"
)

var (
	ErrSessionNotFound = errors.New("editor session not found")
	ErrSessionClosed   = errors.New("editor session closed")
	ErrNoSceneStore    = errors.New("no scene store configured")
)

// Default host size for canvases opened without one and without a saved
// scene.
const (
	DefaultWidth  = 1280.0
	DefaultHeight = 800.0
)

type Config struct {
	// Scenes restores and saves canvas contents. Optional.
	Scenes core.SceneStore
	// Settings backs shell configuration. Optional.
	Settings core.SettingsStore
	// Autosave saves the scene after every change once no transformation is
	// in progress.
	Autosave bool

	// OnEvent receives every engine and layer event of every session.
	OnEvent func(canvasID string, e events.Event)
	// OnNotice receives shell notices. Notices are logged when nil.
	OnNotice func(canvasID string, n shell.Notice)

	SampleInterval time.Duration
}

type OpenOptions struct {
	Name             string
	Width            float64
	Height           float64
	PersistSelection bool
	Grid             *core.GridConfig
	Guides           *core.GuideConfig
}

// Info describes an open session.
type Info struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	ObjectCount int       `json:"objectCount"`
	OpenedAt    time.Time `json:"openedAt"`
}

type Registry struct {
	ctx context.Context
	cfg Config

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry. Session background work stops
// when ctx is done.
func NewRegistry(ctx context.Context, cfg Config) *Registry {
	return &Registry{
		ctx:      ctx,
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session for id, creating it if needed. A new session
// restores the saved scene when the scene store has one.
func (r *Registry) Open(ctx context.Context, id string, opts OpenOptions) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("canvas id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}

	log := logrus.WithField("canvas_id", id)

	var scene *core.Scene
	if r.cfg.Scenes != nil {
		saved, err := r.cfg.Scenes.Get(ctx, id)
		switch {
		case err == nil:
			scene = saved
		case errors.Is(err, core.ErrNotFound):
		default:
			log.WithError(err).Error("Failed to restore scene")
			return nil, fmt.Errorf("restore scene %s: %w", id, err)
		}
	}

	name, width, height := opts.Name, opts.Width, opts.Height
	if scene != nil {
		if name == "" {
			name = scene.Name
		}
		if width <= 0 {
			width = scene.Width
		}
		if height <= 0 {
			height = scene.Height
		}
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	notifier := shell.Notifier(nil)
	if r.cfg.OnNotice != nil {
		notifier = shell.NotifierFunc(func(n shell.Notice) { r.cfg.OnNotice(id, n) })
	}
	sh := shell.New(ctx, shell.Options{
		Width:          width,
		Height:         height,
		Grid:           opts.Grid,
		Guides:         opts.Guides,
		Persist:        r.cfg.Settings != nil,
		Store:          r.cfg.Settings,
		Scope:          id,
		SampleInterval: r.cfg.SampleInterval,
		Notifier:       notifier,
	})
	if err := sh.Initialize(r.ctx); err != nil {
		return nil, err
	}

	c := sh.Canvas()
	if scene != nil {
		if err := c.Load(scene.Objects); err != nil {
			sh.Dispose()
			log.WithError(err).Error("Saved scene is inconsistent")
			return nil, fmt.Errorf("restore scene %s: %w", id, err)
		}
	}

	bus := events.NewBus()
	s := &Session{
		id:       id,
		name:     name,
		scenes:   r.cfg.Scenes,
		autosave: r.cfg.Autosave && r.cfg.Scenes != nil,
		openedAt: time.Now(),
		canvas:   c,
		shell:    sh,
		bus:      bus,
		engine:   transform.New(c, bus),
		layers:   layers.New(c, bus, layers.Options{PersistSelection: opts.PersistSelection}),
	}
	if scene != nil {
		s.createdAt = scene.CreatedAt
	}
	if r.cfg.OnEvent != nil {
		s.off = bus.Subscribe(func(e events.Event) { r.cfg.OnEvent(id, e) })
	}
	r.sessions[id] = s

	log.WithFields(logrus.Fields{
		"restored":     scene != nil,
		"object_count": c.ObjectCount(),
	}).Info("Editor session opened")
	return s, nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// List describes the open sessions ordered by id.
func (r *Registry) List() []Info {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	out := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close saves (when autosave is on) and disposes the session for id.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.close(ctx)
	return nil
}

func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close(ctx)
	}
	logrus.WithField("session_count", len(sessions)).Info("Editor sessions closed")
}
