// Package shell owns a canvas's lifecycle and its shell-level settings:
// grid and guide configuration, presets, persistent guides and coarse
// performance sampling.
package shell

import (
	"context"
	"errors"
	"sync"
	"time"

	"wireframe-canvas/canvas"
	"wireframe-canvas/core"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoHostElement      = errors.New("canvas host has no size")
	ErrPresetNotFound     = errors.New("preset not found")
	ErrSystemPreset       = errors.New("system presets cannot be deleted")
	ErrGuideNotFound      = errors.New("guide not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInvalidOrientation = errors.New("invalid guide orientation")
)

// DefaultSampleInterval is how often Stats is refreshed.
const DefaultSampleInterval = time.Second

type Options struct {
	// Width and Height size the canvas host. Both must be positive.
	Width  float64
	Height float64

	// Grid and Guides override the defaults. Stored settings win over both.
	Grid   *core.GridConfig
	Guides *core.GuideConfig

	// Persist enables reading and writing settings through Store.
	Persist bool
	Store   core.SettingsStore
	// Scope namespaces stored settings, typically the canvas id.
	Scope string

	SampleInterval time.Duration
	Notifier       Notifier
}

// Stats is the latest performance sample.
type Stats struct {
	FPS         float64   `json:"fps"`
	ObjectCount int       `json:"objectCount"`
	SampledAt   time.Time `json:"sampledAt"`
}

type Shell struct {
	opts     Options
	store    core.SettingsStore
	notifier Notifier
	now      func() time.Time

	canvas   *canvas.Canvas
	selected []string
	off      func()

	grid             core.GridConfig
	guides           core.GuideConfig
	persistentGuides []core.PersistentGuide
	gridPresets      []core.GridPreset
	guidePresets     []core.GuidePreset

	// mu guards the fields written by the sampler and read by any goroutine.
	mu     sync.Mutex
	stats  Stats
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a shell and loads its settings: defaults, then opts
// overrides, then stored values when persistence is enabled. Read failures
// are logged and fall back to what was merged so far.
func New(ctx context.Context, opts Options) *Shell {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = DefaultSampleInterval
	}
	s := &Shell{
		opts:         opts,
		notifier:     opts.Notifier,
		now:          time.Now,
		grid:         core.DefaultGridConfig(),
		guides:       core.DefaultGuideConfig(),
		gridPresets:  SystemGridPresets(),
		guidePresets: SystemGuidePresets(),
	}
	if s.notifier == nil {
		s.notifier = logNotifier{}
	}
	if opts.Persist {
		s.store = opts.Store
	}
	if opts.Grid != nil {
		s.grid = *opts.Grid
	}
	if opts.Guides != nil {
		s.guides = *opts.Guides
	}

	s.load(ctx, keyGrid, &s.grid)
	s.load(ctx, keyGuides, &s.guides)
	s.load(ctx, keyPersistentGuides, &s.persistentGuides)

	var gridPresets []core.GridPreset
	if s.load(ctx, keyGridPresets, &gridPresets) {
		s.gridPresets = mergeGridPresets(s.gridPresets, gridPresets)
	}
	var guidePresets []core.GuidePreset
	if s.load(ctx, keyGuidePresets, &guidePresets) {
		s.guidePresets = mergeGuidePresets(s.guidePresets, guidePresets)
	}
	return s
}

// Initialize creates the canvas, tracks its selection and starts the
// performance sampler, which runs until Dispose or until ctx is done. A
// host without a positive size puts the shell in an error state instead.
func (s *Shell) Initialize(ctx context.Context) error {
	if s.canvas != nil {
		return nil
	}
	if s.opts.Width <= 0 || s.opts.Height <= 0 {
		s.setErr(ErrNoHostElement)
		logrus.WithFields(logrus.Fields{
			"scope":  s.opts.Scope,
			"width":  s.opts.Width,
			"height": s.opts.Height,
		}).Error("Canvas host missing")
		return ErrNoHostElement
	}

	s.canvas = canvas.New(s.opts.Width, s.opts.Height)
	s.off = s.canvas.On(s.handleSelection)

	sampleCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.err = nil
	s.cancel = cancel
	s.done = done
	s.stats = Stats{SampledAt: s.now()}
	s.mu.Unlock()
	go s.sample(sampleCtx, s.canvas, done)

	logrus.WithFields(logrus.Fields{"scope": s.opts.Scope, "width": s.opts.Width, "height": s.opts.Height}).Info("Canvas initialized")
	return nil
}

// Canvas returns the canvas, or nil before Initialize and after Dispose.
func (s *Shell) Canvas() *canvas.Canvas { return s.canvas }

// Err returns the shell's error state, if any.
func (s *Shell) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Shell) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Dispose stops the sampler, detaches listeners and disposes the canvas.
// It is safe to call more than once.
func (s *Shell) Dispose() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}

	if s.canvas == nil {
		return
	}
	if s.off != nil {
		s.off()
		s.off = nil
	}
	s.canvas.Dispose()
	s.canvas = nil
	s.selected = nil
	logrus.WithField("scope", s.opts.Scope).Info("Canvas disposed")
}

// SelectedObjects returns the ids last reported by canvas selection events.
func (s *Shell) SelectedObjects() []string {
	out := make([]string, len(s.selected))
	copy(out, s.selected)
	return out
}

func (s *Shell) handleSelection(e canvas.Event) {
	switch e.Type {
	case canvas.SelectionCreated, canvas.SelectionUpdated:
		s.selected = e.Selected
	case canvas.SelectionCleared:
		s.selected = nil
	}
}

// Stats returns the latest performance sample.
func (s *Shell) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// sample records renders per second and the object count every interval.
// It only touches the canvas's atomic counters.
func (s *Shell) sample(ctx context.Context, c *canvas.Canvas, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.opts.SampleInterval)
	defer ticker.Stop()

	last := s.now()
	lastRenders := c.RenderCount()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := s.now()
			renders := c.RenderCount()
			elapsed := now.Sub(last).Seconds()
			var fps float64
			if elapsed > 0 {
				fps = float64(renders-lastRenders) / elapsed
			}
			s.mu.Lock()
			s.stats = Stats{FPS: fps, ObjectCount: c.ObjectCount(), SampledAt: now}
			s.mu.Unlock()
			last, lastRenders = now, renders
		}
	}
}

func (s *Shell) notify(level NoticeLevel, title, message string) {
	s.notifier.Notify(Notice{Level: level, Title: title, Message: message})
}
