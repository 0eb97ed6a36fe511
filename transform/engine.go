// Package transform turns pointer-drag gestures into move, resize, rotate
// and skew mutations on canvas objects and keeps a bounded per-object
// undo/redo history.
//
// One transformation session is active at a time:
//
//	Idle -> {Moving | Resizing | Rotating | Skewing} -> Idle
//
// Starting a session while another one is active abandons the previous one:
// its object is put back to the baseline and nothing is committed.
package transform

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"wireframe-canvas/canvas"
	"wireframe-canvas/core"
	"wireframe-canvas/events"

	"github.com/sirupsen/logrus"
)

const (
	// MinDimension floors width and height during resize.
	MinDimension = 20.0
	// SkewSensitivity is the skew added per pixel of drag.
	SkewSensitivity = 0.01
)

var (
	ErrNotFound                 = canvas.ErrNotFound
	ErrLocked                   = errors.New("object is locked for this transformation")
	ErrNoActiveTransformation   = errors.New("no active transformation")
	ErrWrongTransformation      = errors.New("active transformation is of a different kind")
	ErrTransformationInProgress = errors.New("transformation in progress")
	ErrNoActiveObject           = errors.New("no active object")
	ErrNothingToUndo            = errors.New("nothing to undo")
	ErrNothingToRedo            = errors.New("nothing to redo")
	ErrInvalidDirection         = errors.New("invalid resize direction")
	ErrInvalidAxis              = errors.New("invalid skew axis")
	ErrUnknownAction            = errors.New("unknown quick action")
)

type Kind string

const (
	KindMove   Kind = "move"
	KindResize Kind = "resize"
	KindRotate Kind = "rotate"
	KindSkew   Kind = "skew"
)

type State string

const (
	Idle     State = "idle"
	Moving   State = "moving"
	Resizing State = "resizing"
	Rotating State = "rotating"
	Skewing  State = "skewing"
)

// Direction is a resize handle: n, s, e, w, ne, se, sw or nw.
type Direction string

func (d Direction) valid() bool {
	switch d {
	case "n", "s", "e", "w", "ne", "se", "sw", "nw":
		return true
	}
	return false
}

type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
)

// Bounds is the result of a resize step.
type Bounds struct {
	Position   core.Point `json:"position"`
	Dimensions core.Size  `json:"dimensions"`
}

type session struct {
	kind      Kind
	objectID  string
	start     core.Point
	baseline  core.CanvasObject
	direction Direction
	axis      Axis
	// startAngle is the pointer angle around the centre at start, degrees.
	startAngle float64
	center     core.Point
	// offset is how far descendants of a moved group have been shifted.
	offset core.Point
}

type Engine struct {
	canvas    *canvas.Canvas
	bus       *events.Bus
	now       func() time.Time
	session   *session
	active    string
	histories map[string]*History
	off       func()
}

// New attaches an engine to c. Events go to bus, which may be nil.
func New(c *canvas.Canvas, bus *events.Bus) *Engine {
	e := &Engine{
		canvas:    c,
		bus:       bus,
		now:       time.Now,
		histories: make(map[string]*History),
	}
	e.off = c.On(e.handleCanvasEvent)
	return e
}

// Close detaches the engine from the canvas.
func (e *Engine) Close() {
	if e.off != nil {
		e.off()
		e.off = nil
	}
}

func (e *Engine) handleCanvasEvent(ev canvas.Event) {
	if ev.Type != canvas.ObjectRemoved {
		return
	}
	delete(e.histories, ev.ObjectID)
	if e.session != nil && e.session.objectID == ev.ObjectID {
		e.session = nil
	}
	if e.active == ev.ObjectID {
		e.active = ""
	}
}

func (e *Engine) State() State {
	if e.session == nil {
		return Idle
	}
	switch e.session.kind {
	case KindMove:
		return Moving
	case KindResize:
		return Resizing
	case KindRotate:
		return Rotating
	default:
		return Skewing
	}
}

// ActiveObject returns the id of the object last targeted by a
// transformation, or "".
func (e *Engine) ActiveObject() string { return e.active }

func (e *Engine) StartMove(id string, pointer core.Point) error {
	_, err := e.start(KindMove, id, pointer, func(s *session) error { return nil })
	return err
}

func (e *Engine) StartResize(id string, pointer core.Point, direction Direction) error {
	if !direction.valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}
	_, err := e.start(KindResize, id, pointer, func(s *session) error {
		s.direction = direction
		return nil
	})
	return err
}

func (e *Engine) StartRotate(id string, pointer core.Point) error {
	_, err := e.start(KindRotate, id, pointer, func(s *session) error {
		s.center = s.baseline.Center()
		s.startAngle = angleAround(s.center, pointer)
		return nil
	})
	return err
}

func (e *Engine) StartSkew(id string, pointer core.Point, axis Axis) error {
	if axis != AxisX && axis != AxisY {
		return fmt.Errorf("%w: %q", ErrInvalidAxis, axis)
	}
	_, err := e.start(KindSkew, id, pointer, func(s *session) error {
		s.axis = axis
		return nil
	})
	return err
}

func (e *Engine) start(kind Kind, id string, pointer core.Point, init func(*session) error) (*session, error) {
	obj, err := e.canvas.Object(id)
	if err != nil {
		return nil, err
	}
	if lockedFor(obj.Lock, kind) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrLocked, id, kind)
	}

	if e.session != nil {
		logrus.WithFields(logrus.Fields{
			"object_id": e.session.objectID,
			"kind":      e.session.kind,
		}).Debug("Abandoning active transformation")
		e.abandon()
		// The abandoned object may be the one we are starting on.
		if obj, err = e.canvas.Object(id); err != nil {
			return nil, err
		}
	}

	s := &session{kind: kind, objectID: id, start: pointer, baseline: obj}
	if err := init(s); err != nil {
		return nil, err
	}
	e.session = s
	e.active = id

	if err := e.canvas.SetActiveSelection(id); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"object_id": id, "kind": kind}).Debug("Transformation started")
	return s, nil
}

func lockedFor(l core.LockFlags, kind Kind) bool {
	switch kind {
	case KindMove:
		return l.Movement
	case KindResize:
		return l.Scaling
	case KindRotate:
		return l.Rotation
	default:
		return l.Skewing
	}
}

// Cancel abandons the active session without committing it.
func (e *Engine) Cancel() error {
	if e.session == nil {
		return ErrNoActiveTransformation
	}
	e.abandon()
	return nil
}

func (e *Engine) abandon() {
	s := e.session
	e.session = nil
	base := s.baseline.Snapshot()
	err := e.canvas.Update(s.objectID, func(obj *core.CanvasObject) { obj.Apply(base) })
	if err == nil && (s.offset.X != 0 || s.offset.Y != 0) {
		err = e.canvas.TranslateDescendants(s.objectID, -s.offset.X, -s.offset.Y)
	}
	if err != nil {
		logrus.WithError(err).WithField("object_id", s.objectID).Warn("Failed to restore abandoned transformation")
	}
}

func (e *Engine) current(kind Kind) (*session, error) {
	if e.session == nil {
		return nil, ErrNoActiveTransformation
	}
	if e.session.kind != kind {
		return nil, fmt.Errorf("%w: active %s, requested %s", ErrWrongTransformation, e.session.kind, kind)
	}
	return e.session, nil
}

// Move places the object at baseline + (pointer - start).
func (e *Engine) Move(pointer core.Point) (core.Point, error) {
	s, err := e.current(KindMove)
	if err != nil {
		return core.Point{}, err
	}
	dx, dy := pointer.X-s.start.X, pointer.Y-s.start.Y
	pos := core.Point{X: s.baseline.Left + dx, Y: s.baseline.Top + dy}

	if err := e.canvas.Update(s.objectID, func(obj *core.CanvasObject) {
		obj.Left, obj.Top = pos.X, pos.Y
	}); err != nil {
		return core.Point{}, err
	}
	if s.baseline.Type == core.TypeGroup {
		step := core.Point{X: dx - s.offset.X, Y: dy - s.offset.Y}
		if err := e.canvas.TranslateDescendants(s.objectID, step.X, step.Y); err != nil {
			return core.Point{}, err
		}
		s.offset = core.Point{X: dx, Y: dy}
	}
	logrus.WithFields(logrus.Fields{"object_id": s.objectID, "left": pos.X, "top": pos.Y}).Debug("Move")
	return pos, nil
}

// Resize adjusts width, height and position for the session's handle.
// Dimensions never drop below MinDimension; when a west or north edge is
// dragged the opposite edge stays put.
func (e *Engine) Resize(pointer core.Point) (Bounds, error) {
	s, err := e.current(KindResize)
	if err != nil {
		return Bounds{}, err
	}
	b := resizeBounds(s.baseline, s.direction, pointer.X-s.start.X, pointer.Y-s.start.Y)

	if err := e.canvas.Update(s.objectID, func(obj *core.CanvasObject) {
		obj.Left, obj.Top = b.Position.X, b.Position.Y
		obj.Width, obj.Height = b.Dimensions.Width, b.Dimensions.Height
	}); err != nil {
		return Bounds{}, err
	}
	logrus.WithFields(logrus.Fields{
		"object_id": s.objectID,
		"width":     b.Dimensions.Width,
		"height":    b.Dimensions.Height,
	}).Debug("Resize")
	return b, nil
}

func resizeBounds(base core.CanvasObject, dir Direction, dx, dy float64) Bounds {
	left, top := base.Left, base.Top
	width, height := base.Width, base.Height
	d := string(dir)

	if strings.Contains(d, "e") {
		width = math.Max(MinDimension, base.Width+dx)
	}
	if strings.Contains(d, "w") {
		width = math.Max(MinDimension, base.Width-dx)
		left = base.Left + base.Width - width
	}
	if strings.Contains(d, "s") {
		height = math.Max(MinDimension, base.Height+dy)
	}
	if strings.Contains(d, "n") {
		height = math.Max(MinDimension, base.Height-dy)
		top = base.Top + base.Height - height
	}
	return Bounds{
		Position:   core.Point{X: left, Y: top},
		Dimensions: core.Size{Width: width, Height: height},
	}
}

// Rotate adds the change of the pointer's angle around the object's centre
// to the baseline angle. The result is in [0, 360).
func (e *Engine) Rotate(pointer core.Point) (float64, error) {
	s, err := e.current(KindRotate)
	if err != nil {
		return 0, err
	}
	angle := NormalizeAngle(s.baseline.Angle + angleAround(s.center, pointer) - s.startAngle)

	if err := e.canvas.Update(s.objectID, func(obj *core.CanvasObject) {
		obj.Angle = angle
	}); err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{"object_id": s.objectID, "angle": angle}).Debug("Rotate")
	return angle, nil
}

func angleAround(center, p core.Point) float64 {
	return math.Atan2(p.Y-center.Y, p.X-center.X) * 180 / math.Pi
}

// NormalizeAngle maps any finite angle in degrees into [0, 360).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		a = 0
	}
	return a
}

// Skew changes one skew axis by SkewSensitivity per pixel dragged along it.
func (e *Engine) Skew(pointer core.Point) (float64, error) {
	s, err := e.current(KindSkew)
	if err != nil {
		return 0, err
	}
	var value float64
	if s.axis == AxisX {
		value = s.baseline.SkewX + (pointer.X-s.start.X)*SkewSensitivity
	} else {
		value = s.baseline.SkewY + (pointer.Y-s.start.Y)*SkewSensitivity
	}

	if err := e.canvas.Update(s.objectID, func(obj *core.CanvasObject) {
		if s.axis == AxisX {
			obj.SkewX = value
		} else {
			obj.SkewY = value
		}
	}); err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{"object_id": s.objectID, "axis": s.axis, "skew": value}).Debug("Skew")
	return value, nil
}

// Stop commits the active session: the before/after geometry goes onto the
// object's undo stack, its redo stack is cleared and an ObjectTransformed
// event is published.
func (e *Engine) Stop() (core.TransformationSnapshot, error) {
	s := e.session
	if s == nil {
		return core.TransformationSnapshot{}, ErrNoActiveTransformation
	}
	e.session = nil

	obj, err := e.canvas.Object(s.objectID)
	if err != nil {
		return core.TransformationSnapshot{}, err
	}
	after := obj.Snapshot()
	e.history(s.objectID).Commit(Entry{Kind: s.kind, Before: s.baseline.Snapshot(), After: after})

	logrus.WithFields(logrus.Fields{"object_id": s.objectID, "kind": s.kind}).Debug("Transformation committed")
	e.publish(events.ObjectTransformed{
		ID:         obj.ID,
		Type:       string(s.kind),
		Position:   obj.Position(),
		Dimensions: obj.Dimensions(),
		Rotation:   obj.Angle,
		Skew:       core.Skew{X: obj.SkewX, Y: obj.SkewY},
	})
	return after, nil
}

func (e *Engine) history(id string) *History {
	h, ok := e.histories[id]
	if !ok {
		h = &History{}
		e.histories[id] = h
	}
	return h
}

// HistoryDepth returns the undo and redo stack sizes for an object.
func (e *Engine) HistoryDepth(id string) (past, future int) {
	h, ok := e.histories[id]
	if !ok {
		return 0, 0
	}
	return h.Past(), h.Future()
}

func (e *Engine) publish(ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}
