// Package canvas is the object registry behind the editor: an arena of
// canvas objects keyed by id, an active selection, a render order derived
// from per-sibling order keys, and synchronous mutation events.
//
// A Canvas is not safe for concurrent use. Listeners run on the caller's
// goroutine and may call back into the canvas. The counters read by
// telemetry (RenderCount, ObjectCount) are the only concurrent-safe methods.
package canvas

import (
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"wireframe-canvas/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound      = errors.New("object not found")
	ErrDuplicateID   = errors.New("duplicate object id")
	ErrInvalidParent = errors.New("parent must be an existing group")
	ErrNotGroup      = errors.New("object is not a group")
	ErrMixedParents  = errors.New("objects do not share a parent")
	ErrDisposed      = errors.New("canvas disposed")
)

type Canvas struct {
	width  float64
	height float64

	objects   map[string]*core.CanvasObject
	selection []string

	listeners    []listenerEntry
	nextListener int
	disposed     bool

	renders     atomic.Uint64
	objectCount atomic.Int64

	now func() time.Time
}

// New returns an empty canvas of the given size.
func New(width, height float64) *Canvas {
	return &Canvas{
		width:   width,
		height:  height,
		objects: make(map[string]*core.CanvasObject),
		now:     time.Now,
	}
}

func (c *Canvas) Width() float64  { return c.width }
func (c *Canvas) Height() float64 { return c.height }

// Disposed reports whether Dispose has been called.
func (c *Canvas) Disposed() bool { return c.disposed }

// Dispose drops every object and listener. Later mutations fail with
// ErrDisposed.
func (c *Canvas) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.listeners = nil
	c.objects = make(map[string]*core.CanvasObject)
	c.selection = nil
	c.objectCount.Store(0)
	logrus.Debug("Canvas disposed")
}

// RequestRender records one frame. The registry has no renderer of its
// own; the count feeds frame-rate sampling.
func (c *Canvas) RequestRender() {
	c.renders.Add(1)
}

func (c *Canvas) RenderCount() uint64 { return c.renders.Load() }

func (c *Canvas) ObjectCount() int { return int(c.objectCount.Load()) }

// Add inserts a copy of obj. An empty ID is replaced with a ULID and an
// empty OrderKey places the object above its siblings.
func (c *Canvas) Add(obj core.CanvasObject) (core.CanvasObject, error) {
	if c.disposed {
		return core.CanvasObject{}, ErrDisposed
	}
	if obj.ID == "" {
		obj.ID = ulid.Make().String()
	}
	if _, exists := c.objects[obj.ID]; exists {
		return core.CanvasObject{}, fmt.Errorf("%w: %s", ErrDuplicateID, obj.ID)
	}
	if obj.ParentID != "" {
		parent, ok := c.objects[obj.ParentID]
		if !ok || parent.Type != core.TypeGroup {
			return core.CanvasObject{}, fmt.Errorf("%w: %s", ErrInvalidParent, obj.ParentID)
		}
	}
	if obj.OrderKey == "" {
		key, err := KeyBetween(c.topKey(obj.ParentID, ""), "")
		if err != nil {
			return core.CanvasObject{}, err
		}
		obj.OrderKey = key
	} else if err := c.checkKey(obj.ParentID, obj.ID, obj.OrderKey); err != nil {
		return core.CanvasObject{}, err
	}
	if obj.ScaleX == 0 {
		obj.ScaleX = 1
	}
	if obj.ScaleY == 0 {
		obj.ScaleY = 1
	}
	if obj.CreatedAt.IsZero() {
		obj.CreatedAt = c.now()
	}

	stored := obj
	c.objects[obj.ID] = &stored
	c.objectCount.Add(1)

	logrus.WithFields(logrus.Fields{"object_id": obj.ID, "type": obj.Type}).Debug("Object added")
	c.RequestRender()
	c.fire(Event{Type: ObjectAdded, ObjectID: obj.ID})
	return stored, nil
}

// Load adds objects in any order, inserting parents before children.
func (c *Canvas) Load(objects []core.CanvasObject) error {
	pending := make([]core.CanvasObject, len(objects))
	copy(pending, objects)
	for len(pending) > 0 {
		var deferred []core.CanvasObject
		for _, obj := range pending {
			if obj.ParentID != "" {
				if _, ok := c.objects[obj.ParentID]; !ok {
					deferred = append(deferred, obj)
					continue
				}
			}
			if _, err := c.Add(obj); err != nil {
				return err
			}
		}
		if len(deferred) == len(pending) {
			return fmt.Errorf("%w: %s", ErrInvalidParent, deferred[0].ParentID)
		}
		pending = deferred
	}
	return nil
}

// Object returns a copy of the object with the given id.
func (c *Canvas) Object(id string) (core.CanvasObject, error) {
	obj, ok := c.objects[id]
	if !ok {
		return core.CanvasObject{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *obj, nil
}

func (c *Canvas) Has(id string) bool {
	_, ok := c.objects[id]
	return ok
}

// Objects returns copies of every object in render order: siblings by
// ascending order key, each group immediately followed by its subtree.
func (c *Canvas) Objects() []core.CanvasObject {
	byParent := c.childIndex()
	out := make([]core.CanvasObject, 0, len(c.objects))
	var walk func(parentID string)
	walk = func(parentID string) {
		for _, obj := range byParent[parentID] {
			out = append(out, *obj)
			walk(obj.ID)
		}
	}
	walk("")
	return out
}

// Children returns copies of the direct children of parentID ("" for the
// top level) by ascending order key.
func (c *Canvas) Children(parentID string) []core.CanvasObject {
	kids := c.siblings(parentID)
	out := make([]core.CanvasObject, len(kids))
	for i, k := range kids {
		out[i] = *k
	}
	return out
}

// Descendants returns the ids of every object below id.
func (c *Canvas) Descendants(id string) []string {
	byParent := c.childIndex()
	var ids []string
	var walk func(parentID string)
	walk = func(parentID string) {
		for _, obj := range byParent[parentID] {
			ids = append(ids, obj.ID)
			walk(obj.ID)
		}
	}
	walk(id)
	return ids
}

// Update mutates an object in place and fires ObjectModified. Identity and
// structure (ID, Type, ParentID, OrderKey) cannot be changed through Update.
func (c *Canvas) Update(id string, fn func(obj *core.CanvasObject)) error {
	if c.disposed {
		return ErrDisposed
	}
	obj, ok := c.objects[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	keepID, keepType, keepParent, keepKey := obj.ID, obj.Type, obj.ParentID, obj.OrderKey
	fn(obj)
	obj.ID, obj.Type, obj.ParentID, obj.OrderKey = keepID, keepType, keepParent, keepKey

	c.RequestRender()
	c.fire(Event{Type: ObjectModified, ObjectID: id})
	return nil
}

// Remove deletes an object and its whole subtree.
func (c *Canvas) Remove(id string) error {
	if c.disposed {
		return ErrDisposed
	}
	if _, ok := c.objects[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	ids := append(c.Descendants(id), id)
	for _, rid := range ids {
		delete(c.objects, rid)
		c.objectCount.Add(-1)
	}
	c.dropFromSelection(ids...)

	logrus.WithFields(logrus.Fields{"object_id": id, "removed": len(ids)}).Debug("Object removed")
	c.RequestRender()
	for _, rid := range ids {
		c.fire(Event{Type: ObjectRemoved, ObjectID: rid})
	}
	return nil
}

func (c *Canvas) childIndex() map[string][]*core.CanvasObject {
	byParent := make(map[string][]*core.CanvasObject)
	for _, obj := range c.objects {
		byParent[obj.ParentID] = append(byParent[obj.ParentID], obj)
	}
	for _, kids := range byParent {
		sortByKey(kids)
	}
	return byParent
}

func (c *Canvas) siblings(parentID string) []*core.CanvasObject {
	var kids []*core.CanvasObject
	for _, obj := range c.objects {
		if obj.ParentID == parentID {
			kids = append(kids, obj)
		}
	}
	sortByKey(kids)
	return kids
}

func sortByKey(objs []*core.CanvasObject) {
	sort.Slice(objs, func(i, j int) bool {
		if objs[i].OrderKey == objs[j].OrderKey {
			return objs[i].ID < objs[j].ID
		}
		return objs[i].OrderKey < objs[j].OrderKey
	})
}

// topKey returns the highest sibling key under parentID, ignoring exclude.
func (c *Canvas) topKey(parentID, exclude string) string {
	top := ""
	for _, obj := range c.objects {
		if obj.ParentID == parentID && obj.ID != exclude && obj.OrderKey > top {
			top = obj.OrderKey
		}
	}
	return top
}

// bottomKey returns the lowest sibling key under parentID, ignoring exclude.
func (c *Canvas) bottomKey(parentID, exclude string) string {
	bottom := ""
	for _, obj := range c.objects {
		if obj.ParentID == parentID && obj.ID != exclude && (bottom == "" || obj.OrderKey < bottom) {
			bottom = obj.OrderKey
		}
	}
	return bottom
}

func (c *Canvas) checkKey(parentID, id, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	for _, obj := range c.objects {
		if obj.ParentID == parentID && obj.ID != id && obj.OrderKey == key {
			return fmt.Errorf("%w: %q already used by %s", ErrInvalidKey, key, obj.ID)
		}
	}
	return nil
}
