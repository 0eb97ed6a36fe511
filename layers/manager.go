// Package layers keeps a tree projection of a canvas and mediates the
// structural edits made through it: selection, visibility, locking, order,
// grouping, renaming, duplication and deletion.
//
// The tree is rebuilt from the canvas after every canvas event and is never
// edited directly.
package layers

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"wireframe-canvas/canvas"
	"wireframe-canvas/core"
	"wireframe-canvas/events"
	"wireframe-canvas/transform"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound      = canvas.ErrNotFound
	ErrNotGroup      = canvas.ErrNotGroup
	ErrMixedParents  = canvas.ErrMixedParents
	ErrGroupTooSmall = errors.New("grouping needs at least two layers")
)

const minGroupSize = 2

type Options struct {
	// PersistSelection keeps the last non-empty selection in the tree when
	// the canvas selection is cleared.
	PersistSelection bool
}

// Reorder describes a drag-and-drop move: Index is the destination
// position among the layer's siblings in display order (top first).
type Reorder struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
}

type Manager struct {
	canvas *canvas.Canvas
	bus    *events.Bus
	opts   Options
	now    func() time.Time

	tree      []core.LayerItem
	selected  map[string]bool
	collapsed map[string]bool

	// processing suppresses selection sync while a batch of canvas
	// mutations is in flight.
	processing bool
	off        func()
}

// New attaches a manager to c and builds the initial tree. bus may be nil.
func New(c *canvas.Canvas, bus *events.Bus, opts Options) *Manager {
	m := &Manager{
		canvas:    c,
		bus:       bus,
		opts:      opts,
		now:       time.Now,
		selected:  make(map[string]bool),
		collapsed: make(map[string]bool),
	}
	m.off = c.On(m.handleCanvasEvent)
	m.UpdateLayersList()
	return m
}

// Close detaches the manager from the canvas. The last tree stays readable.
func (m *Manager) Close() {
	if m.off != nil {
		m.off()
		m.off = nil
	}
}

func (m *Manager) handleCanvasEvent(e canvas.Event) {
	switch e.Type {
	case canvas.ObjectAdded, canvas.ObjectRemoved, canvas.ObjectModified,
		canvas.SelectionCreated, canvas.SelectionUpdated, canvas.SelectionCleared,
		canvas.VisibilityChanged:
		m.UpdateLayersList()
	}
}

// Layers returns a copy of the current tree, top-most layer first.
func (m *Manager) Layers() []core.LayerItem {
	return cloneItems(m.tree)
}

// Find returns the layer with the given id anywhere in the tree.
func (m *Manager) Find(id string) (core.LayerItem, bool) {
	var walk func(items []core.LayerItem) (core.LayerItem, bool)
	walk = func(items []core.LayerItem) (core.LayerItem, bool) {
		for _, it := range items {
			if it.ID == id {
				it.Children = cloneItems(it.Children)
				return it, true
			}
			if found, ok := walk(it.Children); ok {
				return found, true
			}
		}
		return core.LayerItem{}, false
	}
	return walk(m.tree)
}

// UpdateLayersList rebuilds the tree from the canvas. Utility objects are
// left out. ZIndex is the object's rank in render order, so every level is
// sorted by descending ZIndex.
func (m *Manager) UpdateLayersList() {
	if m.canvas.Disposed() {
		m.tree = nil
		return
	}
	if !m.processing {
		sel := m.canvas.ActiveSelection()
		if !m.opts.PersistSelection || len(sel) > 0 {
			m.selected = toSet(sel)
		}
	}

	var content []core.CanvasObject
	for _, obj := range m.canvas.Objects() {
		if !obj.Type.IsUtility() {
			content = append(content, obj)
		}
	}

	byParent := make(map[string][]core.LayerItem)
	parents := make(map[string]string, len(content))
	for rank, obj := range content {
		isGroup := obj.Type == core.TypeGroup
		byParent[obj.ParentID] = append(byParent[obj.ParentID], core.LayerItem{
			ID:       obj.ID,
			Name:     displayName(obj),
			Type:     obj.Type,
			Visible:  obj.Visible,
			Locked:   obj.Locked(),
			Selected: m.selected[obj.ID],
			Expanded: isGroup && !m.collapsed[obj.ID],
			ZIndex:   rank,
			OrderKey: obj.OrderKey,
			IsGroup:  isGroup,
		})
		parents[obj.ID] = obj.ParentID
	}

	var build func(parentID string) []core.LayerItem
	build = func(parentID string) []core.LayerItem {
		level := byParent[parentID]
		sort.SliceStable(level, func(i, j int) bool { return level[i].ZIndex > level[j].ZIndex })
		for i := range level {
			if level[i].IsGroup {
				level[i].Children = build(level[i].ID)
			}
		}
		return level
	}
	m.tree = build("")

	for id := range m.collapsed {
		if _, ok := parents[id]; !ok {
			delete(m.collapsed, id)
		}
	}
}

// batch runs fn with selection sync suspended, then refreshes once.
func (m *Manager) batch(fn func() error) error {
	m.processing = true
	err := fn()
	m.processing = false
	m.UpdateLayersList()
	return err
}

func (m *Manager) content(id string) (core.CanvasObject, error) {
	obj, err := m.canvas.Object(id)
	if err != nil {
		return core.CanvasObject{}, err
	}
	if obj.Type.IsUtility() {
		return core.CanvasObject{}, fmt.Errorf("%w: %s is not a layer", ErrNotFound, id)
	}
	return obj, nil
}

// SelectLayer makes id the selection, or with multi toggles it in and out
// of the current selection.
func (m *Manager) SelectLayer(id string, multi bool) error {
	if _, err := m.content(id); err != nil {
		return err
	}
	next := []string{id}
	if multi {
		next = nil
		found := false
		for _, s := range m.canvas.ActiveSelection() {
			if s == id {
				found = true
				continue
			}
			next = append(next, s)
		}
		if !found {
			next = append(next, id)
		}
	}

	return m.batch(func() error {
		m.selected = toSet(next)
		if len(next) == 0 {
			m.canvas.DiscardActiveSelection()
			return nil
		}
		return m.canvas.SetActiveSelection(next...)
	})
}

// ToggleLayerVisibility flips the layer's visibility and gives every
// descendant the same value. It returns the new value.
func (m *Manager) ToggleLayerVisibility(id string) (bool, error) {
	obj, err := m.content(id)
	if err != nil {
		return false, err
	}
	visible := !obj.Visible
	err = m.batch(func() error {
		for _, oid := range append([]string{id}, m.canvas.Descendants(id)...) {
			if err := m.canvas.Update(oid, func(o *core.CanvasObject) { o.Visible = visible }); err != nil {
				return err
			}
		}
		m.canvas.Notify(canvas.Event{Type: canvas.VisibilityChanged, ObjectID: id})
		return nil
	})
	if err != nil {
		return false, err
	}
	logrus.WithFields(logrus.Fields{"layer_id": id, "visible": visible}).Debug("Layer visibility toggled")
	return visible, nil
}

// ToggleLayerLock locks or unlocks every transformation of the layer and
// its descendants. It returns the new state.
func (m *Manager) ToggleLayerLock(id string) (bool, error) {
	obj, err := m.content(id)
	if err != nil {
		return false, err
	}
	locked := !obj.Locked()
	err = m.batch(func() error {
		for _, oid := range append([]string{id}, m.canvas.Descendants(id)...) {
			if err := m.canvas.Update(oid, func(o *core.CanvasObject) { o.SetLocked(locked) }); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	logrus.WithFields(logrus.Fields{"layer_id": id, "locked": locked}).Debug("Layer lock toggled")
	return locked, nil
}

// ReorderLayer moves a layer among its siblings. The new order key lies
// between the keys of the layers it is dropped between.
func (m *Manager) ReorderLayer(r Reorder) error {
	obj, err := m.content(r.ID)
	if err != nil {
		return err
	}

	// Display order is top first: descending order key.
	var display []core.CanvasObject
	for _, sib := range m.canvas.Children(obj.ParentID) {
		if sib.ID != obj.ID && !sib.Type.IsUtility() {
			display = append([]core.CanvasObject{sib}, display...)
		}
	}
	if len(display) == 0 {
		return nil
	}
	index := r.Index
	if index < 0 {
		index = 0
	}
	if index > len(display) {
		index = len(display)
	}

	var lower, upper string
	if index < len(display) {
		below := display[index]
		lower, upper = below.OrderKey, m.canvas.KeyAbove(below.ID)
	} else {
		above := display[index-1]
		lower, upper = m.canvas.KeyBelow(above.ID), above.OrderKey
	}
	if lower == obj.OrderKey || upper == obj.OrderKey {
		// Already between the two neighbours.
		return nil
	}
	key, err := canvas.KeyBetween(lower, upper)
	if err != nil {
		return err
	}

	err = m.batch(func() error { return m.canvas.SetOrderKey(r.ID, key) })
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"layer_id": r.ID, "index": index}).Debug("Layer reordered")
	return nil
}

// GroupLayers wraps the given layers in a new group and returns its id.
// At least two distinct layers are required.
func (m *Manager) GroupLayers(ids []string, name string) (string, error) {
	ids = distinct(ids)
	if len(ids) < minGroupSize {
		return "", ErrGroupTooSmall
	}
	for _, id := range ids {
		if _, err := m.content(id); err != nil {
			return "", err
		}
	}
	if name == "" {
		name = "Group"
	}

	var group core.CanvasObject
	err := m.batch(func() error {
		var err error
		group, err = m.canvas.Group(core.CanvasObject{ID: ulid.Make().String(), Name: name}, ids)
		if err != nil {
			return err
		}
		m.selected = map[string]bool{group.ID: true}
		return m.canvas.SetActiveSelection(group.ID)
	})
	if err != nil {
		return "", err
	}
	logrus.WithFields(logrus.Fields{"group_id": group.ID, "members": len(ids)}).Info("Layers grouped")
	return group.ID, nil
}

// UngroupLayer dissolves a group, putting its children where it was. The
// children become the selection.
func (m *Manager) UngroupLayer(id string) ([]string, error) {
	if _, err := m.content(id); err != nil {
		return nil, err
	}
	var children []string
	err := m.batch(func() error {
		var err error
		if children, err = m.canvas.Ungroup(id); err != nil {
			return err
		}
		m.selected = toSet(children)
		if len(children) == 0 {
			m.canvas.DiscardActiveSelection()
			return nil
		}
		return m.canvas.SetActiveSelection(children...)
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"group_id": id, "children": len(children)}).Info("Layer ungrouped")
	return children, nil
}

func (m *Manager) RenameLayer(id, name string) error {
	if _, err := m.content(id); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	return m.batch(func() error {
		return m.canvas.Update(id, func(o *core.CanvasObject) { o.Name = name })
	})
}

// DuplicateLayer copies a layer (and its subtree), selects the copy and
// returns its id.
func (m *Manager) DuplicateLayer(id string) (string, error) {
	if _, err := m.content(id); err != nil {
		return "", err
	}
	var dup core.CanvasObject
	err := m.batch(func() error {
		var err error
		if dup, err = transform.DuplicateObject(m.canvas, m.now, id); err != nil {
			return err
		}
		m.selected = map[string]bool{dup.ID: true}
		return m.canvas.SetActiveSelection(dup.ID)
	})
	if err != nil {
		return "", err
	}
	m.publish(events.ObjectDuplicated{OriginalID: id, NewID: dup.ID, Object: dup})
	logrus.WithFields(logrus.Fields{"layer_id": id, "copy_id": dup.ID}).Info("Layer duplicated")
	return dup.ID, nil
}

// DeleteLayer removes a layer and everything below it.
func (m *Manager) DeleteLayer(id string) error {
	if _, err := m.content(id); err != nil {
		return err
	}
	err := m.batch(func() error {
		removed := append(m.canvas.Descendants(id), id)
		for _, rid := range removed {
			delete(m.selected, rid)
		}
		return m.canvas.Remove(id)
	})
	if err != nil {
		return err
	}
	m.publish(events.ObjectDeleted{ID: id})
	logrus.WithField("layer_id", id).Info("Layer deleted")
	return nil
}

// ToggleLayerExpanded flips the tree-only expanded flag of a group and
// returns the new value.
func (m *Manager) ToggleLayerExpanded(id string) (bool, error) {
	obj, err := m.content(id)
	if err != nil {
		return false, err
	}
	if obj.Type != core.TypeGroup {
		return false, fmt.Errorf("%w: %s", ErrNotGroup, id)
	}
	m.collapsed[id] = !m.collapsed[id]
	if !m.collapsed[id] {
		delete(m.collapsed, id)
	}
	m.UpdateLayersList()
	return !m.collapsed[id], nil
}

func (m *Manager) publish(e events.Event) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

func displayName(obj core.CanvasObject) string {
	if obj.Name != "" {
		return obj.Name
	}
	t := string(obj.Type)
	if t == "" {
		return "Layer"
	}
	return strings.ToUpper(t[:1]) + t[1:]
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func cloneItems(items []core.LayerItem) []core.LayerItem {
	if items == nil {
		return nil
	}
	out := make([]core.LayerItem, len(items))
	for i, it := range items {
		it.Children = cloneItems(it.Children)
		out[i] = it
	}
	return out
}

// distinct drops repeated ids, keeping first occurrences in order.
func distinct(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
