package transform

import (
	"fmt"

	"wireframe-canvas/core"
	"wireframe-canvas/events"

	"github.com/sirupsen/logrus"
)

// Undo reverts the last committed transformation of the active object.
func (e *Engine) Undo() (core.TransformationSnapshot, error) {
	if e.active == "" {
		return core.TransformationSnapshot{}, ErrNoActiveObject
	}
	return e.UndoObject(e.active)
}

// Redo re-applies the last undone transformation of the active object.
func (e *Engine) Redo() (core.TransformationSnapshot, error) {
	if e.active == "" {
		return core.TransformationSnapshot{}, ErrNoActiveObject
	}
	return e.RedoObject(e.active)
}

// UndoObject applies the before-geometry of id's last entry and moves the
// entry, holding the pre-undo geometry, onto the redo stack.
func (e *Engine) UndoObject(id string) (core.TransformationSnapshot, error) {
	if e.session != nil {
		return core.TransformationSnapshot{}, ErrTransformationInProgress
	}
	h, ok := e.histories[id]
	if !ok || h.Past() == 0 {
		return core.TransformationSnapshot{}, ErrNothingToUndo
	}
	entry, _ := h.popPast()
	current, err := e.restore(id, entry.Before)
	if err != nil {
		h.pushPast(entry)
		return core.TransformationSnapshot{}, err
	}
	h.pushFuture(Entry{Kind: entry.Kind, Before: entry.Before, After: current})
	e.active = id

	logrus.WithFields(logrus.Fields{"object_id": id, "kind": entry.Kind}).Debug("Transformation undone")
	return entry.Before, nil
}

// RedoObject is the mirror of UndoObject.
func (e *Engine) RedoObject(id string) (core.TransformationSnapshot, error) {
	if e.session != nil {
		return core.TransformationSnapshot{}, ErrTransformationInProgress
	}
	h, ok := e.histories[id]
	if !ok || h.Future() == 0 {
		return core.TransformationSnapshot{}, ErrNothingToRedo
	}
	entry, _ := h.popFuture()
	current, err := e.restore(id, entry.After)
	if err != nil {
		h.pushFuture(entry)
		return core.TransformationSnapshot{}, err
	}
	h.pushPast(Entry{Kind: entry.Kind, Before: current, After: entry.After})
	e.active = id

	logrus.WithFields(logrus.Fields{"object_id": id, "kind": entry.Kind}).Debug("Transformation redone")
	return entry.After, nil
}

// restore applies snap to id and returns the geometry it replaced. Group
// descendants follow position changes.
func (e *Engine) restore(id string, snap core.TransformationSnapshot) (core.TransformationSnapshot, error) {
	obj, err := e.canvas.Object(id)
	if err != nil {
		return core.TransformationSnapshot{}, err
	}
	previous := obj.Snapshot()
	if err := e.canvas.Update(id, func(o *core.CanvasObject) { o.Apply(snap) }); err != nil {
		return core.TransformationSnapshot{}, err
	}
	if obj.Type == core.TypeGroup && snap.Position != nil {
		dx, dy := snap.Position.X-obj.Left, snap.Position.Y-obj.Top
		if err := e.canvas.TranslateDescendants(id, dx, dy); err != nil {
			return core.TransformationSnapshot{}, err
		}
	}
	return previous, nil
}

type QuickAction string

const (
	BringToFront QuickAction = "bring-to-front"
	SendToBack   QuickAction = "send-to-back"
	Duplicate    QuickAction = "duplicate"
	Delete       QuickAction = "delete"
)

// DuplicateOffset is added to both coordinates of a duplicate.
const DuplicateOffset = 20.0

// ApplyQuickAction runs a one-shot action on an object. For Duplicate it
// returns the id of the copy; otherwise id.
func (e *Engine) ApplyQuickAction(id string, action QuickAction) (string, error) {
	log := logrus.WithFields(logrus.Fields{"object_id": id, "action": action})

	switch action {
	case BringToFront:
		if err := e.canvas.BringToFront(id); err != nil {
			return "", err
		}
	case SendToBack:
		if err := e.canvas.SendToBack(id); err != nil {
			return "", err
		}
	case Duplicate:
		dup, err := DuplicateObject(e.canvas, e.now, id)
		if err != nil {
			return "", err
		}
		if err := e.canvas.SetActiveSelection(dup.ID); err != nil {
			return "", err
		}
		e.publish(events.ObjectDuplicated{OriginalID: id, NewID: dup.ID, Object: dup})
		log.WithField("copy_id", dup.ID).Debug("Quick action applied")
		return dup.ID, nil
	case Delete:
		if err := e.canvas.Remove(id); err != nil {
			return "", err
		}
		e.publish(events.ObjectDeleted{ID: id})
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	log.Debug("Quick action applied")
	return id, nil
}
