package transform

import "wireframe-canvas/core"

// HistoryLimit caps both the undo and the redo stack of one object.
const HistoryLimit = 30

// Entry is one committed transformation: the geometry before and after.
type Entry struct {
	Kind   Kind                        `json:"kind"`
	Before core.TransformationSnapshot `json:"before"`
	After  core.TransformationSnapshot `json:"after"`
}

// History holds the bounded undo (past) and redo (future) stacks of one
// object. Pushing onto a full stack evicts its oldest entry.
type History struct {
	past   []Entry
	future []Entry
}

// Commit records a fresh transformation and invalidates redo.
func (h *History) Commit(e Entry) {
	h.past = pushBounded(h.past, e)
	h.future = nil
}

func (h *History) Past() int   { return len(h.past) }
func (h *History) Future() int { return len(h.future) }

func (h *History) popPast() (Entry, bool) {
	if len(h.past) == 0 {
		return Entry{}, false
	}
	e := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	return e, true
}

func (h *History) popFuture() (Entry, bool) {
	if len(h.future) == 0 {
		return Entry{}, false
	}
	e := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	return e, true
}

func (h *History) pushPast(e Entry)   { h.past = pushBounded(h.past, e) }
func (h *History) pushFuture(e Entry) { h.future = pushBounded(h.future, e) }

func pushBounded(stack []Entry, e Entry) []Entry {
	stack = append(stack, e)
	if len(stack) > HistoryLimit {
		stack = append(stack[:0:0], stack[len(stack)-HistoryLimit:]...)
	}
	return stack
}
