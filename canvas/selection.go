package canvas

import "fmt"

// ActiveSelection returns the ids of the selected objects.
func (c *Canvas) ActiveSelection() []string {
	out := make([]string, len(c.selection))
	copy(out, c.selection)
	return out
}

// IsSelected reports whether id is part of the active selection.
func (c *Canvas) IsSelected(id string) bool {
	for _, s := range c.selection {
		if s == id {
			return true
		}
	}
	return false
}

// SetActiveSelection replaces the whole selection. The selection cannot be
// edited incrementally; callers build the new set and replace it.
func (c *Canvas) SetActiveSelection(ids ...string) error {
	if c.disposed {
		return ErrDisposed
	}
	seen := make(map[string]bool, len(ids))
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := c.objects[id]; !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		next = append(next, id)
	}
	c.replaceSelection(next)
	return nil
}

// DiscardActiveSelection clears the selection.
func (c *Canvas) DiscardActiveSelection() {
	if c.disposed {
		return
	}
	c.replaceSelection(nil)
}

func (c *Canvas) dropFromSelection(ids ...string) {
	if len(c.selection) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	next := make([]string, 0, len(c.selection))
	for _, s := range c.selection {
		if !drop[s] {
			next = append(next, s)
		}
	}
	if len(next) != len(c.selection) {
		c.replaceSelection(next)
	}
}

func (c *Canvas) replaceSelection(next []string) {
	prev := c.selection
	if equalIDs(prev, next) {
		return
	}
	c.selection = next

	var typ EventType
	switch {
	case len(next) == 0:
		typ = SelectionCleared
	case len(prev) == 0:
		typ = SelectionCreated
	default:
		typ = SelectionUpdated
	}
	c.RequestRender()
	c.fire(Event{Type: typ, Selected: c.ActiveSelection()})
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
