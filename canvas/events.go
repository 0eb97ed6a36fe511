package canvas

// EventType names a canvas mutation event.
type EventType string

const (
	ObjectAdded       EventType = "object:added"
	ObjectRemoved     EventType = "object:removed"
	ObjectModified    EventType = "object:modified"
	SelectionCreated  EventType = "selection:created"
	SelectionUpdated  EventType = "selection:updated"
	SelectionCleared  EventType = "selection:cleared"
	VisibilityChanged EventType = "object:visibility:changed"
)

// Event is delivered synchronously to every listener after a mutation.
type Event struct {
	Type     EventType
	ObjectID string
	Selected []string
}

// Listener receives canvas events.
type Listener func(Event)

type listenerEntry struct {
	id int
	fn Listener
}

// On registers a listener and returns a function that removes it.
func (c *Canvas) On(fn Listener) (off func()) {
	c.nextListener++
	id := c.nextListener
	c.listeners = append(c.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

// Notify fires a custom event, e.g. VisibilityChanged after a batch.
func (c *Canvas) Notify(e Event) {
	c.fire(e)
}

func (c *Canvas) fire(e Event) {
	if c.disposed {
		return
	}
	// Listeners may register or remove listeners while being called.
	snapshot := make([]listenerEntry, len(c.listeners))
	copy(snapshot, c.listeners)
	for _, l := range snapshot {
		l.fn(e)
	}
}
