// Package events carries editor notifications to external listeners such as
// autosave and collaboration relays. The set of events is closed.
package events

import (
	"sync"

	"wireframe-canvas/core"
)

type Kind string

const (
	KindObjectTransformed Kind = "object:transformed"
	KindObjectDuplicated  Kind = "object:duplicated"
	KindObjectDeleted     Kind = "object:deleted"
)

// Event is implemented only by the types in this package.
type Event interface {
	Kind() Kind
	event()
}

type (
	ObjectTransformed struct {
		ID         string     `json:"id"`
		Type       string     `json:"type"`
		Position   core.Point `json:"position"`
		Dimensions core.Size  `json:"dimensions"`
		Rotation   float64    `json:"rotation"`
		Skew       core.Skew  `json:"skew"`
	}

	ObjectDuplicated struct {
		OriginalID string            `json:"originalId"`
		NewID      string            `json:"newId"`
		Object     core.CanvasObject `json:"object"`
	}

	ObjectDeleted struct {
		ID string `json:"id"`
	}
)

func (ObjectTransformed) Kind() Kind { return KindObjectTransformed }
func (ObjectDuplicated) Kind() Kind  { return KindObjectDuplicated }
func (ObjectDeleted) Kind() Kind     { return KindObjectDeleted }

func (ObjectTransformed) event() {}
func (ObjectDuplicated) event()  {}
func (ObjectDeleted) event()     {}

// Handler receives published events.
type Handler func(Event)

// Bus is a synchronous publish/subscribe channel. Handlers run on the
// publisher's goroutine in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers []subscription
	next     int
}

type subscription struct {
	id int
	fn Handler
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.next++
	id := b.next
	b.handlers = append(b.handlers, subscription{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.handlers {
				if s.id == id {
					b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
					return
				}
			}
		})
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]subscription, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, s := range handlers {
		s.fn(e)
	}
}
