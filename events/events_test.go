package events

import (
	"sync"
	"testing"
)

func TestBus_PublishOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(func(e Event) { got = append(got, "first:"+string(e.Kind())) })
	bus.Subscribe(func(e Event) { got = append(got, "second:"+string(e.Kind())) })

	bus.Publish(ObjectDeleted{ID: "a"})

	want := []string{"first:object:deleted", "second:object:deleted"}
	if len(got) != len(want) {
		t.Fatalf("got %d deliveries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("delivery %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	count := 0
	off := bus.Subscribe(func(Event) { count++ })

	bus.Publish(ObjectDeleted{ID: "a"})
	off()
	off()
	bus.Publish(ObjectDeleted{ID: "b"})

	if count != 1 {
		t.Errorf("handler called %d times, want 1", count)
	}
}

func TestBus_TypedPayload(t *testing.T) {
	bus := NewBus()
	var received Event
	bus.Subscribe(func(e Event) { received = e })

	bus.Publish(ObjectDuplicated{OriginalID: "rect-1", NewID: "rect-1-copy-1"})

	dup, ok := received.(ObjectDuplicated)
	if !ok {
		t.Fatalf("received %T, want ObjectDuplicated", received)
	}
	if dup.NewID != "rect-1-copy-1" {
		t.Errorf("NewID = %q", dup.NewID)
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	count := 0
	bus.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(ObjectDeleted{ID: "x"})
		}()
	}
	wg.Wait()

	if count != 20 {
		t.Errorf("count = %d, want 20", count)
	}
}
