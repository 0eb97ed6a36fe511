package websocket

import (
	"fmt"
	"sync"
	"testing"

	"wireframe-canvas/core"

	"github.com/google/go-cmp/cmp"
)

func TestAnnotationLog_Add(t *testing.T) {
	log := newAnnotationLog()
	a := Annotation{
		ID:        "a-1",
		RoomID:    "room-1",
		Author:    "user-1",
		ObjectID:  "rect-1",
		Position:  &core.Point{X: 10, Y: 20},
		Text:      "Move this up",
		Timestamp: 1234567890,
	}
	log.add("room-1", a)

	if diff := cmp.Diff([]Annotation{a}, log.list("room-1")); diff != "" {
		t.Errorf("list() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnotationLog_KeepsNewest(t *testing.T) {
	log := newAnnotationLog()
	for i := 0; i < maxAnnotationsPerRoom+100; i++ {
		log.add("room-1", Annotation{ID: fmt.Sprint(i), Timestamp: int64(i)})
	}

	got := log.list("room-1")
	if len(got) != maxAnnotationsPerRoom {
		t.Fatalf("list() returned %d annotations, want %d", len(got), maxAnnotationsPerRoom)
	}
	if got[0].ID != "100" {
		t.Errorf("oldest kept annotation = %s, want 100", got[0].ID)
	}
	if last := got[len(got)-1].ID; last != fmt.Sprint(maxAnnotationsPerRoom+99) {
		t.Errorf("newest annotation = %s", last)
	}
}

func TestAnnotationLog_EmptyRoom(t *testing.T) {
	got := newAnnotationLog().list("nobody-here")
	if got == nil || len(got) != 0 {
		t.Errorf("list() = %#v, want an empty non-nil slice", got)
	}
}

func TestAnnotationLog_ListIsACopy(t *testing.T) {
	log := newAnnotationLog()
	log.add("room-1", Annotation{ID: "a-1", Text: "original"})

	got := log.list("room-1")
	got[0].Text = "changed"
	if again := log.list("room-1"); again[0].Text != "original" {
		t.Errorf("mutating list() result changed the log: %q", again[0].Text)
	}
}

func TestAnnotationLog_ClearAndRooms(t *testing.T) {
	log := newAnnotationLog()
	log.add("room-1", Annotation{ID: "a-1"})
	log.add("room-2", Annotation{ID: "b-1"})
	log.add("room-2", Annotation{ID: "b-2"})

	if n := len(log.list("room-1")); n != 1 {
		t.Errorf("room-1 has %d annotations, want 1", n)
	}
	if n := len(log.list("room-2")); n != 2 {
		t.Errorf("room-2 has %d annotations, want 2", n)
	}

	log.clear("room-2")
	if n := len(log.list("room-2")); n != 0 {
		t.Errorf("room-2 has %d annotations after clear, want 0", n)
	}
	if n := len(log.list("room-1")); n != 1 {
		t.Errorf("clear() touched another room: room-1 has %d", n)
	}
}

func TestAnnotationLog_Concurrency(t *testing.T) {
	log := newAnnotationLog()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				log.add("room-1", Annotation{ID: fmt.Sprintf("%d-%d", n, j)})
				_ = log.list("room-1")
			}
		}(i)
	}
	wg.Wait()

	if n := len(log.list("room-1")); n != 200 {
		t.Errorf("list() returned %d annotations, want 200", n)
	}
}
