package websocket

import (
	"sync"

	"wireframe-canvas/core"
)

// maxAnnotationsPerRoom bounds each room's log; the oldest entries go first.
const maxAnnotationsPerRoom = 500

// Annotation is a review note pinned to a canvas, optionally to one object
// or point.
type Annotation struct {
	ID        string      `json:"id"`
	RoomID    string      `json:"roomId"`
	Author    string      `json:"author"`
	ObjectID  string      `json:"objectId,omitempty"`
	Position  *core.Point `json:"position,omitempty"`
	Text      string      `json:"text"`
	Timestamp int64       `json:"timestamp"`
}

type annotationLog struct {
	mu    sync.RWMutex
	rooms map[string][]Annotation
}

func newAnnotationLog() *annotationLog {
	return &annotationLog{rooms: make(map[string][]Annotation)}
}

func (l *annotationLog) add(roomID string, a Annotation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := append(l.rooms[roomID], a)
	if over := len(list) - maxAnnotationsPerRoom; over > 0 {
		list = append([]Annotation(nil), list[over:]...)
	}
	l.rooms[roomID] = list
}

func (l *annotationLog) list(roomID string) []Annotation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Annotation{}, l.rooms[roomID]...)
}

func (l *annotationLog) clear(roomID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rooms, roomID)
}
