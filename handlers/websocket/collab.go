// Package websocket runs the socket.io collaboration rooms. A room is named
// after the canvas id; clients in it receive peer broadcasts, review
// annotations and the editor events of that canvas.
package websocket

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"wireframe-canvas/core"
	"wireframe-canvas/events"
	"wireframe-canvas/shell"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/engine.io/v2/utils"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

const maxAnnotationLength = 2000

type Hub struct {
	srv         *socketio.Server
	annotations *annotationLog
	now         func() time.Time

	mu    sync.RWMutex
	rooms map[string]int
}

// NewHub creates the socket.io server and registers the room protocol.
func NewHub() *Hub {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	opts.SetCors(&types.Cors{
		Origin:      []any{"tauri://localhost", localhostOrigin},
		Credentials: true,
	})

	h := &Hub{
		srv:         socketio.NewServer(nil, opts),
		annotations: newAnnotationLog(),
		now:         time.Now,
		rooms:       make(map[string]int),
	}
	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	h.srv.On("connection", func(clients ...any) {
		if socket, ok := clients[0].(*socketio.Socket); ok {
			h.handleConnection(socket)
		}
	})
	return h
}

func (h *Hub) Server() *socketio.Server { return h.srv }

func (h *Hub) Close() { h.srv.Close(nil) }

// ActiveRooms returns the number of connected clients per room.
func (h *Hub) ActiveRooms() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make(map[string]int, len(h.rooms))
	for k, v := range h.rooms {
		rooms[k] = v
	}
	return rooms
}

func (h *Hub) setRoomSize(roomID string, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n == 0 {
		delete(h.rooms, roomID)
		return
	}
	h.rooms[roomID] = n
}

// RelayEvent forwards an editor event to everyone in the canvas's room.
func (h *Hub) RelayEvent(canvasID string, e events.Event) {
	if err := h.srv.To(socketio.Room(canvasID)).Emit("canvas-event", map[string]any{
		"kind":  e.Kind(),
		"event": e,
	}); err != nil {
		logrus.WithFields(logrus.Fields{"canvas_id": canvasID, "kind": e.Kind(), "error": err}).Warn("Failed to relay canvas event")
	}
}

// RelayNotice forwards a shell notice to everyone in the canvas's room.
func (h *Hub) RelayNotice(canvasID string, n shell.Notice) {
	if err := h.srv.To(socketio.Room(canvasID)).Emit("canvas-notice", n); err != nil {
		logrus.WithFields(logrus.Fields{"canvas_id": canvasID, "error": err}).Warn("Failed to relay canvas notice")
	}
}

func (h *Hub) handleConnection(socket *socketio.Socket) {
	me := socket.Id()
	myRoom := socketio.Room(me)
	_ = h.srv.To(myRoom).Emit("init-room")
	utils.Log().Printf("init room %v\n", myRoom)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("join-room", func(datas ...any) {
		h.handleJoin(socket, datas)
	})

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("server-broadcast", func(datas ...any) {
		handleBroadcast(socket, datas, false)
	})

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("server-volatile-broadcast", func(datas ...any) {
		handleBroadcast(socket, datas, true)
	})

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("annotation:add", func(datas ...any) {
		h.handleAddAnnotation(socket, datas)
	})

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("annotation:list", func(datas ...any) {
		ack, args := extractAck(datas)
		roomID, err := roomArg(args)
		if err != nil {
			respond(socket, ack, "annotation:list", errorPayload(err), err)
			return
		}
		respond(socket, ack, "annotation:list", map[string]any{
			"status":      "ok",
			"roomId":      roomID,
			"annotations": h.annotations.list(roomID),
		}, nil)
	})

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("disconnecting", func(datas ...any) {
		h.handleLeave(socket)
	})

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("disconnect", func(datas ...any) {
		socket.RemoveAllListeners("")
		socket.Disconnect(true)
	})
}

func roomArg(args []any) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("room id is required")
	}
	roomID, ok := args[0].(string)
	if !ok || roomID == "" {
		return "", fmt.Errorf("invalid room id")
	}
	return roomID, nil
}

func (h *Hub) handleJoin(socket *socketio.Socket, datas []any) {
	me := socket.Id()
	ack, args := extractAck(datas)
	roomID, err := roomArg(args)
	if err != nil {
		respond(socket, ack, "join-room-ack", errorPayload(err), err)
		return
	}

	room := socketio.Room(roomID)
	socket.Join(room)
	utils.Log().Printf("Socket %v has joined %v\n", me, room)

	h.srv.In(room).FetchSockets()(func(users []*socketio.RemoteSocket, fetchErr error) {
		if fetchErr != nil {
			respond(socket, ack, "join-room-ack", errorPayload(fetchErr), fetchErr)
			return
		}
		h.setRoomSize(roomID, len(users))

		if len(users) <= 1 {
			_ = h.srv.To(socketio.Room(me)).Emit("first-in-room")
		} else {
			utils.Log().Printf("emit new user %v in room %v\n", me, room)
			_ = socket.Broadcast().To(room).Emit("new-user", me)
		}

		ids := make([]socketio.SocketId, 0, len(users))
		for _, user := range users {
			ids = append(ids, user.Id())
		}
		_ = h.srv.In(room).Emit("room-user-change", ids)

		respond(socket, ack, "join-room-ack", map[string]any{
			"status":     "ok",
			"user_count": len(users),
		}, nil)
	})
}

// handleLeave updates every room the socket is in. The last one out takes
// the room's annotations with it.
func (h *Hub) handleLeave(socket *socketio.Socket) {
	me := socket.Id()
	for _, current := range socket.Rooms().Keys() {
		if current == socketio.Room(me) {
			continue
		}
		current := current
		roomID := string(current)
		h.srv.In(current).FetchSockets()(func(users []*socketio.RemoteSocket, _ error) {
			others := make([]socketio.SocketId, 0, len(users))
			for _, user := range users {
				if user.Id() != me {
					others = append(others, user.Id())
				}
			}
			h.setRoomSize(roomID, len(others))

			if len(others) == 0 {
				h.annotations.clear(roomID)
				return
			}
			utils.Log().Printf("leaving user, room %v has users  %v\n", current, others)
			_ = h.srv.In(current).Emit("room-user-change", others)
		})
	}
}

type annotationRequest struct {
	ObjectID string      `json:"objectId"`
	Position *core.Point `json:"position"`
	Text     string      `json:"text"`
}

// handleAddAnnotation takes (roomID, {text, objectId?, position?}) and
// sends the stored annotation to the whole room, sender included.
func (h *Hub) handleAddAnnotation(socket *socketio.Socket, datas []any) {
	ack, args := extractAck(datas)
	roomID, err := roomArg(args)
	if err == nil && len(args) < 2 {
		err = fmt.Errorf("annotation is required")
	}
	var req annotationRequest
	if err == nil {
		err = decodeArg(args[1], &req)
	}
	if err == nil {
		req.Text = strings.TrimSpace(req.Text)
		switch {
		case req.Text == "":
			err = fmt.Errorf("annotation text is required")
		case len(req.Text) > maxAnnotationLength:
			err = fmt.Errorf("annotation text exceeds %d bytes", maxAnnotationLength)
		}
	}
	if err != nil {
		respond(socket, ack, "annotation:ack", errorPayload(err), err)
		return
	}

	a := Annotation{
		ID:        ulid.Make().String(),
		RoomID:    roomID,
		Author:    string(socket.Id()),
		ObjectID:  req.ObjectID,
		Position:  req.Position,
		Text:      req.Text,
		Timestamp: h.now().UnixMilli(),
	}
	h.annotations.add(roomID, a)
	logrus.WithFields(logrus.Fields{"canvas_id": roomID, "annotation_id": a.ID}).Debug("Annotation added")

	_ = h.srv.In(socketio.Room(roomID)).Emit("annotation:added", a)
	respond(socket, ack, "annotation:ack", map[string]any{"status": "ok", "id": a.ID}, nil)
}

// decodeArg converts a decoded socket.io argument into v.
func decodeArg(arg any, v any) error {
	raw, err := json.Marshal(arg)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func handleBroadcast(socket *socketio.Socket, datas []any, volatile bool) {
	roomID, payload, metadata, ack := parseBroadcastArgs(datas)
	if roomID == "" {
		err := fmt.Errorf("missing room id")
		respond(socket, ack, "broadcast-ack", makeBroadcastAckPayload(payload, err), err)
		return
	}

	utils.Log().Printf(" user %v sends update to room %v\n", socket.Id(), roomID)

	var emitErr error
	if volatile {
		emitErr = socket.Volatile().Broadcast().To(socketio.Room(roomID)).Emit("client-broadcast", payload, metadata)
	} else {
		emitErr = socket.Broadcast().To(socketio.Room(roomID)).Emit("client-broadcast", payload, metadata)
	}
	respond(socket, ack, "broadcast-ack", makeBroadcastAckPayload(payload, emitErr), emitErr)
}

func parseBroadcastArgs(datas []any) (roomID string, payload, metadata any, ack ackInvoker) {
	ack, args := extractAck(datas)
	if len(args) < 3 {
		return "", nil, nil, ack
	}
	roomID, _ = args[0].(string)
	return roomID, args[1], args[2], ack
}

func makeBroadcastAckPayload(original any, ackErr error) map[string]any {
	response := map[string]any{"status": "ok"}
	if ackErr != nil {
		response = errorPayload(ackErr)
	}
	if value, ok := original.(map[string]any); ok {
		if id, ok := value["__collabMessageId"].(string); ok && id != "" {
			response["messageId"] = id
		}
	}
	return response
}
