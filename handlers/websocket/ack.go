package websocket

import (
	"fmt"
	"reflect"

	socketio "github.com/zishang520/socket.io/v2/socket"
)

// ackInvoker calls a client acknowledgement with an error and a payload.
type ackInvoker func(err error, payload map[string]any)

// extractAck splits a trailing acknowledgement callback off the event
// arguments.
func extractAck(datas []any) (ack ackInvoker, args []any) {
	if len(datas) == 0 {
		return nil, datas
	}
	if ack = wrapAck(datas[len(datas)-1]); ack == nil {
		return nil, datas
	}
	return ack, datas[:len(datas)-1]
}

// wrapAck adapts a callback of any signature. One parameter receives the
// error or, on success, the payload; two receive both.
func wrapAck(candidate any) ackInvoker {
	value := reflect.ValueOf(candidate)
	if !value.IsValid() || value.Kind() != reflect.Func {
		return nil
	}
	typ := value.Type()
	return func(err error, payload map[string]any) {
		args := make([]reflect.Value, typ.NumIn())
		for i := range args {
			var v any
			switch {
			case len(args) == 1 && err != nil:
				v = err
			case len(args) == 1, i == 1:
				v = payload
			case i == 0:
				v = err
			}
			args[i] = coerce(v, typ.In(i))
		}
		value.Call(args)
	}
}

func coerce(v any, target reflect.Type) reflect.Value {
	if v == nil {
		return reflect.Zero(target)
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(target):
		return rv
	case rv.Type().ConvertibleTo(target):
		return rv.Convert(target)
	case target.Kind() == reflect.Interface && target.NumMethod() == 0:
		return rv
	case target.Kind() == reflect.String:
		return reflect.ValueOf(fmt.Sprint(v)).Convert(target)
	case target.Kind() == reflect.Map && target.Key().Kind() == reflect.String:
		if m, ok := v.(map[string]any); ok {
			out := reflect.MakeMapWithSize(target, len(m))
			for key, val := range m {
				ev := reflect.ValueOf(val)
				if !ev.IsValid() {
					continue
				}
				if !ev.Type().AssignableTo(target.Elem()) {
					if !ev.Type().ConvertibleTo(target.Elem()) {
						continue
					}
					ev = ev.Convert(target.Elem())
				}
				out.SetMapIndex(reflect.ValueOf(key).Convert(target.Key()), ev)
			}
			return out
		}
	}
	return reflect.Zero(target)
}

// respond acknowledges the client and also emits event to it, for clients
// that do not pass a callback.
func respond(socket *socketio.Socket, ack ackInvoker, event string, payload map[string]any, ackErr error) {
	if ack != nil {
		ack(ackErr, payload)
	}
	if event != "" && payload != nil {
		_ = socket.Emit(event, payload)
	}
}

func errorPayload(err error) map[string]any {
	return map[string]any{"status": "error", "error": err.Error()}
}
