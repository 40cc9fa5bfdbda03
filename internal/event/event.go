package event

import "encoding/json"

// Client to server events
const (
	EventSendMessage        = "send_message"
	EventTyping             = "typing"
	EventJoinRoom           = "join_room"
	EventLeaveRoom          = "leave_room"
	EventUpdateAvailability = "update_availability"
)

// Events flowing in both directions: clients report delivery/read of a
// message, the server pushes the matching receipt back to the sender.
const (
	EventMessageDelivered = "message_delivered"
	EventMessageRead      = "message_read"
)

// Server to client events
const (
	EventNewMessage            = "new_message"
	EventNewGroupMessage       = "new_group_message"
	EventGroupMessageDelivered = "group_message_delivered"
	EventTypingStatus          = "typing_status"
	EventUserOnline            = "user_online"
	EventAvailabilityUpdate    = "user_availability_update"
	EventError                 = "error"
)

// Chat types carried by send_message
const (
	ChatTypePrivate = "private"
	ChatTypeGroup   = "group"
)

// WsEvent is the envelope for every frame crossing a channel, in both
// directions. The payload stays raw until the event name selects its type.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// New builds an envelope around a payload struct. Marshal cannot fail for
// the fixed payload types in this package.
func New(name string, payload interface{}) WsEvent {
	data, _ := json.Marshal(payload)
	return WsEvent{Event: name, Payload: data}
}
