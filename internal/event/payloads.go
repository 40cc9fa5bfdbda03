package event

// -----------------------------------------------------------------
// Client to Server Payloads
// -----------------------------------------------------------------

// SendMessagePayload is sent by a client after the REST layer persisted the
// message. Exactly one of RecipientID/GroupID is set, selected by ChatType.
type SendMessagePayload struct {
	MessageID   string `json:"messageId"`
	ChatType    string `json:"chatType"` // "private" or "group"
	RecipientID string `json:"recipientId,omitempty"`
	GroupID     string `json:"groupId,omitempty"`
	Body        string `json:"body,omitempty"`
}

// DeliveredPayload is a client-reported delivery ack, fired on
// reconnect/catch-up for messages received while offline.
type DeliveredPayload struct {
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId"`
}

// ReadPayload is a client-reported read signal.
type ReadPayload struct {
	MessageID string `json:"messageId"`
	SenderID  string `json:"senderId"`
}

// TypingPayload starts or stops a typing indicator towards a recipient.
type TypingPayload struct {
	RecipientID string `json:"recipientId"`
	IsTyping    bool   `json:"isTyping"`
}

// RoomPayload joins or leaves a room.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// AvailabilityPayload updates the sender's availability.
type AvailabilityPayload struct {
	IsAvailable bool   `json:"isAvailable"`
	Reason      string `json:"reason,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// -----------------------------------------------------------------
// Server to Client Payloads
// -----------------------------------------------------------------

// NewMessagePayload is the fanned-out form of a chat message, with the
// sender identity snapshot attached.
type NewMessagePayload struct {
	MessageID    string `json:"messageId"`
	SenderID     string `json:"senderId"`
	SenderName   string `json:"senderName"`
	SenderAvatar string `json:"senderAvatar,omitempty"`
	ChatType     string `json:"chatType"`
	GroupID      string `json:"groupId,omitempty"`
	Body         string `json:"body,omitempty"`
	SentAt       int64  `json:"sentAt"`
}

// DeliveryReceiptPayload acknowledges delivery of a private message to its
// sender.
type DeliveryReceiptPayload struct {
	MessageID   string `json:"messageId"`
	DeliveredTo string `json:"deliveredTo"`
	DeliveredAt int64  `json:"deliveredAt"`
}

// GroupDeliveryReceiptPayload is the single batched ack for a group fanout:
// DeliveredTo is the subset of notified members online at send time.
type GroupDeliveryReceiptPayload struct {
	MessageID   string   `json:"messageId"`
	GroupID     string   `json:"groupId"`
	DeliveredTo []string `json:"deliveredTo"`
	DeliveredAt int64    `json:"deliveredAt"`
}

// ReadReceiptPayload acknowledges a read to the message sender.
type ReadReceiptPayload struct {
	MessageID string `json:"messageId"`
	ReadBy    string `json:"readBy"`
	ReadAt    int64  `json:"readAt"`
}

// TypingStatusPayload tells a recipient whether a user is typing to them.
type TypingStatusPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// UserOnlinePayload broadcasts an online/offline transition.
type UserOnlinePayload struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// AvailabilityUpdatePayload broadcasts an availability change.
type AvailabilityUpdatePayload struct {
	UserID      string `json:"userId"`
	IsAvailable bool   `json:"isAvailable"`
	Reason      string `json:"reason,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// ErrorPayload reports a per-event failure back to the offending channel.
type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
