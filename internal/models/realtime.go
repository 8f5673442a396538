package models

import "encoding/json"

// Outbound event types written to a user's live channels.
const (
	EventConnection  = "connection"
	EventRoomJoined  = "room_joined"
	EventRoomLeft    = "room_left"
	EventPong        = "pong"
	EventMessage     = "message"
	EventReadReceipt = "read_receipt"
	EventError       = "error"
)

// Inbound actions accepted on a live channel.
const (
	ActionJoinRoom    = "join_room"
	ActionLeaveRoom   = "leave_room"
	ActionSendMessage = "send_message"
	ActionPing        = "ping"
	ActionReadReceipt = "read_receipt"
)

// Event is the JSON envelope pushed to clients. Only the fields relevant to
// Type are set.
type Event struct {
	Type       string          `json:"type"`
	Status     string          `json:"status,omitempty"`
	UserID     string          `json:"user_id,omitempty"`
	RoomID     string          `json:"room_id,omitempty"`
	MessageIDs []string        `json:"message_ids,omitempty"`
	ReaderID   string          `json:"reader_id,omitempty"`
	Message    string          `json:"message,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// InboundFrame is a client frame. Older clients send Type instead of Action.
type InboundFrame struct {
	Action     string   `json:"action"`
	Type       string   `json:"type"`
	RoomID     string   `json:"room_id"`
	MessageIDs []string `json:"message_ids"`
}

// ResolvedAction returns Action, or the action implied by the legacy Type.
func (f InboundFrame) ResolvedAction() string {
	if f.Action != "" {
		return f.Action
	}
	switch f.Type {
	case "message":
		return ActionSendMessage
	case "read_receipt":
		return ActionReadReceipt
	}
	return ""
}

// ChatMessagePayload is the message shape sent in API responses and in the
// data field of a message event.
type ChatMessagePayload struct {
	ChatMessage
	SenderNickname     string  `json:"sender_nickname"`
	SenderProfileImage *string `json:"sender_profile_image"`
}

func ConnectionEvent(userID string) Event {
	return Event{
		Type:    EventConnection,
		Status:  "connected",
		UserID:  userID,
		Message: "Successfully connected to chat server",
	}
}

func RoomJoinedEvent(roomID string) Event {
	return Event{Type: EventRoomJoined, RoomID: roomID, Message: "Joined room " + roomID}
}

func RoomLeftEvent(roomID string) Event {
	return Event{Type: EventRoomLeft, RoomID: roomID, Message: "Left room " + roomID}
}

func PongEvent() Event {
	return Event{Type: EventPong}
}

func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Message: msg}
}

func ReadReceiptEvent(roomID, readerID string, messageIDs []string) Event {
	return Event{Type: EventReadReceipt, RoomID: roomID, MessageIDs: messageIDs, ReaderID: readerID}
}

// MessageEvent wraps a persisted message for delivery to the receiver.
func MessageEvent(p ChatMessagePayload) (Event, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: EventMessage, RoomID: p.ChatRoomID, Data: data}, nil
}
