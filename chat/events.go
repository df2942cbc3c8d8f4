package chat

import "encoding/json"

// Client-to-server action types.
const (
	actionSendMessage  = "send_message"
	actionMarkRead     = "mark_read"
	actionSendReaction = "send_reaction"
	actionTyping       = "typing"
)

// Server-to-client event types.
const (
	eventAck               = "ack"
	eventReceiveMessage    = "receive_message"
	eventMessageReadUpdate = "message_read_update"
	eventReactionUpdate    = "reaction_update"
	eventTyping            = "typing"
)

// A frame is the envelope of every inbound websocket message. The payload is
// decoded per action type.
type frame struct {
	Type    string          `json:"type"`
	CallID  string          `json:"call_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// An ack is the per-call acknowledgment sent back to the originating
// connection only.
type ack struct {
	Type    string `json:"type"`
	CallID  string `json:"call_id,omitempty"`
	Success bool   `json:"success"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// An event is the envelope of every room broadcast.
type event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Content        string `json:"content" validate:"required"`
}

type markReadRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	MessageID      string `json:"message_id" validate:"required"`
}

type sendReactionRequest struct {
	MessageID    string `json:"message_id" validate:"required"`
	ReactionType string `json:"reaction_type" validate:"required"`
}

type typingRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	IsTyping       bool   `json:"is_typing"`
}

type readUpdateEvent struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	MessageID      string `json:"message_id"`
}

type reactionUpdateEvent struct {
	MessageID      string     `json:"message_id"`
	ConversationID string     `json:"conversation_id"`
	Reactions      []Reaction `json:"reactions"`
}

type typingEvent struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}
