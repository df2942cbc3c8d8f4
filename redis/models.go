package redis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/TrNhDuong/BamboChat/chat"
)

// A message represents a cached message hash. The reaction set is stored as
// one JSON field so a toggle can refresh it with a single HSET.
type message struct {
	ID             string    `redis:"id"`
	ConversationID string    `redis:"conversation_id"`
	SenderID       string    `redis:"sender_id"`
	Content        string    `redis:"content"`
	CreatedAt      time.Time `redis:"created_at"`
	Reactions      string    `redis:"reactions"`
}

func newMessage(m chat.Message) (*message, error) {
	reactions := m.Reactions
	if reactions == nil {
		reactions = []chat.Reaction{}
	}
	b, err := json.Marshal(reactions)
	if err != nil {
		return nil, fmt.Errorf("encode reactions: %w", err)
	}
	return &message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		Reactions:      string(b),
	}, nil
}

func (m message) chatMessage() (chat.Message, error) {
	reactions := []chat.Reaction{}
	if m.Reactions != "" {
		if err := json.Unmarshal([]byte(m.Reactions), &reactions); err != nil {
			return chat.Message{}, fmt.Errorf("decode reactions: %w", err)
		}
	}
	return chat.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		Reactions:      reactions,
	}, nil
}
