package postgres

import (
	"time"

	"github.com/TrNhDuong/BamboChat/chat"
)

// A message represents a message row. The primary key is a UUIDv7 assigned
// at insert time, so ordering by id equals ordering by creation time.
type message struct {
	ID             string     `bun:",pk"`
	ConversationID string     `bun:",notnull"`
	SenderID       string     `bun:",notnull"`
	Content        string     `bun:"content,notnull"`
	CreatedAt      time.Time  `bun:",nullzero,default:now()"`
	Reactions      []reaction `bun:"rel:has-many,join:id=message_id"`
}

// The composite primary key enforces at most one reaction per user per
// message at the schema level.
type reaction struct {
	MessageID string    `bun:",pk"`
	UserID    string    `bun:",pk"`
	Type      string    `bun:",notnull"`
	CreatedAt time.Time `bun:",nullzero,default:now()"`
}

type participant struct {
	ConversationID    string `bun:",pk"`
	UserID            string `bun:",pk"`
	LastReadMessageID string `bun:",nullzero"`
}

func (m message) chatMessage() chat.Message {
	reactions := make([]chat.Reaction, len(m.Reactions))
	for i, r := range m.Reactions {
		reactions[i] = chat.Reaction{UserID: r.UserID, Type: r.Type}
	}

	return chat.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		Reactions:      reactions,
	}
}
