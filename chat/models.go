package chat

import "time"

// A Message represents a persisted conversation message. The id is a UUIDv7,
// so comparing ids lexicographically matches creation order and the id
// doubles as a pagination cursor.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Content        string     `json:"content"`
	CreatedAt      time.Time  `json:"created_at"`
	Reactions      []Reaction `json:"reactions"`
}

// A Reaction represents a single user's reaction to a message. A message
// holds at most one reaction per user.
type Reaction struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
}

// An Identity is the authenticated principal attached to a connection.
type Identity struct {
	UserID string
	Email  string
}

// ToggleReaction applies a reaction toggle from userID to the message's
// reaction set: an existing reaction of the same type is removed, any other
// existing reaction is replaced, and otherwise the reaction is appended.
// The reaction set holds at most one entry per user afterwards.
func (m *Message) ToggleReaction(userID, reactionType string) {
	for i, r := range m.Reactions {
		if r.UserID != userID {
			continue
		}
		m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
		if r.Type == reactionType {
			return
		}
		break
	}
	m.Reactions = append(m.Reactions, Reaction{UserID: userID, Type: reactionType})
}
