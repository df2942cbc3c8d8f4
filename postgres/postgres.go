package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/TrNhDuong/BamboChat/chat"
)

// Postgres provides durable storage in PostgreSQL.
type Postgres struct {
	bun *bun.DB
}

// Connect connects to the database and pings it to ensure the connection is
// working.
func Connect(ctx context.Context, connStr string) (*Postgres, error) {
	sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	db := bun.NewDB(sqlDB, pgdialect.New())
	return &Postgres{
		bun: db,
	}, nil
}

// InsertMessage assigns a UUIDv7 id and creation time, persists msg and
// returns the stored message. The message is visible to pagination queries
// as soon as this returns.
func (pg *Postgres) InsertMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	m := &message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := pg.bun.NewInsert().Model(m).Exec(ctx); err != nil {
		return chat.Message{}, fmt.Errorf("insert: %w", err)
	}
	return m.chatMessage(), nil
}

// ListMessages returns up to limit messages of a conversation, newest first.
// A non-empty cursor bounds the page to messages with id strictly smaller
// than the cursor.
func (pg *Postgres) ListMessages(ctx context.Context, conversationID, cursor string, limit int) ([]chat.Message, error) {
	var msgs []message
	q := pg.bun.NewSelect().
		Model(&msgs).
		Relation("Reactions", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("created_at ASC")
		}).
		Where("conversation_id = ?", conversationID).
		Order("id DESC").
		Limit(limit)

	if cursor != "" {
		q = q.Where("id < ?", cursor)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	out := make([]chat.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.chatMessage()
	}

	return out, nil
}

// ToggleReaction applies userID's reaction toggle to messageID and returns
// the message with its post-commit reaction set. Everything runs in one
// transaction with the message row locked, so concurrent toggles serialize
// instead of racing the remove-then-add step.
func (pg *Postgres) ToggleReaction(ctx context.Context, userID, messageID, reactionType string) (chat.Message, error) {
	var out chat.Message
	err := pg.bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var m message
		err := tx.NewSelect().
			Model(&m).
			Where("id = ?", messageID).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return chat.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select message: %w", err)
		}

		member, err := tx.NewSelect().
			Model((*participant)(nil)).
			Where("conversation_id = ? AND user_id = ?", m.ConversationID, userID).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if !member {
			return chat.ErrNotMember
		}

		var existing reaction
		err = tx.NewSelect().
			Model(&existing).
			Where("message_id = ? AND user_id = ?", messageID, userID).
			Scan(ctx)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			existing = reaction{}
		case err != nil:
			return fmt.Errorf("select reaction: %w", err)
		default:
			if _, err := tx.NewDelete().
				Model((*reaction)(nil)).
				Where("message_id = ? AND user_id = ?", messageID, userID).
				Exec(ctx); err != nil {
				return fmt.Errorf("delete reaction: %w", err)
			}
		}

		// Same type toggles off, anything else becomes the replacement.
		if existing.Type != reactionType {
			r := &reaction{
				MessageID: messageID,
				UserID:    userID,
				Type:      reactionType,
				CreatedAt: time.Now().UTC(),
			}
			if _, err := tx.NewInsert().Model(r).Exec(ctx); err != nil {
				return fmt.Errorf("insert reaction: %w", err)
			}
		}

		var rs []reaction
		if err := tx.NewSelect().
			Model(&rs).
			Where("message_id = ?", messageID).
			Order("created_at ASC").
			Scan(ctx); err != nil {
			return fmt.Errorf("select reactions: %w", err)
		}
		m.Reactions = rs
		out = m.chatMessage()
		return nil
	})
	if err != nil {
		return chat.Message{}, err
	}
	return out, nil
}

// SetLastRead moves the participant's read watermark to messageID. The
// membership check rides on the UPDATE itself: zero affected rows means the
// caller is not a participant.
func (pg *Postgres) SetLastRead(ctx context.Context, conversationID, userID, messageID string) error {
	res, err := pg.bun.NewUpdate().
		Model((*participant)(nil)).
		Set("last_read_message_id = ?", messageID).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update watermark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return chat.ErrNotMember
	}
	return nil
}

// IsMember reports whether userID participates in conversationID.
func (pg *Postgres) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	ok, err := pg.bun.NewSelect().
		Model((*participant)(nil)).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return ok, nil
}

// ListConversationIDs returns the ids of every conversation userID belongs
// to.
func (pg *Postgres) ListConversationIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := pg.bun.NewSelect().
		Model((*participant)(nil)).
		Column("conversation_id").
		Where("user_id = ?", userID).
		Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return ids, nil
}
