package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/TrNhDuong/BamboChat/chat"
)

// Redis caches the most recent messages of each conversation so the first
// history page can skip the database.
type Redis struct {
	cli *redis.Client
}

// Connect connects to the Redis server and pings it to ensure the
// connection is working.
func Connect(ctx context.Context, addr string) (*Redis, error) {
	cli := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{
		cli: cli,
	}, nil
}

// maxSize bounds the cached messages per conversation.
const maxSize = 50

func conversationKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:messages", conversationID)
}

func messageKey(id string) string {
	return "message:" + id
}

// ListMessages returns up to limit of the newest cached messages of the
// conversation, newest first.
func (r *Redis) ListMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, error) {
	keys, err := r.cli.ZRevRange(ctx, conversationKey(conversationID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange: %w", err)
	}

	out := make([]chat.Message, 0, len(keys))
	for _, key := range keys {
		var m message
		if err := r.cli.HGetAll(ctx, key).Scan(&m); err != nil {
			return nil, fmt.Errorf("hgetall: %w", err)
		}
		if m.ID == "" {
			// Hash evicted out from under the index; skip it.
			continue
		}
		cm, err := m.chatMessage()
		if err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, cm)
	}

	return out, nil
}

// InsertMessage adds the message hash under message:MESSAGE_ID and indexes
// the key in the conversation's sorted set, scored by creation time.
func (r *Redis) InsertMessage(ctx context.Context, msg chat.Message) error {
	m, err := newMessage(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	err = r.cli.Watch(ctx, func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			key := messageKey(msg.ID)
			pipe.HSet(ctx, key, m)
			pipe.ZAdd(ctx, conversationKey(msg.ConversationID), redis.Z{
				Score:  float64(msg.CreatedAt.UnixNano()),
				Member: key,
			})
			return nil
		})
		return err
	}, msg.ID)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return r.evictOldest(ctx, msg.ConversationID)
}

// UpdateReactions refreshes the cached reaction set of msg, if the message
// is cached at all.
func (r *Redis) UpdateReactions(ctx context.Context, msg chat.Message) error {
	key := messageKey(msg.ID)
	n, err := r.cli.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("exists: %w", err)
	}
	if n == 0 {
		return nil
	}

	reactions := msg.Reactions
	if reactions == nil {
		reactions = []chat.Reaction{}
	}
	b, err := json.Marshal(reactions)
	if err != nil {
		return fmt.Errorf("encode reactions: %w", err)
	}
	if err := r.cli.HSet(ctx, key, "reactions", string(b)).Err(); err != nil {
		return fmt.Errorf("hset: %w", err)
	}
	return nil
}

// evictOldest trims the conversation index to maxSize entries and deletes
// the hashes that fell out.
func (r *Redis) evictOldest(ctx context.Context, conversationID string) error {
	key := conversationKey(conversationID)
	keys, err := r.cli.ZRange(ctx, key, 0, int64(-maxSize-1)).Result()
	if err != nil {
		return fmt.Errorf("zrange: %w", err)
	}

	for _, k := range keys {
		_ = r.cli.ZRem(ctx, key, k).Err()
		_ = r.cli.Del(ctx, k).Err()
	}

	return nil
}
