package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/TrNhDuong/BamboChat/metrics"
)

func (s *Server) decode(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if errs := s.Val.ValidateStruct(dst); len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrBadRequest, errs)
	}
	return nil
}

// requireMember checks membership at call time. Checks are never cached from
// connection setup, so a user removed from a conversation mid-session is
// rejected on their next action.
func (s *Server) requireMember(ctx context.Context, conversationID, userID string) error {
	ok, err := s.DB.IsMember(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

// sendMessage persists a new message and fans it out to the conversation
// room, sender included.
func (s *Server) sendMessage(ctx context.Context, sess *session, raw json.RawMessage) (any, error) {
	var req sendMessageRequest
	if err := s.decode(raw, &req); err != nil {
		return nil, err
	}
	if len(req.Content) > s.maxContentBytes() {
		return nil, fmt.Errorf("%w: content exceeds %d bytes", ErrBadRequest, s.maxContentBytes())
	}
	if err := s.requireMember(ctx, req.ConversationID, sess.user.UserID); err != nil {
		return nil, err
	}

	msg, err := s.DB.InsertMessage(ctx, Message{
		ConversationID: req.ConversationID,
		SenderID:       sess.user.UserID,
		Content:        req.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if msg.Reactions == nil {
		msg.Reactions = []Reaction{}
	}

	if err := s.Cache.InsertMessage(ctx, msg); err != nil {
		s.Logger.Error("Could not cache message", "message_id", msg.ID, "error", err.Error())
	}

	metrics.MessagesSent.Inc()
	s.broadcast(msg.ConversationID, eventReceiveMessage, msg)
	return msg, nil
}

// markRead moves the caller's read watermark and broadcasts the receipt. The
// watermark is set verbatim: no monotonicity or existence check, matching
// the upstream behavior.
func (s *Server) markRead(ctx context.Context, sess *session, raw json.RawMessage) (any, error) {
	var req markReadRequest
	if err := s.decode(raw, &req); err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, req.ConversationID, sess.user.UserID); err != nil {
		return nil, err
	}

	if err := s.DB.SetLastRead(ctx, req.ConversationID, sess.user.UserID, req.MessageID); err != nil {
		return nil, fmt.Errorf("set last read: %w", err)
	}

	upd := readUpdateEvent{
		ConversationID: req.ConversationID,
		UserID:         sess.user.UserID,
		MessageID:      req.MessageID,
	}
	metrics.ReadReceipts.Inc()
	s.broadcast(req.ConversationID, eventMessageReadUpdate, upd)
	return upd, nil
}

// sendReaction toggles the caller's reaction on a message. Existence and
// membership checks plus the mutation run atomically in the store; the
// broadcast carries the post-commit reaction set.
func (s *Server) sendReaction(ctx context.Context, sess *session, raw json.RawMessage) (any, error) {
	var req sendReactionRequest
	if err := s.decode(raw, &req); err != nil {
		return nil, err
	}

	msg, err := s.DB.ToggleReaction(ctx, sess.user.UserID, req.MessageID, req.ReactionType)
	if err != nil {
		return nil, fmt.Errorf("toggle reaction: %w", err)
	}
	if msg.Reactions == nil {
		msg.Reactions = []Reaction{}
	}

	if err := s.Cache.UpdateReactions(ctx, msg); err != nil {
		s.Logger.Error("Could not update cached reactions", "message_id", msg.ID, "error", err.Error())
	}

	upd := reactionUpdateEvent{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		Reactions:      msg.Reactions,
	}
	metrics.ReactionsToggled.Inc()
	s.broadcast(msg.ConversationID, eventReactionUpdate, upd)
	return upd, nil
}

// typing broadcasts a presence hint to everyone in the room except the
// sender. Nothing is persisted and no membership check is made: stale or
// over-broad delivery has no data-integrity consequence.
func (s *Server) typing(sess *session, raw json.RawMessage) error {
	var req typingRequest
	if err := s.decode(raw, &req); err != nil {
		return err
	}
	s.broadcastExcept(req.ConversationID, eventTyping, typingEvent{
		ConversationID: req.ConversationID,
		UserID:         sess.user.UserID,
		IsTyping:       req.IsTyping,
	}, sess)
	return nil
}
