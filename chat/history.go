package chat

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

// listMessages serves paginated message history, newest first. A cursor
// bounds the page to messages strictly older than the message with that id,
// so the window only ever looks backward and stays stable under concurrent
// inserts. The first page may be served from the cache.
func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Messages   []Message `json:"messages"`
		NextCursor string    `json:"next_cursor,omitempty"`
	}

	user, err := s.Auth.Verify(bearerToken(r))
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, err, "Invalid or expired token")
		return
	}

	conversationID := r.PathValue("conversationID")
	cursor := r.URL.Query().Get("cursor")

	limit := defaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit <= 0 {
			s.respondError(w, http.StatusBadRequest, fmt.Errorf("parse limit %q", v), "Invalid limit")
			return
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if err := s.requireMember(r.Context(), conversationID, user.UserID); err != nil {
		if errors.Is(err, ErrNotMember) {
			s.respondError(w, http.StatusForbidden, err, "You are not a member of this conversation")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err, "Could not list messages")
		return
	}

	var msgs []Message
	if cursor == "" {
		cached, err := s.Cache.ListMessages(r.Context(), conversationID, limit)
		if err != nil {
			s.Logger.Error("Could not read cache", "conversation_id", conversationID, "error", err.Error())
		} else if len(cached) == limit {
			s.Logger.Info("Got messages from cache", "conversation_id", conversationID, "count", len(cached))
			msgs = cached
		}
	}

	if msgs == nil {
		msgs, err = s.DB.ListMessages(r.Context(), conversationID, cursor, limit)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err, "Could not list messages")
			return
		}
	}

	res := response{Messages: msgs}
	if res.Messages == nil {
		res.Messages = []Message{}
	}
	if len(msgs) == limit && limit > 0 {
		res.NextCursor = msgs[len(msgs)-1].ID
	}
	s.respond(w, http.StatusOK, res)
}
