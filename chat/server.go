package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TrNhDuong/BamboChat/chat/validator"
	"github.com/TrNhDuong/BamboChat/metrics"
)

// A DB provides durable storage for messages, reactions, membership and read
// watermarks.
type DB interface {
	InsertMessage(ctx context.Context, msg Message) (Message, error)
	ListMessages(ctx context.Context, conversationID, cursor string, limit int) ([]Message, error)
	ToggleReaction(ctx context.Context, userID, messageID, reactionType string) (Message, error)
	SetLastRead(ctx context.Context, conversationID, userID, messageID string) error
	IsMember(ctx context.Context, conversationID, userID string) (bool, error)
	ListConversationIDs(ctx context.Context, userID string) ([]string, error)
}

// A Cache provides a storage layer that caches the most recent messages of
// each conversation.
type Cache interface {
	ListMessages(ctx context.Context, conversationID string, limit int) ([]Message, error)
	InsertMessage(ctx context.Context, msg Message) error
	UpdateReactions(ctx context.Context, msg Message) error
}

// A TokenVerifier validates a bearer token and yields the identity it was
// issued for.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// Server owns the live connection set and serves the realtime endpoints: the
// websocket at /ws and the paginated message history. Authorization is
// re-verified on every action, never cached from connection setup.
type Server struct {
	Logger *slog.Logger
	DB     DB
	Cache  Cache
	Broker Broker
	Auth   TokenVerifier
	Val    *validator.Validator

	// MaxContentBytes bounds message content length. Zero means the
	// default of 4096.
	MaxContentBytes int

	once sync.Once
	mux  *http.ServeMux
}

const (
	defaultPageSize        = 20
	maxPageSize            = 100
	defaultMaxContentBytes = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) setupRoutes() {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ws", s.serveWS)
	mux.HandleFunc("GET /conversations/{conversationID}/messages", s.listMessages)

	s.mux = mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.once.Do(s.setupRoutes)
	s.Logger.Info("Request received", "method", r.Method, "path", r.URL.Path)
	s.mux.ServeHTTP(w, r)
}

// serveWS admits one client connection. The bearer token is verified before
// the upgrade; a rejected connection never joins a room and never receives a
// broadcast.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	user, err := s.Auth.Verify(bearerToken(r))
	if err != nil {
		s.Logger.Warn("Rejected connection", "error", err.Error())
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Error("Could not upgrade connection", "error", err.Error())
		return
	}

	sess := newSession(conn, user)
	metrics.ConnectionsActive.Inc()
	s.Logger.Info("User connected", "user_id", user.UserID, "session_id", sess.id)

	s.joinRooms(r.Context(), sess)
	go sess.writePump()
	s.readLoop(r.Context(), sess)

	s.Broker.LeaveAll(sess)
	close(sess.send)
	metrics.ConnectionsActive.Dec()
	s.Logger.Info("User disconnected", "user_id", user.UserID, "session_id", sess.id)
}

// joinRooms subscribes the session to every conversation the user belongs
// to. A failure here is logged but non-fatal: the connection stays active
// with whatever rooms were joined.
func (s *Server) joinRooms(ctx context.Context, sess *session) {
	ids, err := s.DB.ListConversationIDs(ctx, sess.user.UserID)
	if err != nil {
		s.Logger.Error("Could not join rooms", "user_id", sess.user.UserID, "error", err.Error())
		return
	}
	for _, id := range ids {
		s.Broker.Join(sess, id)
	}
}

func (s *Server) readLoop(ctx context.Context, sess *session) {
	sess.conn.SetReadLimit(maxFrameBytes)
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.Logger.Warn("Read failed", "session_id", sess.id, "error", err.Error())
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			s.Logger.Warn("Could not decode frame", "session_id", sess.id, "error", err.Error())
			continue
		}
		s.dispatch(ctx, sess, f)
	}
}

// dispatch runs one inbound action and acknowledges it to the originating
// connection. Handlers publish their broadcast before returning, so per-room
// delivery order matches commit order.
func (s *Server) dispatch(ctx context.Context, sess *session, f frame) {
	var (
		payload any
		err     error
	)
	switch f.Type {
	case actionSendMessage:
		payload, err = s.sendMessage(ctx, sess, f.Payload)
	case actionMarkRead:
		payload, err = s.markRead(ctx, sess, f.Payload)
	case actionSendReaction:
		payload, err = s.sendReaction(ctx, sess, f.Payload)
	case actionTyping:
		// Typing carries no acknowledgment.
		if err := s.typing(sess, f.Payload); err != nil {
			s.Logger.Warn("Typing event dropped", "session_id", sess.id, "error", err.Error())
		}
		return
	default:
		s.Logger.Warn("Unknown action", "type", f.Type, "session_id", sess.id)
		return
	}

	if err != nil {
		s.Logger.Error("Action failed", "type", f.Type, "user_id", sess.user.UserID, "error", err.Error())
		sess.ack(ack{Type: eventAck, CallID: f.CallID, Success: false, Error: userMessage(err)})
		return
	}
	sess.ack(ack{Type: eventAck, CallID: f.CallID, Success: true, Payload: payload})
}

func (s *Server) broadcast(room, eventType string, payload any) {
	b, err := json.Marshal(event{Type: eventType, Payload: payload})
	if err != nil {
		s.Logger.Error("Could not encode event", "type", eventType, "error", err.Error())
		return
	}
	s.Broker.Publish(room, b)
	metrics.EventsPublished.WithLabelValues(eventType).Inc()
}

func (s *Server) broadcastExcept(room, eventType string, payload any, except Subscriber) {
	b, err := json.Marshal(event{Type: eventType, Payload: payload})
	if err != nil {
		s.Logger.Error("Could not encode event", "type", eventType, "error", err.Error())
		return
	}
	s.Broker.PublishExcept(room, b, except)
	metrics.EventsPublished.WithLabelValues(eventType).Inc()
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.Logger.Error("Could not encode JSON body", "error", err.Error())
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error, msg string) {
	type response struct {
		Error string `json:"error"`
	}
	s.Logger.Error("Error", "error", err.Error())
	s.respond(w, status, response{Error: msg})
}

// bearerToken extracts the credential from handshake metadata: the explicit
// token query field first, then an Authorization bearer header.
func bearerToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	h := r.Header.Get("Authorization")
	if t, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(t)
	}
	return ""
}

func (s *Server) maxContentBytes() int {
	if s.MaxContentBytes > 0 {
		return s.MaxContentBytes
	}
	return defaultMaxContentBytes
}
