package chat

import "errors"

// Sentinel errors shared between the router and its storage layers. Storage
// implementations return them (possibly wrapped) so callers can map failures
// to the right acknowledgment or HTTP status with errors.Is.
var (
	// ErrAuth indicates a missing, malformed or expired credential. It is
	// fatal to the connection attempt.
	ErrAuth = errors.New("invalid or expired token")

	// ErrNotMember indicates the caller is not a participant of the target
	// conversation.
	ErrNotMember = errors.New("not a member of this conversation")

	// ErrNotFound indicates the referenced message does not exist.
	ErrNotFound = errors.New("message not found")

	// ErrBadRequest indicates a payload that failed decoding or validation.
	ErrBadRequest = errors.New("invalid payload")
)

// userMessage maps err to the text reported in acknowledgments. Store
// failures deliberately collapse to a generic message.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotMember):
		return "You are not a member of this conversation"
	case errors.Is(err, ErrNotFound):
		return "Message not found"
	case errors.Is(err, ErrBadRequest):
		return "Invalid payload"
	default:
		return "Something went wrong"
	}
}
