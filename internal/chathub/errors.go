package chathub

import (
	"errors"

	"pairchat/backend/internal/models"
)

var (
	// ErrNotFound: a user, room or message lookup failed.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest: self-chat, malformed or unknown action.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrStore: the persistence layer failed.
	ErrStore = errors.New("store failure")
	// ErrRelay: the broker did not accept an event.
	ErrRelay = errors.New("relay failure")
	// ErrSessionClosed: the session already reached CLOSED.
	ErrSessionClosed = errors.New("session closed")
)

// ErrorCode maps an error to the code sent in ERROR frames. The codes double
// as localization keys.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, models.ErrUnknownAction),
		errors.Is(err, models.ErrMalformedAction):
		return "invalid_request"
	case errors.Is(err, ErrStore):
		return "store_failure"
	case errors.Is(err, ErrRelay):
		return "relay_failure"
	case errors.Is(err, ErrSessionClosed):
		return "session_closed"
	}
	return "internal"
}
