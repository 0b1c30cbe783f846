package dispatch

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned by Store.UserByID when no profile exists for a
// signup's user. Recoverable per signup: the cycle logs and skips.
var ErrUserNotFound = errors.New("user not found")

// Store is the persistence surface the dispatch cycle depends on.
// Events and users are read-only; the only write path is MarkNotified.
type Store interface {
	// EventsInWindow returns events with from <= starts_at <= to.
	EventsInWindow(ctx context.Context, from, to time.Time) ([]Event, error)

	// SignupsForEvent returns all signups registered under an event.
	SignupsForEvent(ctx context.Context, eventID string) ([]Signup, error)

	// UserByID returns the user profile for a signup.
	// Returns ErrUserNotFound when the profile does not exist.
	UserByID(ctx context.Context, userID string) (User, error)

	// MarkNotified sets notified = true on a signup. Idempotent: marking an
	// already-notified signup is a no-op with the same outcome.
	MarkNotified(ctx context.Context, eventID, userID string) error
}

// Sender submits a single push message for delivery.
type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}
