// Package store provides the Postgres implementation of the dispatch cycle's
// persistence surface. All queries go through prepared statements registered
// in internal/db.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamcast/streamcast-notify/internal/dispatch"
)

// Postgres implements dispatch.Store over the events/signups/users tables.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store backed by the given pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EventsInWindow returns events whose start time falls in [from, to],
// inclusive on both ends, ordered by start time.
func (s *Postgres) EventsInWindow(ctx context.Context, from, to time.Time) ([]dispatch.Event, error) {
	rows, err := s.pool.Query(ctx, "events_in_window", from, to)
	if err != nil {
		return nil, fmt.Errorf("query events in window: %w", err)
	}
	defer rows.Close()

	var events []dispatch.Event
	for rows.Next() {
		var ev dispatch.Event
		if err := rows.Scan(&ev.ID, &ev.Title, &ev.StartsAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// SignupsForEvent returns all signups registered under an event.
func (s *Postgres) SignupsForEvent(ctx context.Context, eventID string) ([]dispatch.Signup, error) {
	rows, err := s.pool.Query(ctx, "signups_for_event", eventID)
	if err != nil {
		return nil, fmt.Errorf("query signups for event %s: %w", eventID, err)
	}
	defer rows.Close()

	var signups []dispatch.Signup
	for rows.Next() {
		var su dispatch.Signup
		if err := rows.Scan(&su.EventID, &su.UserID, &su.Notified); err != nil {
			return nil, fmt.Errorf("scan signup: %w", err)
		}
		signups = append(signups, su)
	}
	return signups, rows.Err()
}

// UserByID returns the user profile for a signup. A missing push token
// column maps to an empty PushToken.
func (s *Postgres) UserByID(ctx context.Context, userID string) (dispatch.User, error) {
	var u dispatch.User
	var token *string
	err := s.pool.QueryRow(ctx, "user_by_id", userID).Scan(&u.ID, &token, &u.Notify)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dispatch.User{}, dispatch.ErrUserNotFound
		}
		return dispatch.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	if token != nil {
		u.PushToken = *token
	}
	return u, nil
}

// MarkNotified sets notified = true on a signup. Updating an already-true
// row is a no-op with the same observable outcome.
func (s *Postgres) MarkNotified(ctx context.Context, eventID, userID string) error {
	_, err := s.pool.Exec(ctx, "mark_signup_notified", eventID, userID)
	if err != nil {
		return fmt.Errorf("mark signup notified %s/%s: %w", eventID, userID, err)
	}
	return nil
}
