// Package dispatch implements the scheduled notification cycle for upcoming
// live-stream events.
//
// Pipeline per tick: select events inside the lookahead window → resolve each
// event's signups → filter by user opt-in and prior delivery state → send a
// push per eligible signup → record the signup as notified. Recording happens
// even when the send fails: the design favors never re-notifying on the next
// tick over guaranteeing delivery.
package dispatch

import (
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// DefaultLookahead is the window ahead of "now" in which an event's
	// start time qualifies it for notification processing.
	DefaultLookahead = time.Hour

	defaultWorkers = 4

	notificationBody = "Your event is starting in 1 hour!"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Event is a scheduled live stream. Read-only to the dispatch cycle.
type Event struct {
	ID       string
	Title    string
	StartsAt time.Time
}

// Signup links a user to an event they want to be notified about.
// Notified is nil when the flag was never written; nil counts as false.
type Signup struct {
	EventID  string
	UserID   string
	Notified *bool
}

// AlreadyNotified reports whether the delivery flag is set.
func (s Signup) AlreadyNotified() bool {
	return s.Notified != nil && *s.Notified
}

// User is a subscriber profile. PushToken is empty when the user has no
// registered device. Read-only to the dispatch cycle.
type User struct {
	ID        string
	PushToken string
	Notify    bool
}

// Job pairs an eligible signup with its resolved user and target event.
// Ephemeral: produced by the filter, consumed by the sender.
type Job struct {
	Event  Event
	Signup Signup
	User   User
}

// --------------------------------------------------------------------------
// Cycle result
// --------------------------------------------------------------------------

// CycleResult tracks the outcome of one full dispatch cycle.
type CycleResult struct {
	RunID            string
	EventsFound      int
	SignupsSeen      int
	Eligible         int
	Sent             int
	SendFailed       int
	Skipped          int
	StateWriteFailed int
	Duration         time.Duration
	Errors           []string
}

// Summary returns a human-readable summary.
func (r *CycleResult) Summary() string {
	return fmt.Sprintf(
		"events=%d signups=%d eligible=%d sent=%d send_failed=%d skipped=%d state_failed=%d dur=%s",
		r.EventsFound, r.SignupsSeen, r.Eligible, r.Sent,
		r.SendFailed, r.Skipped, r.StateWriteFailed,
		r.Duration.Round(time.Millisecond))
}

// merge folds per-signup counters into the cycle total.
func (r *CycleResult) merge(o *CycleResult) {
	r.SignupsSeen += o.SignupsSeen
	r.Eligible += o.Eligible
	r.Sent += o.Sent
	r.SendFailed += o.SendFailed
	r.Skipped += o.Skipped
	r.StateWriteFailed += o.StateWriteFailed
	r.Errors = append(r.Errors, o.Errors...)
}
