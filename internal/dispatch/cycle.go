package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrRunInProgress is returned by Run when a previous cycle has not finished.
// The external timer may fire faster than a cycle completes; overlapping runs
// are rejected rather than interleaved.
var ErrRunInProgress = errors.New("dispatch cycle already running")

// ErrSelectionFailed wraps event window query failures — the only error that
// aborts a whole cycle, since nothing else can proceed without events.
var ErrSelectionFailed = errors.New("event selection failed")

// Coordinator orchestrates one dispatch cycle per invocation: event window
// selection, signup fan-out, eligibility filtering, push sends, and delivery
// state recording. All work is settled before Run returns.
type Coordinator struct {
	store   Store
	sender  Sender
	window  time.Duration
	workers int
	logger  *slog.Logger

	mu sync.Mutex // held for the duration of a run
}

// NewCoordinator creates a cycle coordinator. window defaults to one hour
// and workers to 4 when non-positive.
func NewCoordinator(store Store, sender Sender, window time.Duration, workers int, logger *slog.Logger) *Coordinator {
	if window <= 0 {
		window = DefaultLookahead
	}
	if workers < 1 {
		workers = defaultWorkers
	}
	return &Coordinator{
		store:   store,
		sender:  sender,
		window:  window,
		workers: workers,
		logger:  logger,
	}
}

// Running reports whether a cycle is currently in flight.
func (c *Coordinator) Running() bool {
	if c.mu.TryLock() {
		c.mu.Unlock()
		return false
	}
	return true
}

// signupWork is one per-signup unit of work: a signup paired with its event.
type signupWork struct {
	event  Event
	signup Signup
}

// Run executes one dispatch cycle. Only event selection failure is fatal;
// per-event and per-signup errors are logged, counted, and isolated so
// unrelated signups keep making progress. Returns ErrRunInProgress when a
// previous cycle is still settling.
func (c *Coordinator) Run(ctx context.Context) (*CycleResult, error) {
	if !c.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer c.mu.Unlock()

	start := time.Now()
	result := &CycleResult{RunID: uuid.NewString()}
	logger := c.logger.With("run_id", result.RunID)

	now := time.Now()
	events, err := c.store.EventsInWindow(ctx, now, now.Add(c.window))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSelectionFailed, err)
	}

	result.EventsFound = len(events)
	if len(events) == 0 {
		logger.Info("No upcoming events found")
		result.Duration = time.Since(start)
		return result, nil
	}
	logger.Info("Found upcoming events", "count", len(events), "window", c.window)

	// Stage 1: resolve each event's signups. Events are independent, so
	// resolution fans out over the pool too.
	work := c.resolveSignups(ctx, events, result, logger)

	// Stage 2: fan out over individual signups. Every send runs as its own
	// unit of work, so one slow provider call never blocks another signup's
	// push — not even within the same event. Each signup is visited at most
	// once per cycle, so no two workers ever write the same notified flag.
	c.processSignups(ctx, work, result, logger)

	result.Duration = time.Since(start)
	logger.Info("Dispatch cycle complete", "summary", result.Summary())
	return result, nil
}

// resolveSignups fetches signups for all events concurrently and returns the
// flattened per-signup work list.
func (c *Coordinator) resolveSignups(ctx context.Context, events []Event, result *CycleResult, logger *slog.Logger) []signupWork {
	workers := c.workers
	if workers > len(events) {
		workers = len(events)
	}

	ch := make(chan Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)

	var work []signupWork
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range ch {
				signups, err := c.store.SignupsForEvent(ctx, ev.ID)
				if err != nil {
					logger.Warn("Resolve signups failed", "event_id", ev.ID, "error", err)
					mu.Lock()
					result.Errors = append(result.Errors, fmt.Sprintf("event %s: %v", ev.ID, err))
					mu.Unlock()
					continue
				}
				if len(signups) == 0 {
					logger.Info("No signups found", "event_id", ev.ID)
					continue
				}
				mu.Lock()
				result.SignupsSeen += len(signups)
				for _, su := range signups {
					work = append(work, signupWork{event: ev, signup: su})
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return work
}

// processSignups runs the filter/send/record pipeline for every signup over
// the bounded worker pool and waits for all of them to settle.
func (c *Coordinator) processSignups(ctx context.Context, work []signupWork, result *CycleResult, logger *slog.Logger) {
	if len(work) == 0 {
		return
	}

	workers := c.workers
	if workers > len(work) {
		workers = len(work)
	}

	ch := make(chan signupWork, len(work))
	for _, w := range work {
		ch <- w
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range ch {
				suResult := &CycleResult{}
				c.processSignup(ctx, w.event, w.signup, suResult, logger)
				mu.Lock()
				result.merge(suResult)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
}

// processSignup filters one signup and, when eligible, sends the push and
// records delivery state. The state write runs regardless of send outcome.
func (c *Coordinator) processSignup(ctx context.Context, ev Event, signup Signup, result *CycleResult, logger *slog.Logger) {
	user, err := c.store.UserByID(ctx, signup.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Info("No such user found", "event_id", ev.ID, "user_id", signup.UserID)
		} else {
			logger.Warn("User lookup failed", "event_id", ev.ID, "user_id", signup.UserID, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("user %s: %v", signup.UserID, err))
		}
		result.Skipped++
		return
	}

	if !Eligible(signup, user) {
		result.Skipped++
		return
	}
	result.Eligible++

	job := Job{Event: ev, Signup: signup, User: user}
	if err := c.sender.Send(ctx, job.User.PushToken, job.Event.Title, notificationBody); err != nil {
		logger.Warn("Push send failed", "event_id", ev.ID, "user_id", user.ID, "error", err)
		result.SendFailed++
	} else {
		result.Sent++
	}

	// Record delivery state even when the send failed — the next tick must
	// not retry this signup.
	if err := c.store.MarkNotified(ctx, ev.ID, signup.UserID); err != nil {
		logger.Warn("Record delivery state failed — may re-notify next tick",
			"event_id", ev.ID, "user_id", signup.UserID, "error", err)
		result.StateWriteFailed++
		result.Errors = append(result.Errors, fmt.Sprintf("mark notified %s/%s: %v", ev.ID, signup.UserID, err))
	}
}
