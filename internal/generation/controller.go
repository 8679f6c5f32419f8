// internal/generation/controller.go
package generation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/notify"
)

// State is the controller's observable phase. Success and Failed describe
// the most recent completed run; the next invocation moves back through
// Generating.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// WorkoutSink is the slice of the workout store the controller writes on a
// successful generation.
type WorkoutSink interface {
	SetWorkout(workout domain.WeeklyWorkout, title, summary string) error
}

// Controller drives one generation attempt end to end: loading state,
// service call, persistence, and user notification. Errors never escape it;
// a failed run surfaces as a notification plus a nil result. Concurrent
// Generate calls are not deduplicated or queued: two in-flight runs race and
// the later store write wins, which is the accepted behavior because the
// triggering control is disabled while Generating.
type Controller struct {
	service  Service
	sink     WorkoutSink
	notifier notify.Notifier

	// OnUpgrade runs when the user accepts the upgrade affordance on a
	// limit-exceeded notification. Optional.
	OnUpgrade func()

	mu          sync.Mutex
	state       State
	generating  bool
	showPaywall bool
	debug       *domain.DebugInfo
}

// NewController wires a controller. The notifier may be nil, in which case
// notifications are dropped.
func NewController(service Service, sink WorkoutSink, notifier notify.Notifier) *Controller {
	if notifier == nil {
		notifier = notify.Func(func(notify.Notification) {})
	}
	return &Controller{
		service:  service,
		sink:     sink,
		notifier: notifier,
		state:    StateIdle,
	}
}

// Generate runs one Idle -> Generating -> (Success | Failed) pass and
// returns the generated workout, or nil on any failure. The generating flag
// is cleared on every path, including a panicking service call, so the UI
// can never be stuck loading.
func (c *Controller) Generate(ctx context.Context, params domain.GenerationParams) *domain.WeeklyWorkout {
	c.begin()

	workout, debug, err := c.invoke(ctx, params)
	if err != nil {
		c.fail(ctx, params, err)
		return nil
	}

	c.succeed(workout, debug)
	return workout
}

// invoke calls the service with a recover barrier so a panicking transport
// or codec degrades into an ordinary failed run.
func (c *Controller) invoke(ctx context.Context, params domain.GenerationParams) (workout *domain.WeeklyWorkout, debug *domain.DebugInfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: generation panicked: %v", r)
			workout, debug = nil, nil
			err = fmt.Errorf("generation panicked: %v", r)
		}
	}()
	return c.service.Generate(ctx, params)
}

func (c *Controller) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateGenerating
	c.generating = true
	c.debug = nil
}

func (c *Controller) succeed(workout *domain.WeeklyWorkout, debug *domain.DebugInfo) {
	title := workout.Title()
	if err := c.sink.SetWorkout(*workout, title, workout.Summary()); err != nil {
		// Persistence trouble does not fail the run; the result is still
		// in the caller's hands.
		log.Printf("WARN: failed to persist generated workout: %v", err)
	}

	c.mu.Lock()
	c.state = StateSuccess
	c.generating = false
	c.debug = debug
	c.mu.Unlock()

	description := "Your workout is ready."
	if title != "" {
		description = fmt.Sprintf("%q is ready.", title)
	}
	c.notifier.Notify(notify.Notification{
		Title:       "Workout generated",
		Description: description,
		Severity:    notify.SeveritySuccess,
	})
}

func (c *Controller) fail(ctx context.Context, params domain.GenerationParams, err error) {
	limited := errors.Is(err, ErrLimitExceeded)

	c.mu.Lock()
	c.state = StateFailed
	c.generating = false
	if limited {
		c.showPaywall = true
	}
	c.mu.Unlock()

	if limited {
		c.notifier.Notify(notify.Notification{
			Title:       "Workout limit reached",
			Description: "You have used all free workout generations. Upgrade to keep going.",
			Severity:    notify.SeverityError,
			Action:      &notify.Action{Label: "Upgrade", Do: c.upgrade},
		})
		return
	}

	c.notifier.Notify(notify.Notification{
		Title:       "Generation failed",
		Description: err.Error(),
		Severity:    notify.SeverityError,
		// Retry stays a user-triggered action: one click, one request.
		Action: &notify.Action{Label: "Retry", Do: func() { c.Generate(ctx, params) }},
	})
}

func (c *Controller) upgrade() {
	if c.OnUpgrade != nil {
		c.OnUpgrade()
	}
}

// State reports the current phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsGenerating reports whether a run is in flight.
func (c *Controller) IsGenerating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

// ShowPaywall reports whether a limit rejection happened and was not yet
// dismissed.
func (c *Controller) ShowPaywall() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showPaywall
}

// DismissPaywall resets the paywall flag after the UI has shown it.
func (c *Controller) DismissPaywall() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showPaywall = false
}

// DebugInfo returns the diagnostics attached to the most recent successful
// run, or nil. Cleared when the next run starts.
func (c *Controller) DebugInfo() *domain.DebugInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.debug
}
