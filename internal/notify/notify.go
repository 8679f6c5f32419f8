package notify

import (
	"log"
)

// Severity of a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Action is an optional affordance attached to a notification, e.g. a retry
// or an upgrade prompt. Do is invoked by whoever surfaces the notification;
// it may be triggered at most once per notification or not at all.
type Action struct {
	Label string
	Do    func()
}

// Notification is a fire-and-forget message for the user-facing surface.
type Notification struct {
	Title       string
	Description string
	Severity    Severity
	Action      *Action
}

// Notifier is the notification surface consumed by the generation
// controller. Implementations must not block and give no delivery guarantee.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a plain function to the Notifier interface.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// LogNotifier writes notifications to the process log. It is the default
// surface for the CLI, where there is no UI toast layer.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notification) {
	if n.Action != nil {
		log.Printf("NOTIFY [%s] %s: %s (action: %s)", n.Severity, n.Title, n.Description, n.Action.Label)
		return
	}
	log.Printf("NOTIFY [%s] %s: %s", n.Severity, n.Title, n.Description)
}
