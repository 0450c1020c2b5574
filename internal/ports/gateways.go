package ports

import (
	"context"
	"time"
)

// ConsentStatus mirrors the device's notification permission state as
// reported by the client.
type ConsentStatus string

const (
	ConsentNotDetermined ConsentStatus = "not_determined"
	ConsentAuthorized    ConsentStatus = "authorized"
	ConsentDenied        ConsentStatus = "denied"
)

// IsValid reports whether the status is one of the known states.
func (s ConsentStatus) IsValid() bool {
	switch s {
	case ConsentNotDetermined, ConsentAuthorized, ConsentDenied:
		return true
	default:
		return false
	}
}

// ReminderRequest is one pending local reminder, keyed by task identifier.
type ReminderRequest struct {
	Identifier string
	FireAt     time.Time
	Repeats    bool
	Title      string
	Body       string
}

// NotificationScheduler is the device-local reminder store. Identifiers are
// task IDs; at most one reminder exists per task. No component other than
// the reminder service may schedule or cancel through it, so the
// reminder-set invariant stays enforceable from one choke point.
type NotificationScheduler interface {
	PendingIdentifiers(ctx context.Context, actorID string) ([]string, error)
	Schedule(ctx context.Context, actorID string, req ReminderRequest) error
	Cancel(ctx context.Context, actorID string, identifiers []string) error
}

// ConsentGateway tracks per-actor notification permission. Request asks for
// authorization at most once per undetermined actor and reports whether it
// was granted; denial is a valid steady state, never an error.
type ConsentGateway interface {
	Status(ctx context.Context, actorID string) (ConsentStatus, error)
	Request(ctx context.Context, actorID string) (bool, error)
	SetStatus(ctx context.Context, actorID string, status ConsentStatus) error
}
