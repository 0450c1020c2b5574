package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/takecare/core/internal/domain/entities"
	"github.com/takecare/core/internal/infrastructure/logger"
	"github.com/takecare/core/internal/ports"
)

// ReminderService keeps the device-local reminder set consistent with the
// eligible-task set. It is the only component that talks to the
// notification scheduler: after every pass, exactly one reminder exists per
// eligible task and none for anything else.
type ReminderService struct {
	scheduler ports.NotificationScheduler
	consent   ports.ConsentGateway
	logger    *logger.Logger
	metrics   *Metrics
	now       func() time.Time
	loc       *time.Location

	// A read-diff-act sequence must not interleave with another for the
	// same process; a second pass could observe a half-updated reminder
	// set and compute a wrong diff.
	mu sync.Mutex
}

// NewReminderService creates a new reminder service.
func NewReminderService(scheduler ports.NotificationScheduler, consent ports.ConsentGateway, loc *time.Location, metrics *Metrics, log *logger.Logger) *ReminderService {
	return &ReminderService{
		scheduler: scheduler,
		consent:   consent,
		logger:    log.WithComponent("reminders"),
		metrics:   metrics,
		now:       time.Now,
		loc:       loc,
	}
}

// Reconcile diffs the pending reminder identifiers against the eligible
// task set and applies the difference: stale identifiers are cancelled in
// one batch, missing reminders are registered one by one. Individual
// registration failures are logged per task and never abort the rest of
// the batch.
//
// Consent gates additions only. A denied actor still gets stale reminders
// removed, so denial cannot leak orphaned reminders; nothing is ever
// scheduled without permission.
func (s *ReminderService) Reconcile(ctx context.Context, actorID string, eligible []ports.TaskWithList, knownTaskIDs map[string]struct{}) (scheduled, cancelled int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	authorized, err := s.checkConsent(ctx, actorID)
	if err != nil {
		return 0, 0, err
	}

	pending, err := s.scheduler.PendingIdentifiers(ctx, actorID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read pending reminders: %w", err)
	}

	eligibleIDs := make(map[string]ports.TaskWithList, len(eligible))
	for _, e := range eligible {
		eligibleIDs[e.Task.ID] = e
	}

	var toRemove []string
	existing := make(map[string]struct{}, len(pending))
	for _, id := range pending {
		existing[id] = struct{}{}
		if _, ok := eligibleIDs[id]; ok {
			continue
		}
		if _, known := knownTaskIDs[id]; !known {
			// Orphan: the task (or its whole list) no longer exists.
			s.logger.Debugw("Removing orphaned reminder", "actor_id", actorID, "identifier", id)
		}
		toRemove = append(toRemove, id)
	}

	if len(toRemove) > 0 {
		if err := s.scheduler.Cancel(ctx, actorID, toRemove); err != nil {
			return 0, 0, fmt.Errorf("failed to cancel reminders: %w", err)
		}
		cancelled = len(toRemove)
		s.metrics.addRemindersCancelled(cancelled)
	}

	if !authorized {
		return 0, cancelled, nil
	}

	now := s.now()
	for id, e := range eligibleIDs {
		if _, ok := existing[id]; ok {
			continue
		}
		if ok := s.scheduleOne(ctx, actorID, e.Task, now); ok {
			scheduled++
		}
	}
	s.metrics.addRemindersScheduled(scheduled)

	return scheduled, cancelled, nil
}

// AdjustForTask updates the single reminder belonging to one task after a
// completion toggle or edit, without a full reconciliation pass. Reminder
// maintenance is best effort on this path: the store write already
// succeeded, so failures are logged rather than surfaced.
func (s *ReminderService) AdjustForTask(ctx context.Context, actorID string, list *entities.List, task entities.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	authorized, err := s.checkConsent(ctx, actorID)
	if err != nil {
		s.logger.Warnw("Consent check failed, skipping reminder adjustment", "actor_id", actorID, "error", err)
		return
	}

	eligible := task.ReminderEligible(list.HasRecipientTaskNotifications)
	if !eligible || !authorized {
		if err := s.scheduler.Cancel(ctx, actorID, []string{task.ID}); err != nil {
			s.logger.Warnw("Failed to cancel reminder", "actor_id", actorID, "task_id", task.ID, "error", err)
			return
		}
		s.metrics.addRemindersCancelled(1)
		return
	}

	// Re-registering under the same identifier replaces the previous
	// request, so a plain schedule covers both the add and update cases.
	if ok := s.scheduleOne(ctx, actorID, task, s.now()); ok {
		s.metrics.addRemindersScheduled(1)
	}
}

func (s *ReminderService) scheduleOne(ctx context.Context, actorID string, task entities.Task, now time.Time) bool {
	fireAt, ok := task.NextTrigger(now, s.loc)
	if !ok {
		return false
	}

	req := ports.ReminderRequest{
		Identifier: task.ID,
		FireAt:     fireAt,
		Repeats:    task.Recurrence == entities.RecurrenceDaily,
		Title:      task.Title,
		Body:       task.Notes,
	}
	if err := s.scheduler.Schedule(ctx, actorID, req); err != nil {
		s.logger.Warnw("Failed to schedule reminder",
			"actor_id", actorID,
			"task_id", task.ID,
			"fire_at", fireAt,
			"error", err,
		)
		return false
	}
	return true
}

// checkConsent resolves the actor's permission state, asking once when it
// is still undetermined. Denial is a steady state, not an error.
func (s *ReminderService) checkConsent(ctx context.Context, actorID string) (bool, error) {
	status, err := s.consent.Status(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("failed to read consent status: %w", err)
	}

	switch status {
	case ports.ConsentAuthorized:
		return true, nil
	case ports.ConsentNotDetermined:
		granted, err := s.consent.Request(ctx, actorID)
		if err != nil {
			return false, fmt.Errorf("failed to request consent: %w", err)
		}
		return granted, nil
	default:
		return false, nil
	}
}
