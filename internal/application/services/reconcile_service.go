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

// fetchLimit bounds one reconciliation fetch. Paginated browsing beyond
// this window goes through ListService and never feeds a reset batch.
const fetchLimit = 500

// ReconcileService runs the reconciliation cycle: fetch the actor's lists,
// reset expired daily completions in one atomic write, then bring the
// local reminder set in line with the result. Cycles for the same scope
// are serialized; a commit computed from a stale snapshot could otherwise
// race a concurrent cycle's fetch.
type ReconcileService struct {
	lists     ports.ListRepository
	reminders *ReminderService
	logger    *logger.Logger
	metrics   *Metrics
	now       func() time.Time
	loc       *time.Location

	locksMu    sync.Mutex
	scopeLocks map[string]*sync.Mutex

	snapMu    sync.RWMutex
	snapshots map[string][]*entities.List
}

// NewReconcileService creates a new reconcile service.
func NewReconcileService(lists ports.ListRepository, reminders *ReminderService, loc *time.Location, metrics *Metrics, log *logger.Logger) *ReconcileService {
	return &ReconcileService{
		lists:      lists,
		reminders:  reminders,
		logger:     log.WithComponent("reconcile"),
		metrics:    metrics,
		now:        time.Now,
		loc:        loc,
		scopeLocks: make(map[string]*sync.Mutex),
		snapshots:  make(map[string][]*entities.List),
	}
}

// Refresh runs one reconciliation cycle for the scope. On any failure the
// previously observed snapshot stays available, stale but consistent, and
// the error is surfaced for the caller to present; nothing is retried
// automatically. Resets are idempotent, so a failed commit simply defers
// them to the next cycle.
func (s *ReconcileService) Refresh(ctx context.Context, scope ports.ActorScope) error {
	unlock := s.lockScope(scope.Key())
	defer unlock()

	start := s.now()

	lists, err := s.lists.Query(ctx, scope.Filter(fetchLimit, 0))
	if err != nil {
		s.metrics.observeCycle("fetch_error")
		return fmt.Errorf("failed to fetch lists: %w", err)
	}

	now := s.now()
	modified, resets := s.resetExpired(lists, now)

	if len(modified) > 0 {
		if err := s.lists.BatchWrite(ctx, modified); err != nil {
			// The resets never reached the server; the fetched, unreset
			// documents stay current and the next cycle tries again.
			s.setSnapshot(scope, lists)
			s.metrics.observeCycle("commit_error")
			return fmt.Errorf("failed to commit completion resets: %w", err)
		}
		s.metrics.addTasksReset(resets)

		// Re-fetch so reminder reconciliation runs against
		// server-confirmed state, not our local guess.
		lists, err = s.lists.Query(ctx, scope.Filter(fetchLimit, 0))
		if err != nil {
			s.metrics.observeCycle("refetch_error")
			return fmt.Errorf("failed to refresh after commit: %w", err)
		}
	}

	s.setSnapshot(scope, lists)

	// The actor's reminder set spans every list they own or receive, not
	// just this scope's view. Reconciling against a single role's lists
	// would cancel the other role's still-valid reminders.
	view, err := s.actorView(ctx, scope, lists)
	if err != nil {
		s.metrics.observeCycle("fetch_error")
		return fmt.Errorf("failed to fetch reminder view: %w", err)
	}

	eligible, known := collectEligible(view, scope.ActorID)
	scheduled, cancelled, err := s.reminders.Reconcile(ctx, scope.ActorID, eligible, known)
	if err != nil {
		s.metrics.observeCycle("reminder_error")
		return fmt.Errorf("failed to reconcile reminders: %w", err)
	}

	s.metrics.observeCycle("ok")
	s.logger.LogReconcileCycle(scope.Key(), resets, scheduled, cancelled,
		float64(s.now().Sub(start).Nanoseconds())/1e6)
	return nil
}

// Snapshot returns a copy of the last successfully fetched lists for the
// scope. Read-only view for the UI layer; empty until the first refresh.
func (s *ReconcileService) Snapshot(scope ports.ActorScope) []*entities.List {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()

	lists := s.snapshots[scope.Key()]
	out := make([]*entities.List, len(lists))
	for i, l := range lists {
		copied := *l
		copied.Tasks = append([]entities.Task(nil), l.Tasks...)
		out[i] = &copied
	}
	return out
}

// resetExpired builds reset copies of lists with expired daily
// completions. The fetched lists are left untouched; until the commit
// confirms, they remain the only state the server has acknowledged.
// LastCompletedAt is preserved so the next evaluation still knows when
// the task was last done.
func (s *ReconcileService) resetExpired(lists []*entities.List, now time.Time) ([]*entities.List, int) {
	var modified []*entities.List
	resets := 0

	for _, list := range lists {
		changed := false
		tasks := make([]entities.Task, len(list.Tasks))
		for j := range list.Tasks {
			task := list.Tasks[j]
			if task.NeedsCompletionReset(now, s.loc) {
				task.IsCompleted = false
				task.UpdatedAt = now
				changed = true
				resets++
			}
			tasks[j] = task
		}
		if changed {
			copied := *list
			copied.Tasks = tasks
			copied.UpdatedAt = now
			modified = append(modified, &copied)
		}
	}

	return modified, resets
}

// actorView extends the scope's lists with the actor's other-role lists,
// deduplicated by ID, so reminder reconciliation covers everything the
// actor can hold a reminder for. The other-role lists are read as stored;
// their reset scan belongs to their own scope's cycle.
func (s *ReconcileService) actorView(ctx context.Context, scope ports.ActorScope, lists []*entities.List) ([]*entities.List, error) {
	other := ports.ActorScope{ActorID: scope.ActorID, Role: ports.RoleRecipient}
	if scope.Role == ports.RoleRecipient {
		other.Role = ports.RoleOwner
	}

	otherLists, err := s.lists.Query(ctx, other.Filter(fetchLimit, 0))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(lists))
	view := make([]*entities.List, 0, len(lists)+len(otherLists))
	for _, l := range lists {
		seen[l.ID] = struct{}{}
		view = append(view, l)
	}
	for _, l := range otherLists {
		if _, ok := seen[l.ID]; ok {
			continue
		}
		view = append(view, l)
	}
	return view, nil
}

// collectEligible derives the actor's reminder-eligible task set and the
// full set of known task IDs from a list view. Only tasks whose list
// addresses this actor (recipient when assigned, owner otherwise) count;
// the rest belong to someone else's reminder set. Known IDs let the
// reminder pass tell orphans apart from tasks that merely became
// ineligible.
func collectEligible(lists []*entities.List, actorID string) ([]ports.TaskWithList, map[string]struct{}) {
	var eligible []ports.TaskWithList
	known := make(map[string]struct{})

	for _, list := range lists {
		for i := range list.Tasks {
			task := list.Tasks[i]
			known[task.ID] = struct{}{}
			if list.ReminderActor() != actorID {
				continue
			}
			if task.ReminderEligible(list.HasRecipientTaskNotifications) {
				eligible = append(eligible, ports.TaskWithList{Task: task, List: list})
			}
		}
	}

	return eligible, known
}

func (s *ReconcileService) lockScope(key string) func() {
	s.locksMu.Lock()
	lock, ok := s.scopeLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.scopeLocks[key] = lock
	}
	s.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (s *ReconcileService) setSnapshot(scope ports.ActorScope, lists []*entities.List) {
	s.snapMu.Lock()
	s.snapshots[scope.Key()] = lists
	s.snapMu.Unlock()
}
