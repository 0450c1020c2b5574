package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/takecare/core/internal/domain/entities"
	"github.com/takecare/core/internal/infrastructure/logger"
	"github.com/takecare/core/internal/ports"
)

// ListService handles list and task operations against the remote store.
type ListService struct {
	lists     ports.ListRepository
	reminders *ReminderService
	objects   ports.ObjectStore
	logger    *logger.Logger
	now       func() time.Time
}

// NewListService creates a new list service.
func NewListService(lists ports.ListRepository, reminders *ReminderService, objects ports.ObjectStore, log *logger.Logger) *ListService {
	return &ListService{
		lists:     lists,
		reminders: reminders,
		objects:   objects,
		logger:    log.WithComponent("lists"),
		now:       time.Now,
	}
}

// CreateList creates a new list owned by ownerID. Task identifiers are
// assigned here so both store adapters persist identical documents.
func (s *ListService) CreateList(ctx context.Context, ownerID string, req ports.CreateListRequest) (*entities.List, error) {
	now := s.now()

	list := &entities.List{
		ID:                            uuid.New().String(),
		OwnerID:                       ownerID,
		OwnerName:                     req.OwnerName,
		Name:                          req.Name,
		Description:                   req.Description,
		RecipientID:                   req.RecipientID,
		PhotoURL:                      req.PhotoURL,
		HasRecipientTaskNotifications: req.HasRecipientTaskNotifications,
		Tasks:                         buildTasks(req.Tasks, now),
		CreatedAt:                     now,
		UpdatedAt:                     now,
	}

	if err := list.Validate(); err != nil {
		return nil, fmt.Errorf("invalid list: %w", err)
	}

	if err := s.lists.Create(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}

	s.logger.Infow("List created", "list_id", list.ID, "owner_id", ownerID, "tasks", len(list.Tasks))
	return list, nil
}

// GetList retrieves a list by ID.
func (s *ListService) GetList(ctx context.Context, id string) (*entities.List, error) {
	list, err := s.lists.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return list, nil
}

// Lists retrieves the actor's lists for one side of the relationship, with
// pagination for unbounded growth. These reads never feed a reset batch.
func (s *ListService) Lists(ctx context.Context, scope ports.ActorScope, limit, offset int) ([]*entities.List, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	lists, err := s.lists.Query(ctx, scope.Filter(limit, offset))
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	return lists, nil
}

// UpdateList replaces the whole list aggregate. Identity and creation
// metadata are preserved; everything else, task sequence included, comes
// from the request.
func (s *ListService) UpdateList(ctx context.Context, id string, req ports.UpdateListRequest) (*entities.List, error) {
	existing, err := s.lists.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	now := s.now()
	tasks := buildTasks(req.Tasks, now)

	// The whole task sequence is replaced, but completion state and
	// creation time survive for tasks that keep their identifier.
	for i := range tasks {
		if prev, err := existing.TaskByID(tasks[i].ID); err == nil {
			tasks[i].IsCompleted = prev.IsCompleted
			tasks[i].LastCompletedAt = prev.LastCompletedAt
			tasks[i].CreatedAt = prev.CreatedAt
		}
	}

	updated := &entities.List{
		ID:                            existing.ID,
		OwnerID:                       existing.OwnerID,
		OwnerName:                     existing.OwnerName,
		Name:                          req.Name,
		Description:                   req.Description,
		RecipientID:                   req.RecipientID,
		PhotoURL:                      req.PhotoURL,
		HasRecipientTaskNotifications: req.HasRecipientTaskNotifications,
		Tasks:                         tasks,
		CreatedAt:                     existing.CreatedAt,
		UpdatedAt:                     now,
	}

	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("invalid list: %w", err)
	}

	if err := s.lists.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to update list: %w", err)
	}

	s.logger.Infow("List updated", "list_id", id, "tasks", len(updated.Tasks))
	return updated, nil
}

// DeleteList removes the list document and cascades into removing its
// photo. Photo removal is best effort; the document is already gone.
func (s *ListService) DeleteList(ctx context.Context, id string) error {
	list, err := s.lists.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get list: %w", err)
	}

	if err := s.lists.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}

	if list.PhotoURL != "" {
		if err := s.objects.Remove(ctx, list.PhotoURL); err != nil {
			s.logger.Warnw("Failed to remove list photo", "list_id", id, "photo_url", list.PhotoURL, "error", err)
		}
	}

	s.logger.Infow("List deleted", "list_id", id)
	return nil
}

// ToggleTask flips one task's completion flag. The task value is replaced
// inside the aggregate and the whole list is written back; afterwards the
// task's single reminder is adjusted synchronously from the caller's
// perspective. LastCompletedAt only advances on completion, so unchecking
// a task keeps the history the daily reset relies on.
func (s *ListService) ToggleTask(ctx context.Context, listID, taskID string, completed bool) (*entities.List, error) {
	if listID == "" {
		return nil, entities.ErrListNotFound
	}

	list, err := s.lists.GetByID(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	task, err := list.TaskByID(taskID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	task = task.WithCompletion(completed, now)

	updated, err := list.ReplaceTask(task)
	if err != nil {
		return nil, err
	}
	updated.UpdatedAt = now

	if err := s.lists.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to update list: %w", err)
	}

	s.reminders.AdjustForTask(ctx, updated.ReminderActor(), &updated, task)

	s.logger.Infow("Task toggled", "list_id", listID, "task_id", taskID, "completed", completed)
	return &updated, nil
}

// buildTasks materializes task inputs into task values, assigning fresh
// identifiers where the client did not supply one.
func buildTasks(inputs []ports.TaskInput, now time.Time) []entities.Task {
	tasks := make([]entities.Task, len(inputs))
	for i, in := range inputs {
		id := in.ID
		if id == "" {
			id = uuid.New().String()
		}
		tasks[i] = entities.Task{
			ID:         id,
			Title:      in.Title,
			Notes:      in.Notes,
			DueAt:      in.DueAt,
			Recurrence: entities.Recurrence(in.Recurrence),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	return tasks
}
