package entities

import (
	"errors"
	"strings"
	"time"
)

// Common errors
var (
	ErrListNotFound      = errors.New("list not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrEmptyTitle        = errors.New("title must not be empty")
	ErrEmptyName         = errors.New("list name must not be empty")
	ErrEmptyOwner        = errors.New("list owner is required")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrDuplicateTaskID   = errors.New("duplicate task id in list")
)

// Recurrence describes how often a task's completion is expected to repeat.
type Recurrence string

const (
	RecurrenceNever         Recurrence = "never"
	RecurrenceDaily         Recurrence = "daily"
	RecurrenceWeekly        Recurrence = "weekly"
	RecurrenceEveryOtherDay Recurrence = "every_other_day"
)

// IsValid reports whether the recurrence is one of the accepted variants.
// Weekly and every-other-day tasks are stored but never scheduled or reset;
// those variants were never given semantics in the mobile client either.
func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceNever, RecurrenceDaily, RecurrenceWeekly, RecurrenceEveryOtherDay:
		return true
	default:
		return false
	}
}

// Task represents a single to-do item inside a list. Tasks are value types:
// edits replace the whole task inside its list rather than mutating it in
// place, so the list aggregate stays the unit of persistence.
type Task struct {
	ID              string     `json:"id" firestore:"id"`
	Title           string     `json:"title" firestore:"title"`
	Notes           string     `json:"notes,omitempty" firestore:"notes,omitempty"`
	DueAt           *time.Time `json:"due_at,omitempty" firestore:"dueAt,omitempty"`
	Recurrence      Recurrence `json:"recurrence" firestore:"recurrence"`
	IsCompleted     bool       `json:"is_completed" firestore:"isCompleted"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty" firestore:"lastCompletedAt,omitempty"`
	CreatedAt       time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time  `json:"updated_at" firestore:"updatedAt"`
}

// Validate checks the task's own invariants.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if !t.Recurrence.IsValid() {
		return ErrInvalidRecurrence
	}
	return nil
}

// WithCompletion returns a copy of the task with the completion flag set.
// LastCompletedAt is only advanced when the task transitions to completed;
// marking a task incomplete keeps the previous completion timestamp so the
// daily reset logic can still tell when it was last done.
func (t Task) WithCompletion(completed bool, now time.Time) Task {
	t.IsCompleted = completed
	if completed {
		ts := now
		t.LastCompletedAt = &ts
	}
	t.UpdatedAt = now
	return t
}

// List is a named collection of tasks with an owner and an optional
// recipient. The list is the aggregate: every write replaces the whole
// document, including its task sequence.
type List struct {
	ID                            string    `json:"id" firestore:"id"`
	OwnerID                       string    `json:"owner_id" firestore:"ownerId"`
	OwnerName                     string    `json:"owner_name" firestore:"ownerName"`
	Name                          string    `json:"name" firestore:"name"`
	Description                   string    `json:"description,omitempty" firestore:"description,omitempty"`
	RecipientID                   string    `json:"recipient_id,omitempty" firestore:"recipientId,omitempty"`
	Tasks                         []Task    `json:"tasks" firestore:"tasks"`
	PhotoURL                      string    `json:"photo_url,omitempty" firestore:"photoURL,omitempty"`
	HasRecipientTaskNotifications bool      `json:"has_recipient_task_notifications" firestore:"hasRecipientTaskNotifications"`
	CreatedAt                     time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt                     time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Validate checks the list's invariants, including task ID uniqueness.
func (l *List) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(l.OwnerID) == "" {
		return ErrEmptyOwner
	}
	seen := make(map[string]struct{}, len(l.Tasks))
	for i := range l.Tasks {
		if err := l.Tasks[i].Validate(); err != nil {
			return err
		}
		if _, ok := seen[l.Tasks[i].ID]; ok {
			return ErrDuplicateTaskID
		}
		seen[l.Tasks[i].ID] = struct{}{}
	}
	return nil
}

// TaskByID returns the task with the given id, or ErrTaskNotFound.
func (l *List) TaskByID(taskID string) (Task, error) {
	for i := range l.Tasks {
		if l.Tasks[i].ID == taskID {
			return l.Tasks[i], nil
		}
	}
	return Task{}, ErrTaskNotFound
}

// ReplaceTask returns a copy of the list with the matching task replaced,
// preserving display order. The task sequence is copied, never mutated.
func (l List) ReplaceTask(task Task) (List, error) {
	tasks := make([]Task, len(l.Tasks))
	found := false
	for i := range l.Tasks {
		if l.Tasks[i].ID == task.ID {
			tasks[i] = task
			found = true
		} else {
			tasks[i] = l.Tasks[i]
		}
	}
	if !found {
		return List{}, ErrTaskNotFound
	}
	l.Tasks = tasks
	return l, nil
}

// ReminderActor is the identity that receives local reminders for this
// list: the recipient when one is assigned, otherwise the owner.
func (l *List) ReminderActor() string {
	if l.RecipientID != "" {
		return l.RecipientID
	}
	return l.OwnerID
}
