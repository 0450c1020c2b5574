package ports

import (
	"fmt"
	"time"

	"github.com/takecare/core/internal/domain/entities"
)

// ScopeRole selects which side of a list the actor is on.
type ScopeRole string

const (
	RoleOwner     ScopeRole = "owner"
	RoleRecipient ScopeRole = "recipient"
)

// IsValid reports whether the role is known.
func (r ScopeRole) IsValid() bool {
	return r == RoleOwner || r == RoleRecipient
}

// ActorScope identifies whose lists a reconciliation cycle operates on.
type ActorScope struct {
	ActorID string
	Role    ScopeRole
}

// Key returns a stable identifier used to serialize cycles per scope.
func (s ActorScope) Key() string {
	return fmt.Sprintf("%s/%s", s.Role, s.ActorID)
}

// Filter translates the scope into a repository query.
func (s ActorScope) Filter(limit, offset int) ListFilter {
	f := ListFilter{Limit: limit, Offset: offset}
	id := s.ActorID
	if s.Role == RoleRecipient {
		f.RecipientID = &id
	} else {
		f.OwnerID = &id
	}
	return f
}

// TaskInput is one task in a create or update request. An empty ID means a
// fresh identifier is assigned; IDs are never reassigned afterwards.
type TaskInput struct {
	ID         string     `json:"id"`
	Title      string     `json:"title" validate:"required"`
	Notes      string     `json:"notes"`
	DueAt      *time.Time `json:"due_at"`
	Recurrence string     `json:"recurrence" validate:"required,oneof=never daily weekly every_other_day"`
}

// CreateListRequest creates a new list owned by the authenticated actor.
type CreateListRequest struct {
	Name                          string      `json:"name" validate:"required"`
	Description                   string      `json:"description"`
	OwnerName                     string      `json:"owner_name"`
	RecipientID                   string      `json:"recipient_id"`
	PhotoURL                      string      `json:"photo_url"`
	HasRecipientTaskNotifications bool        `json:"has_recipient_task_notifications"`
	Tasks                         []TaskInput `json:"tasks" validate:"dive"`
}

// UpdateListRequest replaces the whole list aggregate, task sequence
// included. There is no partial patch; the last writer wins.
type UpdateListRequest struct {
	Name                          string      `json:"name" validate:"required"`
	Description                   string      `json:"description"`
	RecipientID                   string      `json:"recipient_id"`
	PhotoURL                      string      `json:"photo_url"`
	HasRecipientTaskNotifications bool        `json:"has_recipient_task_notifications"`
	Tasks                         []TaskInput `json:"tasks" validate:"dive"`
}

// ToggleTaskRequest flips one task's completion flag.
type ToggleTaskRequest struct {
	Completed bool `json:"completed"`
}

// ConsentRequest is the device reporting its notification permission state.
type ConsentRequest struct {
	Status string `json:"status" validate:"required,oneof=not_determined authorized denied"`
}

// TaskWithList pairs a task with the list it belongs to, so reminder
// eligibility and payload can be derived without a second lookup.
type TaskWithList struct {
	Task entities.Task
	List *entities.List
}
