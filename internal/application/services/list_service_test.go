package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/takecare/core/internal/domain/entities"
	"github.com/takecare/core/internal/infrastructure/logger"
	"github.com/takecare/core/internal/ports"
)

type listServiceFixture struct {
	svc     *ListService
	repo    *fakeListRepo
	sched   *fakeScheduler
	objects *fakeObjects
}

func newListServiceFixture(now time.Time, lists ...*entities.List) *listServiceFixture {
	repo := newFakeListRepo(lists...)
	sched := newFakeScheduler()
	objects := &fakeObjects{}
	log := logger.NewNop()

	rem := NewReminderService(sched, &fakeConsent{status: ports.ConsentAuthorized}, time.UTC, nil, log)
	rem.now = func() time.Time { return now }

	svc := NewListService(repo, rem, objects, log)
	svc.now = func() time.Time { return now }

	return &listServiceFixture{svc: svc, repo: repo, sched: sched, objects: objects}
}

func careList(now time.Time) *entities.List {
	due := now.Add(24 * time.Hour)
	return &entities.List{
		ID:                            "l1",
		OwnerID:                       "owner-1",
		RecipientID:                   "recipient-1",
		Name:                          "Care plan",
		HasRecipientTaskNotifications: true,
		Tasks: []entities.Task{
			{ID: "t1", Title: "Pick up prescription", Recurrence: entities.RecurrenceNever, DueAt: &due},
		},
	}
}

func TestToggleTaskCompleted(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	fix := newListServiceFixture(now, careList(now))

	updated, err := fix.svc.ToggleTask(context.Background(), "l1", "t1", true)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	task := updated.Tasks[0]
	if !task.IsCompleted {
		t.Fatal("task not completed")
	}
	if task.LastCompletedAt == nil || !task.LastCompletedAt.Equal(now) {
		t.Fatalf("LastCompletedAt = %v, want %s", task.LastCompletedAt, now)
	}

	stored := fix.repo.get("l1")
	if !stored.Tasks[0].IsCompleted {
		t.Fatal("completion not persisted")
	}

	// Completing a one-off task cancels its reminder.
	if _, ok := fix.sched.get("recipient-1", "t1"); ok {
		t.Fatal("reminder for completed one-off task not cancelled")
	}
}

func TestToggleTaskIncompletePreservesHistory(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	list := careList(now)
	completedAt := now.Add(-time.Hour)
	list.Tasks[0].IsCompleted = true
	list.Tasks[0].LastCompletedAt = &completedAt

	fix := newListServiceFixture(now, list)

	updated, err := fix.svc.ToggleTask(context.Background(), "l1", "t1", false)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	task := updated.Tasks[0]
	if task.IsCompleted {
		t.Fatal("task still completed")
	}
	if task.LastCompletedAt == nil || !task.LastCompletedAt.Equal(completedAt) {
		t.Fatal("unchecking must preserve the last completion timestamp")
	}

	// A newly incomplete task with a future due date gets its reminder back.
	if _, ok := fix.sched.get("recipient-1", "t1"); !ok {
		t.Fatal("expected a reminder for the newly incomplete task")
	}
}

func TestToggleTaskNotFound(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	fix := newListServiceFixture(now, careList(now))

	if _, err := fix.svc.ToggleTask(context.Background(), "l1", "missing", true); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestToggleTaskListNotPersisted(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	fix := newListServiceFixture(now)

	if _, err := fix.svc.ToggleTask(context.Background(), "", "t1", true); !errors.Is(err, entities.ErrListNotFound) {
		t.Fatalf("err = %v, want ErrListNotFound for a list without a persisted id", err)
	}
}

func TestCreateListAssignsTaskIDs(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	fix := newListServiceFixture(now)

	list, err := fix.svc.CreateList(context.Background(), "owner-1", ports.CreateListRequest{
		Name: "Groceries",
		Tasks: []ports.TaskInput{
			{Title: "Milk", Recurrence: "never"},
			{Title: "Water plants", Recurrence: "daily"},
		},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if list.ID == "" {
		t.Fatal("list id not assigned")
	}
	seen := make(map[string]struct{})
	for _, task := range list.Tasks {
		if task.ID == "" {
			t.Fatal("task id not assigned")
		}
		if _, dup := seen[task.ID]; dup {
			t.Fatal("duplicate task id assigned")
		}
		seen[task.ID] = struct{}{}
	}
}

func TestCreateListRejectsInvalidRecurrence(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	fix := newListServiceFixture(now)

	_, err := fix.svc.CreateList(context.Background(), "owner-1", ports.CreateListRequest{
		Name:  "Groceries",
		Tasks: []ports.TaskInput{{Title: "Milk", Recurrence: "monthly"}},
	})
	if !errors.Is(err, entities.ErrInvalidRecurrence) {
		t.Fatalf("err = %v, want ErrInvalidRecurrence", err)
	}
}

func TestUpdateListPreservesCompletionState(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	list := careList(now)
	completedAt := now.Add(-time.Hour)
	list.Tasks[0].IsCompleted = true
	list.Tasks[0].LastCompletedAt = &completedAt

	fix := newListServiceFixture(now, list)

	updated, err := fix.svc.UpdateList(context.Background(), "l1", ports.UpdateListRequest{
		Name:                          "Care plan v2",
		RecipientID:                   "recipient-1",
		HasRecipientTaskNotifications: true,
		Tasks: []ports.TaskInput{
			{ID: "t1", Title: "Pick up prescription (urgent)", Recurrence: "never"},
			{Title: "New task", Recurrence: "daily"},
		},
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.Name != "Care plan v2" || len(updated.Tasks) != 2 {
		t.Fatalf("aggregate not replaced: %+v", updated)
	}
	kept := updated.Tasks[0]
	if kept.Title != "Pick up prescription (urgent)" {
		t.Fatalf("edited title lost: %q", kept.Title)
	}
	if !kept.IsCompleted || kept.LastCompletedAt == nil || !kept.LastCompletedAt.Equal(completedAt) {
		t.Fatal("completion state must survive a whole-aggregate edit")
	}
}

func TestDeleteListCascadesPhoto(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	list := careList(now)
	list.PhotoURL = "photos/l1.jpg"

	fix := newListServiceFixture(now, list)

	if err := fix.svc.DeleteList(context.Background(), "l1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := fix.repo.GetByID(context.Background(), "l1"); !errors.Is(err, entities.ErrListNotFound) {
		t.Fatal("list document not deleted")
	}
	if len(fix.objects.removed) != 1 || fix.objects.removed[0] != "photos/l1.jpg" {
		t.Fatalf("photo not cascaded: %v", fix.objects.removed)
	}
}
