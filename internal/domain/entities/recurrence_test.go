package entities

import (
	"testing"
	"time"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestNeedsCompletionReset(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{
			name: "daily completed yesterday",
			task: Task{
				Recurrence:      RecurrenceDaily,
				IsCompleted:     true,
				LastCompletedAt: timePtr(time.Date(2026, 3, 9, 10, 0, 0, 0, loc)),
			},
			want: true,
		},
		{
			name: "daily completed earlier today",
			task: Task{
				Recurrence:      RecurrenceDaily,
				IsCompleted:     true,
				LastCompletedAt: timePtr(time.Date(2026, 3, 10, 7, 0, 0, 0, loc)),
			},
			want: false,
		},
		{
			name: "daily completed two days ago",
			task: Task{
				Recurrence:      RecurrenceDaily,
				IsCompleted:     true,
				LastCompletedAt: timePtr(time.Date(2026, 3, 8, 23, 59, 0, 0, loc)),
			},
			want: true,
		},
		{
			name: "daily incomplete",
			task: Task{
				Recurrence:      RecurrenceDaily,
				IsCompleted:     false,
				LastCompletedAt: timePtr(time.Date(2026, 3, 9, 10, 0, 0, 0, loc)),
			},
			want: false,
		},
		{
			name: "daily completed without timestamp",
			task: Task{Recurrence: RecurrenceDaily, IsCompleted: true},
			want: false,
		},
		{
			name: "one-off task never resets",
			task: Task{
				Recurrence:      RecurrenceNever,
				IsCompleted:     true,
				LastCompletedAt: timePtr(time.Date(2026, 3, 1, 10, 0, 0, 0, loc)),
			},
			want: false,
		},
		{
			name: "weekly variant is not evaluated",
			task: Task{
				Recurrence:      RecurrenceWeekly,
				IsCompleted:     true,
				LastCompletedAt: timePtr(time.Date(2026, 3, 1, 10, 0, 0, 0, loc)),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.NeedsCompletionReset(now, loc); got != tt.want {
				t.Fatalf("NeedsCompletionReset() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeedsCompletionResetRespectsLocation(t *testing.T) {
	// 23:30 UTC on March 9 is already March 10 in UTC+2. A task completed
	// at that instant must not be reset when "now" is March 10 morning in
	// that zone.
	loc := time.FixedZone("UTC+2", 2*60*60)
	task := Task{
		Recurrence:      RecurrenceDaily,
		IsCompleted:     true,
		LastCompletedAt: timePtr(time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC)),
	}
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, loc)

	if task.NeedsCompletionReset(now, loc) {
		t.Fatal("completion on the same local day must not be reset")
	}
	if !task.NeedsCompletionReset(now, time.UTC) {
		t.Fatal("same instants evaluated in UTC are on different days")
	}
}

func TestNextTriggerNever(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)

	past := Task{Recurrence: RecurrenceNever, DueAt: timePtr(now.AddDate(0, 0, -1))}
	if _, ok := past.NextTrigger(now, loc); ok {
		t.Fatal("a one-off task due in the past must not trigger")
	}

	future := Task{Recurrence: RecurrenceNever, DueAt: timePtr(time.Date(2026, 3, 11, 10, 0, 0, 0, loc))}
	got, ok := future.NextTrigger(now, loc)
	if !ok {
		t.Fatal("expected a trigger for a future one-off task")
	}
	if !got.Equal(*future.DueAt) {
		t.Fatalf("trigger = %s, want %s", got, future.DueAt)
	}

	done := Task{Recurrence: RecurrenceNever, IsCompleted: true, DueAt: future.DueAt}
	if _, ok := done.NextTrigger(now, loc); ok {
		t.Fatal("a completed one-off task must not trigger")
	}
}

func TestNextTriggerDaily(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)

	tests := []struct {
		name string
		task Task
		want time.Time
	}{
		{
			name: "time-of-day still ahead fires today",
			task: Task{Recurrence: RecurrenceDaily, DueAt: timePtr(time.Date(2025, 1, 1, 10, 0, 0, 0, loc))},
			want: time.Date(2026, 3, 10, 10, 0, 0, 0, loc),
		},
		{
			name: "time-of-day already past fires tomorrow",
			task: Task{Recurrence: RecurrenceDaily, DueAt: timePtr(time.Date(2025, 1, 1, 8, 0, 0, 0, loc))},
			want: time.Date(2026, 3, 11, 8, 0, 0, 0, loc),
		},
		{
			name: "completed task defers to tomorrow even when ahead",
			task: Task{Recurrence: RecurrenceDaily, IsCompleted: true, DueAt: timePtr(time.Date(2025, 1, 1, 10, 0, 0, 0, loc))},
			want: time.Date(2026, 3, 11, 10, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.task.NextTrigger(now, loc)
			if !ok {
				t.Fatal("expected a trigger")
			}
			if !got.Equal(tt.want) {
				t.Fatalf("trigger = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNextTriggerNone(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, loc)

	noDue := Task{Recurrence: RecurrenceDaily}
	if _, ok := noDue.NextTrigger(now, loc); ok {
		t.Fatal("a daily task without a due time has no time-of-day to fire at")
	}

	weekly := Task{Recurrence: RecurrenceWeekly, DueAt: timePtr(now.AddDate(0, 0, 1))}
	if _, ok := weekly.NextTrigger(now, loc); ok {
		t.Fatal("weekly tasks are stored but never scheduled")
	}
}

func TestReminderEligible(t *testing.T) {
	due := timePtr(time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC))

	tests := []struct {
		name       string
		task       Task
		listActive bool
		want       bool
	}{
		{"incomplete one-off on active list", Task{Recurrence: RecurrenceNever, DueAt: due}, true, true},
		{"completed one-off drops out", Task{Recurrence: RecurrenceNever, DueAt: due, IsCompleted: true}, true, false},
		{"completed daily stays eligible", Task{Recurrence: RecurrenceDaily, DueAt: due, IsCompleted: true}, true, true},
		{"inactive list gates everything", Task{Recurrence: RecurrenceDaily, DueAt: due}, false, false},
		{"no due date means no reminder", Task{Recurrence: RecurrenceDaily}, true, false},
		{"weekly is never eligible", Task{Recurrence: RecurrenceWeekly, DueAt: due}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.ReminderEligible(tt.listActive); got != tt.want {
				t.Fatalf("ReminderEligible(%v) = %v, want %v", tt.listActive, got, tt.want)
			}
		})
	}
}
