package entities

import "time"

// sameCalendarDay reports whether two instants fall on the same calendar
// day in the given location. Day boundaries follow the device's local time
// zone, not UTC.
func sameCalendarDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// NeedsCompletionReset reports whether a daily task's completion has
// expired: it was last completed on a previous calendar day and is still
// marked done. The caller applies the reset; this is a pure decision.
func (t *Task) NeedsCompletionReset(now time.Time, loc *time.Location) bool {
	if t.Recurrence != RecurrenceDaily {
		return false
	}
	if !t.IsCompleted || t.LastCompletedAt == nil {
		return false
	}
	return !sameCalendarDay(*t.LastCompletedAt, now, loc)
}

// NextTrigger computes the instant at which a reminder for this task should
// fire, if any.
//
// Never-recurring tasks fire once at their due timestamp, and only while
// that timestamp is still in the future. Daily tasks ignore the due date
// entirely and keep only its hour and minute: the trigger is that
// time-of-day on today's date, pushed to tomorrow when the slot has already
// passed or the task is currently completed (it must re-fire on the next
// day, not today). Weekly and every-other-day tasks have no trigger.
func (t *Task) NextTrigger(now time.Time, loc *time.Location) (time.Time, bool) {
	if t.DueAt == nil {
		return time.Time{}, false
	}
	switch t.Recurrence {
	case RecurrenceNever:
		if t.IsCompleted || !t.DueAt.After(now) {
			return time.Time{}, false
		}
		return *t.DueAt, true
	case RecurrenceDaily:
		due := t.DueAt.In(loc)
		local := now.In(loc)
		trigger := time.Date(local.Year(), local.Month(), local.Day(), due.Hour(), due.Minute(), 0, 0, loc)
		if !trigger.After(local) || t.IsCompleted {
			trigger = trigger.AddDate(0, 0, 1)
		}
		return trigger, true
	default:
		return time.Time{}, false
	}
}

// ReminderEligible reports whether a local reminder should exist for this
// task. listActive is the containing list's notification gate. Daily tasks
// stay eligible while completed because the reminder must re-fire tomorrow;
// one-off tasks drop out as soon as they are done.
func (t *Task) ReminderEligible(listActive bool) bool {
	if !listActive || t.DueAt == nil {
		return false
	}
	switch t.Recurrence {
	case RecurrenceDaily:
		return true
	case RecurrenceNever:
		return !t.IsCompleted
	default:
		return false
	}
}
