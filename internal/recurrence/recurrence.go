// Package recurrence implements the pure date arithmetic behind recurring
// events: advancing a date by N recurrence units and shifting a reminder
// timestamp when its anchoring event date moves. Nothing here touches
// storage or the wall clock; callers inject "now" where validation needs it.
package recurrence

import (
	"errors"
	"time"

	"remindly/internal/model"
)

// ErrReminderInPast is returned when a shifted reminder would land before
// the current moment. Only mutation paths check this; read paths shift
// reminders unconditionally.
var ErrReminderInPast = errors.New("reminder time must be after the current moment")

// DateOnly truncates t to midnight UTC. Event dates are calendar dates; all
// date comparisons go through this.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b
// (negative when b is before a).
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

// Advance adds interval units of the recurrence type to d.
// RecurrenceNone returns d unchanged. MONTHLY and YEARLY use calendar
// arithmetic with end-of-month clamping: Jan 31 + 1 month is the last day of
// February, Feb 29 + 1 year is Feb 28. Go's AddDate normalizes overflowing
// days into the next month instead, so months are added explicitly.
func Advance(d time.Time, typ model.RecurrenceType, interval int) time.Time {
	if interval <= 0 {
		interval = 1
	}
	switch typ {
	case model.RecurrenceDaily:
		return d.AddDate(0, 0, interval)
	case model.RecurrenceWeekly:
		return d.AddDate(0, 0, 7*interval)
	case model.RecurrenceMonthly:
		return addMonthsClamped(d, interval)
	case model.RecurrenceYearly:
		return addMonthsClamped(d, 12*interval)
	default:
		return d
	}
}

// addMonthsClamped adds n calendar months, clamping the day-of-month to the
// length of the target month.
func addMonthsClamped(d time.Time, n int) time.Time {
	year := d.Year()
	monthIdx := int(d.Month()) - 1 + n
	year += monthIdx / 12
	monthIdx %= 12
	if monthIdx < 0 {
		monthIdx += 12
		year--
	}
	month := time.Month(monthIdx + 1)

	day := d.Day()
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day,
		d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ShiftReminder recomputes a reminder timestamp after its event moved from
// oldEventDate to newEventDate, preserving the day offset between reminder
// and event and keeping the original time of day.
func ShiftReminder(oldReminder, oldEventDate, newEventDate time.Time) time.Time {
	gapDays := DaysBetween(oldReminder, oldEventDate)

	newDate := DateOnly(newEventDate).AddDate(0, 0, -gapDays)
	return time.Date(newDate.Year(), newDate.Month(), newDate.Day(),
		oldReminder.Hour(), oldReminder.Minute(), oldReminder.Second(),
		oldReminder.Nanosecond(), oldReminder.Location())
}

// ValidateReminderNotPast rejects a reminder that is not strictly after now.
// Mutation paths call this on every shifted reminder so an edit can never
// schedule a delivery that already elapsed.
func ValidateReminderNotPast(reminder, now time.Time) error {
	if reminder.Before(now) {
		return ErrReminderInPast
	}
	return nil
}
