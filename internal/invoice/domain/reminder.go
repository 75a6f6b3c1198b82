package domain

import "time"

// Reminder cadence relative to the due date: a run-up of reminders before
// the invoice falls due, one on the day itself, then a short escalation
// series afterwards.
var (
	preDueOffsets  = []int{90, 75, 60, 45, 30, 15}
	postDueOffsets = []int{3, 7, 15}
)

const dateLayout = "2006-01-02"

// NextReminderDate returns the earliest scheduled reminder date on or after
// today that has not already been sent, or nil when the schedule for this
// invoice is exhausted. Dates are compared at day granularity in UTC.
func NextReminderDate(dueDate time.Time, sentDates []string, today time.Time) *time.Time {
	due := truncateDay(dueDate)
	now := truncateDay(today)

	sent := make(map[string]struct{}, len(sentDates))
	for _, d := range sentDates {
		sent[d] = struct{}{}
	}

	var schedule []time.Time
	for _, off := range preDueOffsets {
		schedule = append(schedule, due.AddDate(0, 0, -off))
	}
	schedule = append(schedule, due)
	for _, off := range postDueOffsets {
		schedule = append(schedule, due.AddDate(0, 0, off))
	}

	for _, d := range schedule {
		if d.Before(now) {
			continue
		}
		if _, ok := sent[d.Format(dateLayout)]; ok {
			continue
		}
		out := d
		return &out
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
