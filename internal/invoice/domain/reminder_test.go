package domain

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextReminderDateFullRunUp(t *testing.T) {
	due := day(2026, 12, 1)
	today := day(2026, 9, 1)

	next := NextReminderDate(due, nil, today)
	if next == nil {
		t.Fatal("expected a reminder date")
	}
	// 90 days before Dec 1 is Sep 2.
	if !next.Equal(day(2026, 9, 2)) {
		t.Fatalf("expected 2026-09-02, got %s", next.Format("2006-01-02"))
	}
}

func TestNextReminderDateSkipsSent(t *testing.T) {
	due := day(2026, 12, 1)
	today := day(2026, 9, 2)

	next := NextReminderDate(due, []string{"2026-09-02"}, today)
	if next == nil {
		t.Fatal("expected a reminder date")
	}
	// 75 days before Dec 1 is Sep 17.
	if !next.Equal(day(2026, 9, 17)) {
		t.Fatalf("expected 2026-09-17, got %s", next.Format("2006-01-02"))
	}
}

func TestNextReminderDateOnDueDate(t *testing.T) {
	due := day(2026, 12, 1)
	today := day(2026, 11, 20)

	next := NextReminderDate(due, []string{"2026-11-16"}, today)
	if next == nil || !next.Equal(due) {
		t.Fatalf("expected due date, got %v", next)
	}
}

func TestNextReminderDatePostDueEscalation(t *testing.T) {
	due := day(2026, 12, 1)
	today := day(2026, 12, 2)

	next := NextReminderDate(due, []string{"2026-12-01"}, today)
	if next == nil || !next.Equal(day(2026, 12, 4)) {
		t.Fatalf("expected 2026-12-04, got %v", next)
	}
}

func TestNextReminderDateExhausted(t *testing.T) {
	due := day(2026, 12, 1)
	today := day(2027, 1, 15)

	if next := NextReminderDate(due, nil, today); next != nil {
		t.Fatalf("expected nil, got %s", next.Format("2006-01-02"))
	}
}
