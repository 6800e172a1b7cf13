package leave

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateRequestDaysWeekendWeights(t *testing.T) {
	policy := DefaultPolicy()
	annual, _ := LookupType(TypeAnnual)

	// Mon 2025-09-01 .. Wed 2025-09-10: 8 weekdays, one Saturday, one Sunday.
	days, err := CalculateRequestDays(date(2025, 9, 1), date(2025, 9, 10), false, false, policy, annual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 8.5 {
		t.Fatalf("expected 8.5 days, got %v", days)
	}
}

func TestCalculateRequestDaysExcludeWeekends(t *testing.T) {
	policy := DefaultPolicy()
	sick, _ := LookupType(TypeSick)

	days, err := CalculateRequestDays(date(2025, 9, 1), date(2025, 9, 10), false, false, policy, sick)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 8 {
		t.Fatalf("expected 8 days, got %v", days)
	}
}

func TestCalculateRequestDaysHalfDays(t *testing.T) {
	policy := DefaultPolicy()
	annual, _ := LookupType(TypeAnnual)

	days, err := CalculateRequestDays(date(2025, 9, 1), date(2025, 9, 2), true, false, policy, annual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1.5 {
		t.Fatalf("expected 1.5 days, got %v", days)
	}

	days, err = CalculateRequestDays(date(2025, 9, 1), date(2025, 9, 1), false, true, policy, annual)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 0.5 {
		t.Fatalf("expected 0.5 days, got %v", days)
	}

	if _, err := CalculateRequestDays(date(2025, 9, 1), date(2025, 9, 1), true, true, policy, annual); !errors.Is(err, ErrInvalidHalfDay) {
		t.Fatalf("expected ErrInvalidHalfDay, got %v", err)
	}
}

func TestCalculateRequestDaysInvalid(t *testing.T) {
	policy := DefaultPolicy()
	annual, _ := LookupType(TypeAnnual)

	if _, err := CalculateRequestDays(date(2025, 2, 10), date(2025, 2, 9), false, false, policy, annual); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
	// A lone Sunday weighs zero.
	if _, err := CalculateRequestDays(date(2025, 9, 7), date(2025, 9, 7), false, false, policy, annual); !errors.Is(err, ErrNoWorkingDays) {
		t.Fatalf("expected ErrNoWorkingDays, got %v", err)
	}
}

func TestNoticeDays(t *testing.T) {
	submitted := time.Date(2025, 8, 20, 17, 30, 0, 0, time.UTC)
	if got := NoticeDays(submitted, date(2025, 9, 1)); got != 12 {
		t.Fatalf("expected 12 days notice, got %d", got)
	}
	if got := NoticeDays(submitted, date(2025, 8, 20)); got != 0 {
		t.Fatalf("expected 0 days notice, got %d", got)
	}
}
