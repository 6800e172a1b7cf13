package leave

import "time"

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayWeight is how much of a leave day the given date consumes.
func DayWeight(day time.Time, policy Policy, rule TypeRule) float64 {
	switch day.Weekday() {
	case time.Saturday:
		if rule.ExcludeWeekends {
			return 0
		}
		return policy.SaturdayWorkingDays
	case time.Sunday:
		if rule.ExcludeWeekends {
			return 0
		}
		return policy.SundayWorkingDays
	default:
		return 1
	}
}

// CalculateRequestDays sums weighted days over the inclusive range, with
// optional half-day start/end boundaries.
func CalculateRequestDays(start, end time.Time, startHalf, endHalf bool, policy Policy, rule TypeRule) (float64, error) {
	start, end = DateOnly(start), DateOnly(end)
	if end.Before(start) {
		return 0, ErrInvalidDateRange
	}
	if start.Equal(end) && startHalf && endHalf {
		return 0, ErrInvalidHalfDay
	}

	days := 0.0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days += DayWeight(day, policy, rule)
	}
	if startHalf {
		days -= DayWeight(start, policy, rule) / 2
	}
	if endHalf {
		days -= DayWeight(end, policy, rule) / 2
	}
	if days <= 0 {
		return 0, ErrNoWorkingDays
	}
	return days, nil
}

// EachDay calls fn for every date in the inclusive range.
func EachDay(start, end time.Time, fn func(time.Time)) {
	for day := DateOnly(start); !day.After(DateOnly(end)); day = day.AddDate(0, 0, 1) {
		fn(day)
	}
}

// NoticeDays is the number of calendar days between submission and start.
func NoticeDays(submittedOn, start time.Time) int {
	return int(DateOnly(start).Sub(DateOnly(submittedOn)).Hours() / 24)
}
