package leave

import "time"

// AccrualTable maps years of service to annual entitlement.
type AccrualTable struct {
	FirstYearDays    int
	FirstYearMonthly bool
	BaseDays         int
	BonusEveryYears  int
	MaxDays          int
}

func DefaultAccrualTable() AccrualTable {
	return AccrualTable{FirstYearDays: 11, BaseDays: 15, BonusEveryYears: 2, MaxDays: 25}
}

// ServiceLength returns completed years and completed months of service.
func ServiceLength(hireDate, asOf time.Time) (years, months int) {
	hire, at := DateOnly(hireDate), DateOnly(asOf)
	if at.Before(hire) {
		return 0, 0
	}
	months = (at.Year()-hire.Year())*12 + int(at.Month()) - int(hire.Month())
	if at.Day() < hire.Day() {
		months--
	}
	if months < 0 {
		months = 0
	}
	return months / 12, months
}

// Entitlement computes annual leave days for a hire date as of a reference date.
func Entitlement(hireDate *time.Time, asOf time.Time, table AccrualTable) (float64, error) {
	if hireDate == nil || hireDate.IsZero() {
		return 0, ErrMissingHireDate
	}
	if DateOnly(*hireDate).After(DateOnly(asOf)) {
		return 0, nil
	}
	years, months := ServiceLength(*hireDate, asOf)
	if years < 1 {
		if table.FirstYearMonthly {
			return float64(min(months, table.FirstYearDays)), nil
		}
		return float64(table.FirstYearDays), nil
	}
	every := table.BonusEveryYears
	if every <= 0 {
		every = 1
	}
	days := table.BaseDays + (years-1)/every
	if table.MaxDays > 0 && days > table.MaxDays {
		days = table.MaxDays
	}
	return float64(days), nil
}

// EntitlementReferenceDate is the date a year's entitlement is computed at:
// Jan 1 for employees with at least a year of service by then, else Dec 31 so
// first-year service within the year counts.
func EntitlementReferenceDate(hireDate *time.Time, year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	if hireDate == nil {
		return jan1
	}
	if years, _ := ServiceLength(*hireDate, jan1); years >= 1 {
		return jan1
	}
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}
