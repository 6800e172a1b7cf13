package leave

import (
	"errors"
	"testing"
	"time"
)

func TestEntitlementTable(t *testing.T) {
	table := DefaultAccrualTable()
	hire := date(2015, 3, 2)
	cases := []struct {
		asOf time.Time
		want float64
	}{
		{date(2015, 3, 2), 11},
		{date(2016, 3, 1), 11},
		{date(2016, 3, 2), 15},
		{date(2017, 6, 1), 15},
		{date(2018, 3, 2), 16},
		{date(2020, 3, 2), 17},
		{date(2045, 3, 2), 25},
	}
	for _, tc := range cases {
		got, err := Entitlement(&hire, tc.asOf, table)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("as of %s: expected %v, got %v", tc.asOf.Format("2006-01-02"), tc.want, got)
		}
	}
}

func TestEntitlementMonotonic(t *testing.T) {
	table := DefaultAccrualTable()
	hire := date(2001, 1, 15)
	prev := -1.0
	for asOf := hire; asOf.Before(date(2040, 1, 1)); asOf = asOf.AddDate(0, 1, 0) {
		got, err := Entitlement(&hire, asOf, table)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got < prev {
			t.Fatalf("entitlement decreased at %s: %v < %v", asOf.Format("2006-01-02"), got, prev)
		}
		prev = got
	}
}

func TestEntitlementFirstYearMonthly(t *testing.T) {
	table := DefaultAccrualTable()
	table.FirstYearMonthly = true
	hire := date(2025, 1, 10)

	got, err := Entitlement(&hire, date(2025, 4, 9), table)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2 completed months, got %v", got)
	}
	got, _ = Entitlement(&hire, date(2025, 12, 31), table)
	if got != 11 {
		t.Fatalf("expected cap of 11, got %v", got)
	}
}

func TestEntitlementEdgeCases(t *testing.T) {
	table := DefaultAccrualTable()
	future := date(2030, 1, 1)
	got, err := Entitlement(&future, date(2025, 1, 1), table)
	if err != nil || got != 0 {
		t.Fatalf("expected 0 for future hire, got %v (%v)", got, err)
	}
	if _, err := Entitlement(nil, date(2025, 1, 1), table); !errors.Is(err, ErrMissingHireDate) {
		t.Fatalf("expected ErrMissingHireDate, got %v", err)
	}
}

func TestEntitlementReferenceDate(t *testing.T) {
	veteran := date(2018, 5, 1)
	if got := EntitlementReferenceDate(&veteran, 2025); !got.Equal(date(2025, 1, 1)) {
		t.Fatalf("expected Jan 1, got %s", got)
	}
	newcomer := date(2025, 3, 1)
	if got := EntitlementReferenceDate(&newcomer, 2025); !got.Equal(date(2025, 12, 31)) {
		t.Fatalf("expected Dec 31, got %s", got)
	}
}
