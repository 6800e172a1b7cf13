package core

import (
	"context"
	"errors"
	"testing"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/platform/config"
)

func TestSeedAndResourceFor(t *testing.T) {
	svc := NewService(NewMemoryStore())
	err := svc.Seed(context.Background(), []config.SeedEmployee{
		{ID: "m1", Name: "Park Jisoo", Role: "supervisor", HireDate: "2015-01-05"},
		{ID: "e1", Name: "Lee Doyun", ManagerID: "m1", HireDate: "2022-07-01"},
	})
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}

	res, err := svc.ResourceFor(context.Background(), "e1")
	if err != nil {
		t.Fatalf("resource error: %v", err)
	}
	if res.OwnerEmployeeID != "e1" || res.OwnerManagerID != "m1" {
		t.Fatalf("unexpected resource: %+v", res)
	}

	emp, err := svc.GetEmployee(context.Background(), "m1")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if emp.Role != auth.RoleSupervisor || emp.HireDate == nil || emp.HireDate.Year() != 2015 {
		t.Fatalf("unexpected employee: %+v", emp)
	}

	list, err := svc.ListEmployees(context.Background())
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Lee Doyun" {
		t.Fatalf("expected sorted list, got %+v", list)
	}
}

func TestSeedRejectsBadEntries(t *testing.T) {
	svc := NewService(NewMemoryStore())
	cases := []config.SeedEmployee{
		{Name: "No ID"},
		{ID: "e1", Name: "Bad Role", Role: "hr"},
		{ID: "e2", Name: "Bad Date", HireDate: "05/01/2020"},
	}
	for _, entry := range cases {
		if err := svc.Seed(context.Background(), []config.SeedEmployee{entry}); !errors.Is(err, ErrInvalidEmployee) {
			t.Fatalf("expected ErrInvalidEmployee for %+v, got %v", entry, err)
		}
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.GetEmployee(context.Background(), "missing"); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
