package auth

import "testing"

func TestCanRequesterOnlyActions(t *testing.T) {
	owner := Resource{OwnerEmployeeID: "e1", OwnerManagerID: "m1"}
	requester := Principal{UserID: "u1", EmployeeID: "e1", Role: RoleUser}
	admin := Principal{UserID: "u9", EmployeeID: "e9", Role: RoleAdmin}
	manager := Principal{UserID: "u2", EmployeeID: "m1", Role: RoleSupervisor}

	for _, action := range []Action{ActLeaveWithdraw, ActLeaveCancelRequest} {
		if !Can(requester, action, owner) {
			t.Fatalf("expected requester to be allowed %s", action)
		}
		if Can(admin, action, owner) {
			t.Fatalf("expected admin to be denied %s on someone else's request", action)
		}
		if Can(manager, action, owner) {
			t.Fatalf("expected manager to be denied %s", action)
		}
	}
}

func TestCanDecide(t *testing.T) {
	owner := Resource{OwnerEmployeeID: "e1", OwnerManagerID: "m1"}
	cases := []struct {
		name string
		p    Principal
		want bool
	}{
		{"admin", Principal{UserID: "u9", EmployeeID: "e9", Role: RoleAdmin}, true},
		{"direct manager", Principal{UserID: "u2", EmployeeID: "m1", Role: RoleSupervisor}, true},
		{"other supervisor", Principal{UserID: "u3", EmployeeID: "m2", Role: RoleSupervisor}, false},
		{"plain user", Principal{UserID: "u4", EmployeeID: "e4", Role: RoleUser}, false},
		{"self as admin", Principal{UserID: "u1", EmployeeID: "e1", Role: RoleAdmin}, false},
		{"anonymous", Principal{}, false},
	}
	for _, tc := range cases {
		if got := Can(tc.p, ActLeaveDecide, owner); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestCanAdminOnly(t *testing.T) {
	user := Principal{UserID: "u1", EmployeeID: "e1", Role: RoleUser}
	admin := Principal{UserID: "u9", Role: RoleAdmin}
	for _, action := range []Action{ActLeavePolicyWrite, ActLeaveCarryOver, ActPayrollUpload, ActPayrollAdjust} {
		if Can(user, action, Resource{}) {
			t.Fatalf("expected user to be denied %s", action)
		}
		if !Can(admin, action, Resource{}) {
			t.Fatalf("expected admin to be allowed %s", action)
		}
	}
	if !Can(user, ActLeavePolicyRead, Resource{}) {
		t.Fatal("expected any authenticated principal to read the policy")
	}
	if !Can(user, ActPayrollRead, Resource{OwnerEmployeeID: "e1"}) {
		t.Fatal("expected employee to read own payroll")
	}
	if Can(user, ActPayrollRead, Resource{OwnerEmployeeID: "e2"}) {
		t.Fatal("expected employee to be denied another employee's payroll")
	}
}

func TestCanReadEmployee(t *testing.T) {
	owner := Resource{OwnerEmployeeID: "e1", OwnerManagerID: "m1"}
	if !Can(Principal{UserID: "u1", EmployeeID: "e1", Role: RoleUser}, ActEmployeeRead, owner) {
		t.Fatal("expected self read")
	}
	if !Can(Principal{UserID: "u2", EmployeeID: "m1", Role: RoleSupervisor}, ActEmployeeRead, owner) {
		t.Fatal("expected manager read")
	}
	if Can(Principal{UserID: "u3", EmployeeID: "e3", Role: RoleUser}, ActEmployeeRead, owner) {
		t.Fatal("expected colleague to be denied")
	}
}
