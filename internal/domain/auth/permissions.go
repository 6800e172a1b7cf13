package auth

// Role is the coarse role carried in the access token.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleUser       Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleUser:
		return true
	}
	return false
}

type Action string

const (
	ActLeaveSubmit         Action = "leave.submit"
	ActLeaveRead           Action = "leave.read"
	ActLeaveDecide         Action = "leave.decide"
	ActLeaveWithdraw       Action = "leave.withdraw"
	ActLeaveCancelRequest  Action = "leave.cancel.request"
	ActLeaveCancelDecide   Action = "leave.cancel.decide"
	ActLeavePolicyRead     Action = "leave.policy.read"
	ActLeavePolicyWrite    Action = "leave.policy.write"
	ActLeaveExceptionWrite Action = "leave.exception.write"
	ActLeaveBalanceRead    Action = "leave.balance.read"
	ActLeaveBalanceAdjust  Action = "leave.balance.adjust"
	ActLeaveCarryOver      Action = "leave.carryover.run"
	ActPayrollUpload       Action = "payroll.upload"
	ActPayrollRead         Action = "payroll.read"
	ActPayrollAdjust       Action = "payroll.adjust"
	ActOpsRead             Action = "ops.read"
	ActEmployeeRead        Action = "employee.read"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID     string `json:"userId"`
	EmployeeID string `json:"employeeId"`
	Role       Role   `json:"role"`
}

func (p Principal) Authenticated() bool {
	return p.UserID != "" && p.Role.Valid()
}

// Resource describes whose data an action touches. Zero value means
// a resource not owned by any one employee (policy, exceptions, uploads).
type Resource struct {
	OwnerEmployeeID string
	OwnerManagerID  string
}

// SystemPrincipal is used by scheduled jobs.
func SystemPrincipal() Principal {
	return Principal{UserID: "system", Role: RoleAdmin}
}

// Can is the single authorization decision point.
func Can(p Principal, action Action, res Resource) bool {
	if !p.Authenticated() {
		return false
	}
	self := res.OwnerEmployeeID != "" && p.EmployeeID != "" && res.OwnerEmployeeID == p.EmployeeID
	manages := p.Role == RoleSupervisor && p.EmployeeID != "" && res.OwnerManagerID == p.EmployeeID

	switch action {
	case ActLeaveWithdraw, ActLeaveCancelRequest:
		return self
	case ActLeaveSubmit:
		return self || p.Role == RoleAdmin
	case ActLeaveRead, ActLeaveBalanceRead, ActEmployeeRead:
		return self || manages || p.Role == RoleAdmin
	case ActLeaveDecide, ActLeaveCancelDecide:
		if self {
			return false
		}
		return manages || p.Role == RoleAdmin
	case ActLeavePolicyRead:
		return true
	case ActPayrollRead:
		return self || p.Role == RoleAdmin
	case ActLeavePolicyWrite, ActLeaveExceptionWrite, ActLeaveBalanceAdjust, ActLeaveCarryOver,
		ActPayrollUpload, ActPayrollAdjust, ActOpsRead:
		return p.Role == RoleAdmin
	}
	return false
}
