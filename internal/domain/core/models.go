package core

import (
	"time"

	"hrdesk/internal/domain/auth"
)

// Employee is the directory view this service consumes. Employee CRUD is
// owned elsewhere; this service only reads it.
type Employee struct {
	ID             string     `json:"id"`
	EmployeeNumber string     `json:"employeeNumber,omitempty"`
	Name           string     `json:"name"`
	Department     string     `json:"department"`
	Role           auth.Role  `json:"role"`
	ManagerID      string     `json:"managerId,omitempty"`
	HireDate       *time.Time `json:"hireDate,omitempty"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
