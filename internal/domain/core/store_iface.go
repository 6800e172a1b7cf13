package core

import "context"

// Directory is the read side other domains depend on.
type Directory interface {
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
}

type StoreAPI interface {
	Directory
	UpsertEmployee(ctx context.Context, emp Employee) error
}
