package core

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee: not found")
	ErrInvalidEmployee  = errors.New("employee: invalid record")
)
