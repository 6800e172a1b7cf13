package leave

import (
	"context"
	"time"
)

type StoreAPI interface {
	ActivePolicy(ctx context.Context) (Policy, error)
	InsertPolicy(ctx context.Context, p Policy) (Policy, error)
	PolicyHistory(ctx context.Context) ([]Policy, error)

	GetBalance(ctx context.Context, employeeID string, year int) (Balance, error)
	// EnsureBalance inserts seed unless a balance for the key exists and
	// returns the stored row.
	EnsureBalance(ctx context.Context, seed Balance) (Balance, error)
	ApplyAdjustment(ctx context.Context, adj Adjustment) (Balance, error)
	ListAdjustments(ctx context.Context, employeeID string, year int) ([]Adjustment, error)
	// CarryOver credits min(remaining, cap) of FromYear into the target
	// balance and marks the source processed in one write. applied is false
	// when the source was already processed.
	CarryOver(ctx context.Context, op CarryOverOp) (credited float64, applied bool, err error)

	CreateRequest(ctx context.Context, req Request) (Request, error)
	GetRequest(ctx context.Context, id string) (Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) (RequestListResult, error)
	CountPending(ctx context.Context, employeeID string) (int, error)
	// ListActiveOverlapping returns pending, approved and cancellation-pending
	// requests intersecting [start, end].
	ListActiveOverlapping(ctx context.Context, start, end time.Time) ([]Request, error)
	// ApplyTransition changes status and balance in one write and fails with
	// ErrStaleRequest when the stored status is no longer t.From.
	ApplyTransition(ctx context.Context, t Transition) (Request, error)

	CreateException(ctx context.Context, ex Exception) (Exception, error)
	UpdateException(ctx context.Context, ex Exception) (Exception, error)
	DeleteException(ctx context.Context, date time.Time) error
	ListExceptions(ctx context.Context, from, to time.Time) ([]Exception, error)
}
