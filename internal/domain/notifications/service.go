package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrdesk/internal/domain/auth"
	"hrdesk/internal/platform/apperr"
)

var ErrNoEmployee = errors.New("notifications: caller has no employee record")

type Service struct {
	store StoreAPI
	Now   func() time.Time
}

func New(store StoreAPI) *Service {
	return &Service{store: store, Now: time.Now}
}

// Create stores a notification for recipientID. An empty recipient is a no-op.
func (s *Service) Create(ctx context.Context, recipientID, ntype, title, body string) error {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil
	}
	return s.store.CreateNotification(ctx, Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Type:        ntype,
		Title:       title,
		Body:        body,
		CreatedAt:   s.Now().UTC(),
	})
}

// Send is Create for callers that must not fail on delivery problems.
func (s *Service) Send(ctx context.Context, recipientID, ntype, title, body string) {
	if s == nil {
		return
	}
	if err := s.Create(ctx, recipientID, ntype, title, body); err != nil {
		slog.WarnContext(ctx, "notification create failed", "type", ntype, "recipientId", recipientID, "err", err)
	}
}

func recipient(actor auth.Principal) (string, error) {
	if actor.EmployeeID == "" {
		return "", apperr.Forbidden(ErrNoEmployee)
	}
	return actor.EmployeeID, nil
}

// List returns the caller's notifications newest first with the total count.
func (s *Service) List(ctx context.Context, actor auth.Principal, unreadOnly bool, limit, offset int) ([]Notification, int, error) {
	id, err := recipient(actor)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountNotifications(ctx, id, unreadOnly)
	if err != nil {
		slog.WarnContext(ctx, "notification count failed", "err", err)
	}
	items, err := s.store.ListNotifications(ctx, id, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) UnreadCount(ctx context.Context, actor auth.Principal) (int, error) {
	id, err := recipient(actor)
	if err != nil {
		return 0, err
	}
	return s.store.CountNotifications(ctx, id, true)
}

func (s *Service) MarkRead(ctx context.Context, actor auth.Principal, notificationID string) error {
	id, err := recipient(actor)
	if err != nil {
		return err
	}
	err = s.store.MarkRead(ctx, id, notificationID, s.Now().UTC())
	if errors.Is(err, ErrNotFound) {
		return apperr.NotFound(err)
	}
	return err
}

func (s *Service) MarkAllRead(ctx context.Context, actor auth.Principal) (int, error) {
	id, err := recipient(actor)
	if err != nil {
		return 0, err
	}
	return s.store.MarkAllRead(ctx, id, s.Now().UTC())
}
