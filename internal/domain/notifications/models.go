package notifications

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification not found")

// Notification is an in-app message addressed to one employee.
type Notification struct {
	ID          string     `json:"id"`
	RecipientID string     `json:"recipientId"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
