package domain

import (
	"time"
)

// Notification types, one per consumed event.
const (
	TypeWelcome              = "welcome"
	TypeReservationCreated   = "reservation_created"
	TypeReservationCancelled = "reservation_cancelled"
)

// ChannelLog delivers by writing a structured log line.
const ChannelLog = "log"

// Notification status constants.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusRead    = "read"
)

// DefaultMaxRetries is the default maximum number of delivery attempts after
// the first one fails.
const DefaultMaxRetries = 3

// Notification is a message to a user about something that happened to
// their account or bookings.
type Notification struct {
	ID         int64          `json:"id"`
	UserID     int64          `json:"userId"`
	Type       string         `json:"type"`
	Channel    string         `json:"channel"`
	Subject    string         `json:"subject"`
	Body       string         `json:"body"`
	Status     string         `json:"status"`
	EventID    string         `json:"eventId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	SentAt     *time.Time     `json:"sentAt,omitempty"`
	ReadAt     *time.Time     `json:"readAt,omitempty"`
	RetryCount int            `json:"retryCount"`
	MaxRetries int            `json:"maxRetries"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// MarkSent records a successful delivery at now.
func (n *Notification) MarkSent(now time.Time) {
	n.Status = StatusSent
	n.SentAt = &now
}

// MarkFailed records a failed delivery attempt.
func (n *Notification) MarkFailed() {
	n.Status = StatusFailed
	n.RetryCount++
}

// MarkRead records that the user has seen the notification. Reading twice
// keeps the first ReadAt.
func (n *Notification) MarkRead(now time.Time) {
	n.Status = StatusRead
	if n.ReadAt == nil {
		n.ReadAt = &now
	}
}

// CanRetry reports whether a failed notification has attempts left.
func (n *Notification) CanRetry() bool {
	return n.Status == StatusFailed && n.RetryCount <= n.MaxRetries
}

// ValidStatuses returns the set of valid notification statuses.
func ValidStatuses() []string {
	return []string{StatusPending, StatusSent, StatusFailed, StatusRead}
}

// IsValidStatus checks whether the given status string is a valid notification status.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}
