// internal/models/notification.go
package models

import "time"

// MatchNotification is the record of one seeker notification about a
// completed match batch.
type MatchNotification struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"requestId"`
	SeekerID    string    `json:"seekerId"`
	Channel     string    `json:"channel"` // email, push, webhook
	MatchCount  int       `json:"matchCount"`
	TopProvider string    `json:"topProvider,omitempty"`
	Status      string    `json:"status"`
	SentAt      time.Time `json:"sentAt"`
}

const (
	NotificationStatusSent     = "sent"
	NotificationStatusFailed   = "failed"
	NotificationStatusDisabled = "disabled"
)
