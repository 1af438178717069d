package entity

import (
	"strings"
	"time"
)

// NotificationLevel is the severity of a user-facing notification
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationInfo    NotificationLevel = "info"
	NotificationWarning NotificationLevel = "warning"
	NotificationError   NotificationLevel = "error"
)

// Notification is a user-facing message raised by a view model, kept in the
// local notification center.
type Notification struct {
	ID         int64             `json:"id"`
	Level      NotificationLevel `json:"level"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	DocumentID *int64            `json:"document_id,omitempty"`
	InstanceID *int64            `json:"instance_id,omitempty"`
	Read       bool              `json:"read"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Rank orders levels by severity: info < success < warning < error
func (l NotificationLevel) Rank() int {
	switch l {
	case NotificationSuccess:
		return 1
	case NotificationWarning:
		return 2
	case NotificationError:
		return 3
	default:
		return 0
	}
}

// ParseNotificationLevel maps a config value to a level; unknown values map to info
func ParseNotificationLevel(s string) NotificationLevel {
	switch NotificationLevel(strings.ToLower(strings.TrimSpace(s))) {
	case NotificationSuccess:
		return NotificationSuccess
	case NotificationWarning:
		return NotificationWarning
	case NotificationError:
		return NotificationError
	}
	return NotificationInfo
}
