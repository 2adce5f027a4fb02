package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownValue is returned when a string does not name a member of one of
// the closed enumerations in this package.
var ErrUnknownValue = errors.New("unknown value")

// NotificationType controls the visual treatment of a notification.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
	NotificationError   NotificationType = "error"
)

// ParseNotificationType converts s into a NotificationType.
func ParseNotificationType(s string) (NotificationType, error) {
	switch t := NotificationType(strings.ToLower(strings.TrimSpace(s))); t {
	case NotificationSuccess, NotificationWarning, NotificationInfo, NotificationError:
		return t, nil
	}
	return "", fmt.Errorf("notification type %q: %w", s, ErrUnknownValue)
}

// Category groups notifications by the part of the portal that raised them.
type Category string

const (
	CategorySystem      Category = "system"
	CategoryAppointment Category = "appointment"
	CategoryResults     Category = "results"
	CategoryPayment     Category = "payment"
	CategoryGeneral     Category = "general"
)

// ParseCategory converts s into a Category.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategorySystem, CategoryAppointment, CategoryResults, CategoryPayment, CategoryGeneral:
		return c, nil
	}
	return "", fmt.Errorf("notification category %q: %w", s, ErrUnknownValue)
}

// Action is the single button a notification may carry.
type Action struct {
	// Label is the button text.
	Label string

	// Run is invoked when the button is pressed. It may be nil.
	Run func()
}

// Notification represents an alert surfaced to the current user.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// Type selects the icon and color.
	Type NotificationType `json:"type"`

	// Title is the short headline.
	Title string `json:"title"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Category identifies which part of the portal produced this notification.
	Category Category `json:"category"`

	// Timestamp is when this notification was created.
	Timestamp time.Time `json:"timestamp"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// Persistent notifications are never auto-dismissed.
	Persistent bool `json:"persistent"`

	// Action is the optional button attached to the notification.
	Action *Action `json:"-"`
}

// HasAction reports whether n carries a button.
func (n Notification) HasAction() bool {
	return n.Action != nil && n.Action.Label != ""
}
