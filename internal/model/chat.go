package model

import (
	"fmt"
	"strings"
	"time"
)

// Sender identifies who authored a chat message.
type Sender string

const (
	SenderUser   Sender = "user"
	SenderAdmin  Sender = "admin"
	SenderSystem Sender = "system"
)

// ParseSender converts s into a Sender.
func ParseSender(s string) (Sender, error) {
	switch v := Sender(strings.ToLower(strings.TrimSpace(s))); v {
	case SenderUser, SenderAdmin, SenderSystem:
		return v, nil
	}
	return "", fmt.Errorf("message sender %q: %w", s, ErrUnknownValue)
}

// DeliveryStatus tracks a user-authored message from send to read.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
)

// ParseDeliveryStatus converts s into a DeliveryStatus.
func ParseDeliveryStatus(s string) (DeliveryStatus, error) {
	switch v := DeliveryStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case StatusSent, StatusDelivered, StatusRead:
		return v, nil
	}
	return "", fmt.Errorf("delivery status %q: %w", s, ErrUnknownValue)
}

// rank orders statuses so they can only move forward.
func (s DeliveryStatus) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	default:
		return 0
	}
}

// Advance returns next if it is further along than s, otherwise s.
func (s DeliveryStatus) Advance(next DeliveryStatus) DeliveryStatus {
	if next.rank() > s.rank() {
		return next
	}
	return s
}

// Message is a single entry in a chat transcript.
type Message struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Sender     Sender         `json:"sender"`
	SenderName string         `json:"sender_name"`
	SenderRole string         `json:"sender_role"`
	Timestamp  time.Time      `json:"timestamp"`
	Status     DeliveryStatus `json:"status"`
}

// Role is the portal role of the signed-in user.
type Role string

const (
	RolePatient Role = "patient"
	RoleAdmin   Role = "admin"
	RoleGuest   Role = "guest"
)

// ParseRole converts s into a Role.
func ParseRole(s string) (Role, error) {
	switch v := Role(strings.ToLower(strings.TrimSpace(s))); v {
	case RolePatient, RoleAdmin, RoleGuest:
		return v, nil
	}
	return "", fmt.Errorf("role %q: %w", s, ErrUnknownValue)
}

// Identity is the display name and role supplied by the sign-in step.
type Identity struct {
	Name string `mapstructure:"name" yaml:"name"`
	Role Role   `mapstructure:"role" yaml:"role" validate:"omitempty,oneof=patient admin guest"`
}

// DisplayName returns the name used in greetings, defaulting to "User".
func (i Identity) DisplayName() string {
	if strings.TrimSpace(i.Name) == "" {
		return "User"
	}
	return strings.TrimSpace(i.Name)
}

// SenderRole returns the role label attached to messages this user sends.
func (i Identity) SenderRole() string {
	switch i.Role {
	case RoleAdmin:
		return "Admin"
	case RoleGuest:
		return "Guest"
	default:
		return "Patient"
	}
}

// IsComplete reports whether both name and role are set.
func (i Identity) IsComplete() bool {
	return strings.TrimSpace(i.Name) != "" && i.Role != ""
}
