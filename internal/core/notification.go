package core

import (
	"strings"
	"time"
)

const (
	TargetAll     Audience = "all"
	TargetFree    Audience = "free"
	TargetPremium Audience = "premium"
)

type (
	Audience string

	// Notification is an admin broadcast shown to profiles matching TargetUsers.
	Notification struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Message     string    `json:"message"`
		TargetUsers Audience  `json:"target_users"`
		IsActive    bool      `json:"is_active"`
		CreatedBy   string    `json:"created_by"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// NotificationSettings are per-profile reminder preferences.
	NotificationSettings struct {
		Enabled            bool `json:"enabled"`
		DaysBeforeDue      int  `json:"days_before_due"`
		EmailNotifications bool `json:"email_notifications"`
	}
)

// DefaultNotificationSettings mirrors what a new profile starts with.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{Enabled: true, DaysBeforeDue: 3, EmailNotifications: true}
}

func (s NotificationSettings) Validate() error {
	if s.DaysBeforeDue < 0 || s.DaysBeforeDue > 30 {
		return NewValidationError("days_before_due", "must be between 0 and 30")
	}
	return nil
}

func (n Notification) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return NewValidationError("title", "cannot be empty")
	}
	if strings.TrimSpace(n.Message) == "" {
		return NewValidationError("message", "cannot be empty")
	}
	switch n.TargetUsers {
	case TargetAll, TargetFree, TargetPremium:
	default:
		return NewValidationError("target_users", "must be all, free or premium")
	}
	return nil
}

// VisibleTo reports whether an active notification targets the profile's plan.
func (n Notification) VisibleTo(p Profile) bool {
	if !n.IsActive {
		return false
	}
	switch n.TargetUsers {
	case TargetAll:
		return true
	case TargetFree:
		return p.Plan == PlanFree
	case TargetPremium:
		return p.Plan == PlanPremium
	}
	return false
}
