package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/email"
	"github.com/marcim390/financeapp/internal/kv"
	"github.com/marcim390/financeapp/internal/metrics"
)

func settingsKey(profileID string) string {
	return kv.Key("settings", "notifications", profileID)
}

// NotificationService owns reminder preferences and admin broadcasts.
type NotificationService struct {
	gw    Gateway
	store kv.Store
	mail  email.Dispatcher
	runtime
}

func NewNotificationService(gw Gateway, store kv.Store, mail email.Dispatcher) *NotificationService {
	if mail == nil {
		mail = email.LogDispatcher{}
	}
	return &NotificationService{gw: gw, store: store, mail: mail, runtime: defaultRuntime()}
}

// Settings returns the stored preferences or the defaults.
func (s *NotificationService) Settings(ctx context.Context, profileID string) (core.NotificationSettings, error) {
	return loadSettings(ctx, s.store, profileID)
}

func loadSettings(ctx context.Context, store kv.Store, profileID string) (core.NotificationSettings, error) {
	settings := core.DefaultNotificationSettings()
	if _, err := kv.GetJSON(ctx, store, settingsKey(profileID), &settings); err != nil {
		return core.NotificationSettings{}, err
	}
	return settings, nil
}

func (s *NotificationService) SaveSettings(ctx context.Context, profileID string, settings core.NotificationSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	return kv.SetJSON(ctx, s.store, settingsKey(profileID), settings, 0)
}

// ActiveFor returns the active broadcasts aimed at the profile's plan.
func (s *NotificationService) ActiveFor(ctx context.Context, profileID string) ([]core.Notification, error) {
	p, err := s.gw.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	all, err := s.gw.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}
	out := []core.Notification{}
	for _, n := range all {
		if n.VisibleTo(p) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *NotificationService) List(ctx context.Context, adminID string) ([]core.Notification, error) {
	if _, err := requireAdmin(ctx, s.gw, adminID); err != nil {
		return nil, err
	}
	return s.gw.ListNotifications(ctx)
}

// Create stores an active broadcast. With sendEmail set, every targeted
// active profile that accepts email notifications also gets it by email.
func (s *NotificationService) Create(ctx context.Context, adminID string, n core.Notification, sendEmail bool) (core.Notification, error) {
	if _, err := requireAdmin(ctx, s.gw, adminID); err != nil {
		return core.Notification{}, err
	}
	n.ID = s.newID()
	n.Title = strings.TrimSpace(n.Title)
	n.IsActive = true
	n.CreatedBy = adminID
	n.CreatedAt = s.now()
	if n.TargetUsers == "" {
		n.TargetUsers = core.TargetAll
	}
	if err := n.Validate(); err != nil {
		return core.Notification{}, err
	}
	if err := s.gw.CreateNotification(ctx, n); err != nil {
		return core.Notification{}, err
	}
	if sendEmail {
		s.broadcast(ctx, n)
	}
	return n, nil
}

func (s *NotificationService) broadcast(ctx context.Context, n core.Notification) {
	profiles, err := s.gw.ListProfiles(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list profiles for broadcast", "notification_id", n.ID, "error", err)
		return
	}
	sent := 0
	for _, p := range profiles {
		if p.IsPlaceholder() || !n.VisibleTo(p) {
			continue
		}
		settings, err := loadSettings(ctx, s.store, p.ID)
		if err != nil || !settings.Enabled || !settings.EmailNotifications {
			continue
		}
		msg, err := email.Render(p.Email, email.AdminNotificationData{Title: n.Title, Message: n.Message})
		if err == nil {
			err = s.mail.Send(ctx, msg)
		}
		metrics.EmailResult(string(email.TypeAdminNotification), err)
		if err != nil {
			slog.WarnContext(ctx, "Failed to email notification", "notification_id", n.ID, "profile_id", p.ID, "error", err)
			continue
		}
		sent++
	}
	slog.InfoContext(ctx, "Notification broadcast", "notification_id", n.ID, "emails", sent)
}

// Toggle flips a broadcast between active and inactive.
func (s *NotificationService) Toggle(ctx context.Context, adminID, id string) (core.Notification, error) {
	if _, err := requireAdmin(ctx, s.gw, adminID); err != nil {
		return core.Notification{}, err
	}
	n, err := s.gw.GetNotification(ctx, id)
	if err != nil {
		return core.Notification{}, err
	}
	n.IsActive = !n.IsActive
	if err := s.gw.UpdateNotification(ctx, n); err != nil {
		return core.Notification{}, err
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, adminID, id string) error {
	if _, err := requireAdmin(ctx, s.gw, adminID); err != nil {
		return err
	}
	return s.gw.DeleteNotification(ctx, id)
}
