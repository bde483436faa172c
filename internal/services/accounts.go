package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/email"
	"github.com/marcim390/financeapp/internal/metrics"
)

const minPasswordLen = 8

var defaultCategories = []core.Category{
	{Name: "Food", Color: "#ef4444", Icon: "utensils"},
	{Name: "Housing", Color: "#3b82f6", Icon: "home"},
	{Name: "Transport", Color: "#f59e0b", Icon: "car"},
	{Name: "Health", Color: "#10b981", Icon: "heart"},
	{Name: "Leisure", Color: "#8b5cf6", Icon: "smile"},
	{Name: "Salary", Color: "#22c55e", Icon: "wallet"},
}

// LimitStatus describes the monthly allowance of a profile.
type LimitStatus struct {
	Plan      core.Plan `json:"plan_type"`
	Allowed   bool      `json:"allowed"`
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Unlimited bool      `json:"unlimited"`
}

// ProfilePatch carries the editable profile fields. Nil fields are left as is.
type ProfilePatch struct {
	FullName *string      `json:"full_name"`
	Gender   *core.Gender `json:"gender"`
}

// AccountService owns profiles: first sign-in, placeholder activation,
// plan changes and the free-plan transaction allowance.
type AccountService struct {
	gw       Gateway
	hashCost int
	runtime
}

func NewAccountService(gw Gateway) *AccountService {
	return &AccountService{gw: gw, hashCost: bcrypt.DefaultCost, runtime: defaultRuntime()}
}

func (s *AccountService) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	return s.gw.GetProfile(ctx, id)
}

// EnsureProfile returns the profile for id, creating a free active one with
// the default categories on first sign-in. A new identity whose email
// belongs to a placeholder signs in as that placeholder; an email held by
// an active profile yields ErrEmailTaken.
func (s *AccountService) EnsureProfile(ctx context.Context, id, addr string) (core.Profile, error) {
	p, err := s.gw.GetProfile(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Profile{}, err
	}
	if err := email.ValidateAddress(addr); err != nil {
		return core.Profile{}, err
	}

	now := s.now()
	p = core.Profile{
		ID:                   id,
		Email:                core.NormalizeEmail(addr),
		Gender:               core.GenderUnspecified,
		Plan:                 core.PlanFree,
		SubscriptionStatus:   core.SubscriptionInactive,
		LastTransactionReset: now,
		Account:              core.AccountActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	err = s.gw.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.gw.CreateProfile(ctx, p); err != nil {
			return err
		}
		for _, c := range defaultCategories {
			c.ID = s.newID()
			c.UserID = id
			if err := s.gw.CreateCategory(ctx, c); err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
		}
		return nil
	})
	if errors.Is(err, core.ErrEmailTaken) {
		return s.placeholderFor(ctx, addr)
	}
	if err != nil {
		return core.Profile{}, err
	}
	slog.InfoContext(ctx, "Profile created", "profile_id", id)
	return p, nil
}

func (s *AccountService) placeholderFor(ctx context.Context, addr string) (core.Profile, error) {
	p, err := s.gw.GetProfileByEmail(ctx, addr)
	if err != nil {
		return core.Profile{}, err
	}
	if !p.IsPlaceholder() {
		return core.Profile{}, fmt.Errorf("sign in as %s: %w", core.NormalizeEmail(addr), core.ErrEmailTaken)
	}
	return p, nil
}

// CompleteRegistration activates the placeholder created for an invited
// partner: it sets the password and the display name.
func (s *AccountService) CompleteRegistration(ctx context.Context, addr, password, fullName string) (core.Profile, error) {
	if len(password) < minPasswordLen {
		return core.Profile{}, core.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	p, err := s.gw.GetProfileByEmail(ctx, core.NormalizeEmail(addr))
	if err != nil {
		return core.Profile{}, err
	}
	if !p.IsPlaceholder() {
		return core.Profile{}, core.ErrAlreadyResolved
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return core.Profile{}, fmt.Errorf("hash password: %w", err)
	}
	if err := p.Activate(string(hash), fullName, s.now()); err != nil {
		return core.Profile{}, err
	}
	if err := s.gw.UpdateProfile(ctx, p); err != nil {
		return core.Profile{}, fmt.Errorf("activate profile: %w", err)
	}
	slog.InfoContext(ctx, "Placeholder account activated", "profile_id", p.ID)
	return p, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (core.Profile, error) {
	p, err := s.gw.GetProfile(ctx, id)
	if err != nil {
		return core.Profile{}, err
	}
	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		if len(name) > 120 {
			return core.Profile{}, core.NewValidationError("full_name", "too long (max 120 characters)")
		}
		p.FullName = name
	}
	if patch.Gender != nil {
		if !patch.Gender.Valid() {
			return core.Profile{}, core.NewValidationError("gender", "must be male, female or unspecified")
		}
		p.Gender = *patch.Gender
	}
	p.UpdatedAt = s.now()
	if err := s.gw.UpdateProfile(ctx, p); err != nil {
		return core.Profile{}, err
	}
	return p, nil
}

// CheckTransactionLimit resets the monthly counter when a new month started
// and reports whether one more transaction is allowed.
func (s *AccountService) CheckTransactionLimit(ctx context.Context, profileID string) (LimitStatus, error) {
	var status LimitStatus
	err := s.gw.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.currentUsage(ctx, profileID)
		if err != nil {
			return err
		}
		status = limitStatus(p)
		return nil
	})
	return status, err
}

// IncrementTransactionCount counts one transaction against the allowance.
// It does not enforce the limit; RecordTransaction does.
func (s *AccountService) IncrementTransactionCount(ctx context.Context, profileID string) error {
	return s.gw.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.currentUsage(ctx, profileID)
		if err != nil {
			return err
		}
		p.MonthlyTransactionsUsed++
		return s.gw.UpdateProfile(ctx, p)
	})
}

// RecordTransaction runs write inside a transaction guarded by the monthly
// allowance and counts it on success.
func (s *AccountService) RecordTransaction(ctx context.Context, profileID string, write func(ctx context.Context) error) error {
	return s.gw.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.currentUsage(ctx, profileID)
		if err != nil {
			return err
		}
		if !p.CanRecordTransaction() {
			metrics.LimitRejections.Inc()
			return core.ErrLimitExceeded
		}
		if err := write(ctx); err != nil {
			return err
		}
		p.MonthlyTransactionsUsed++
		return s.gw.UpdateProfile(ctx, p)
	})
}

// currentUsage loads the profile with its counter reset for the current month.
func (s *AccountService) currentUsage(ctx context.Context, profileID string) (core.Profile, error) {
	p, err := s.gw.GetProfile(ctx, profileID)
	if err != nil {
		return core.Profile{}, err
	}
	if p.ResetUsageIfNewMonth(s.now()) {
		if err := s.gw.UpdateProfile(ctx, p); err != nil {
			return core.Profile{}, fmt.Errorf("reset monthly usage: %w", err)
		}
	}
	return p, nil
}

func limitStatus(p core.Profile) LimitStatus {
	return LimitStatus{
		Plan:      p.Plan,
		Allowed:   p.CanRecordTransaction(),
		Used:      p.MonthlyTransactionsUsed,
		Limit:     core.FreeMonthlyTransactionLimit,
		Unlimited: p.IsPremium(),
	}
}

// SetPlan changes a profile's plan. Only admins may call it.
func (s *AccountService) SetPlan(ctx context.Context, adminID, profileID string, plan core.Plan) (core.Profile, error) {
	if _, err := requireAdmin(ctx, s.gw, adminID); err != nil {
		return core.Profile{}, err
	}
	if !plan.Valid() {
		return core.Profile{}, core.NewValidationError("plan_type", "must be free or premium")
	}
	p, err := s.gw.GetProfile(ctx, profileID)
	if err != nil {
		return core.Profile{}, err
	}
	p.Plan = plan
	p.SubscriptionStatus = core.SubscriptionInactive
	if plan == core.PlanPremium {
		p.SubscriptionStatus = core.SubscriptionActive
	}
	p.UpdatedAt = s.now()
	if err := s.gw.UpdateProfile(ctx, p); err != nil {
		return core.Profile{}, err
	}
	slog.InfoContext(ctx, "Plan changed", "profile_id", p.ID, "plan", plan, "admin_id", adminID)
	return p, nil
}

// ListProfiles returns every profile. Only admins may call it.
func (s *AccountService) ListProfiles(ctx context.Context, adminID string) ([]core.Profile, error) {
	if _, err := requireAdmin(ctx, s.gw, adminID); err != nil {
		return nil, err
	}
	return s.gw.ListProfiles(ctx)
}
