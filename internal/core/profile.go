package core

import (
	"strings"
	"time"
)

// FreeMonthlyTransactionLimit is the number of transactions a free profile
// can record per calendar month.
const FreeMonthlyTransactionLimit = 5

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"

	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionCancelled SubscriptionStatus = "cancelled"

	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnspecified Gender = "unspecified"

	// AccountPlaceholder is an invited account whose owner has not set a password yet.
	AccountPlaceholder AccountState = "placeholder"
	AccountActive      AccountState = "active"
)

type (
	Plan               string
	SubscriptionStatus string
	Gender             string
	AccountState       string

	Profile struct {
		ID                      string             `json:"id"`
		Email                   string             `json:"email"`
		FullName                string             `json:"full_name"`
		Gender                  Gender             `json:"gender"`
		Plan                    Plan               `json:"plan_type"`
		SubscriptionStatus      SubscriptionStatus `json:"subscription_status"`
		MonthlyTransactionsUsed int                `json:"monthly_transactions_used"`
		LastTransactionReset    time.Time          `json:"last_transaction_reset"`
		IsAdmin                 bool               `json:"is_admin"`
		InvitedBy               string             `json:"invited_by,omitempty"`
		Account                 AccountState       `json:"account_state"`
		PasswordHash            string             `json:"-"`
		CreatedAt               time.Time          `json:"created_at"`
		UpdatedAt               time.Time          `json:"updated_at"`
	}

	// Couple pairs two profiles. The pair is unordered.
	Couple struct {
		ID        string    `json:"id"`
		User1ID   string    `json:"user1_id"`
		User2ID   string    `json:"user2_id"`
		CreatedAt time.Time `json:"created_at"`
	}
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderUnspecified:
		return true
	}
	return false
}

func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPremium
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewPlaceholder returns the account created for an invited partner. Premium
// benefits of the inviter carry over before the partner ever signs in.
func NewPlaceholder(id, email string, inviter Profile, now time.Time) Profile {
	p := Profile{
		ID:                   id,
		Email:                NormalizeEmail(email),
		Gender:               GenderUnspecified,
		Plan:                 PlanFree,
		SubscriptionStatus:   SubscriptionInactive,
		LastTransactionReset: now,
		InvitedBy:            inviter.ID,
		Account:              AccountPlaceholder,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if inviter.IsPremium() {
		p.Plan = PlanPremium
		p.SubscriptionStatus = SubscriptionActive
	}
	return p
}

func (p Profile) IsPremium() bool {
	return p.Plan == PlanPremium
}

func (p Profile) IsPlaceholder() bool {
	return p.Account == AccountPlaceholder
}

// Activate turns a placeholder into an active account. It is the only
// transition out of AccountPlaceholder.
func (p *Profile) Activate(passwordHash, fullName string, now time.Time) error {
	if p.Account != AccountPlaceholder {
		return ErrAlreadyResolved
	}
	p.Account = AccountActive
	p.PasswordHash = passwordHash
	if strings.TrimSpace(fullName) != "" {
		p.FullName = strings.TrimSpace(fullName)
	}
	p.UpdatedAt = now
	return nil
}

// ResetUsageIfNewMonth zeroes the monthly counter when the last reset happened
// in an earlier calendar month. Reports whether a reset happened.
func (p *Profile) ResetUsageIfNewMonth(now time.Time) bool {
	ly, lm, _ := p.LastTransactionReset.Date()
	ny, nm, _ := now.Date()
	if !p.LastTransactionReset.IsZero() && ly == ny && lm == nm {
		return false
	}
	p.MonthlyTransactionsUsed = 0
	p.LastTransactionReset = now
	return true
}

// CanRecordTransaction reports whether the plan allows one more transaction this month.
func (p Profile) CanRecordTransaction() bool {
	if p.IsPremium() {
		return true
	}
	return p.MonthlyTransactionsUsed < FreeMonthlyTransactionLimit
}

// Has reports whether id is one of the two members.
func (c Couple) Has(id string) bool {
	return c.User1ID == id || c.User2ID == id
}

// PartnerOf returns the other member's id, or "" if id is not a member.
func (c Couple) PartnerOf(id string) string {
	switch id {
	case c.User1ID:
		return c.User2ID
	case c.User2ID:
		return c.User1ID
	}
	return ""
}
