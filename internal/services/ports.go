package services

import (
	"context"

	"github.com/marcim390/financeapp/internal/core"
)

// Gateway ports. Implementations return core.ErrNotFound for missing rows,
// core.ErrGatewayUnavailable for connectivity failures, and the conflict
// errors (ErrAlreadyCoupled, ErrDuplicateInvitation, ErrEmailTaken) when a
// uniqueness rule rejects a write.

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (core.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (core.Profile, error)
	CreateProfile(ctx context.Context, p core.Profile) error
	UpdateProfile(ctx context.Context, p core.Profile) error
	ListProfiles(ctx context.Context) ([]core.Profile, error)
	// DeleteOrphanedPlaceholder removes the placeholder for email when it has
	// no accepted or pending invitations, no expenses and no couple.
	DeleteOrphanedPlaceholder(ctx context.Context, email string) (bool, error)
}

type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv core.Invitation) error
	GetInvitation(ctx context.Context, id string) (core.Invitation, error)
	FindPendingInvitation(ctx context.Context, senderID, email string) (core.Invitation, error)
	ListSentInvitations(ctx context.Context, senderID string) ([]core.Invitation, error)
	ListReceivedInvitations(ctx context.Context, email string) ([]core.Invitation, error)
	UpdateInvitation(ctx context.Context, inv core.Invitation) error
	DeleteInvitation(ctx context.Context, id string) error
}

type CoupleStore interface {
	CreateCouple(ctx context.Context, c core.Couple) error
	GetCouple(ctx context.Context, id string) (core.Couple, error)
	FindCoupleByMember(ctx context.Context, profileID string) (core.Couple, error)
	DeleteCouple(ctx context.Context, id string) error
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) error
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	// ListExpenses returns the owner's records, newest first.
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
}

type CategoryStore interface {
	CreateCategory(ctx context.Context, c core.Category) error
	GetCategory(ctx context.Context, id string) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
}

type RecurringStore interface {
	CreateRecurring(ctx context.Context, r core.RecurringExpense) error
	GetRecurring(ctx context.Context, id string) (core.RecurringExpense, error)
	UpdateRecurring(ctx context.Context, r core.RecurringExpense) error
	DeleteRecurring(ctx context.Context, id string) error
	// ListRecurring returns the owner's items ordered by next due date.
	ListRecurring(ctx context.Context, userID string) ([]core.RecurringExpense, error)
	ListActiveRecurring(ctx context.Context) ([]core.RecurringExpense, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n core.Notification) error
	GetNotification(ctx context.Context, id string) (core.Notification, error)
	UpdateNotification(ctx context.Context, n core.Notification) error
	DeleteNotification(ctx context.Context, id string) error
	ListNotifications(ctx context.Context) ([]core.Notification, error)
}

// Transactor runs fn atomically. Store calls made with the ctx passed to fn
// join the transaction; an error from fn rolls it back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Gateway is the whole persistence surface.
type Gateway interface {
	ProfileStore
	InvitationStore
	CoupleStore
	ExpenseStore
	CategoryStore
	RecurringStore
	NotificationStore
	Transactor
}
