package core

import (
	"strings"
	"time"
)

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"

	Person1 Person = "person1"
	Person2 Person = "person2"
	Shared  Person = "shared"

	TypeExpense TransactionType = "expense"
	TypeIncome  TransactionType = "income"
)

const maxDescriptionLen = 200

// DefaultNotificationDays is the reminder window of a recurring item created
// without one.
const DefaultNotificationDays = 3

type (
	Frequency       string
	Person          string
	TransactionType string

	Expense struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		CategoryID  string          `json:"category"`
		Date        Date            `json:"date"`
		Person      Person          `json:"person"`
		Type        TransactionType `json:"type"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	RecurringExpense struct {
		ID               string          `json:"id"`
		UserID           string          `json:"user_id"`
		Description      string          `json:"description"`
		Amount           Money           `json:"amount"`
		CategoryID       string          `json:"category"`
		Person           Person          `json:"person"`
		Type             TransactionType `json:"type"`
		Frequency        Frequency       `json:"frequency"`
		DueDay           int             `json:"due_day"`
		IsActive         bool            `json:"is_active"`
		NextDueDate      Date            `json:"next_due_date"`
		LastPaidDate     Date            `json:"last_paid_date"`
		NotificationDays int             `json:"notification_days"`
		CreatedAt        time.Time       `json:"created_at"`
	}

	Category struct {
		ID     string `json:"id"`
		UserID string `json:"user_id"`
		Name   string `json:"name"`
		Color  string `json:"color"`
		Icon   string `json:"icon"`
	}
)

var (
	ErrInvalidAmount       = NewValidationError("amount", "must be greater than zero")
	ErrEmptyDescription    = NewValidationError("description", "cannot be empty")
	ErrDescriptionTooLong  = NewValidationError("description", "too long (max 200 characters)")
	ErrEmptyCategory       = NewValidationError("category", "cannot be empty")
	ErrInvalidPerson       = NewValidationError("person", "must be person1, person2 or shared")
	ErrInvalidType         = NewValidationError("type", "must be expense or income")
	ErrInvalidFrequency    = NewValidationError("frequency", "must be weekly, monthly or yearly")
	ErrInvalidDueDay       = NewValidationError("due_day", "out of range for frequency")
	ErrInvalidNotifyWindow = NewValidationError("notification_days", "must be between 0 and 365")
	ErrEmptyCategoryName   = NewValidationError("name", "cannot be empty")
)

func (p Person) Valid() bool {
	switch p {
	case Person1, Person2, Shared:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t == TypeExpense || t == TypeIncome
}

func (f Frequency) Valid() bool {
	switch f {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// ValidateSchedule checks a frequency/due-day pair.
// Weekly days are 0 (Sunday) to 6 (Saturday), monthly 1..31, yearly 1..366.
func ValidateSchedule(f Frequency, dueDay int) error {
	switch f {
	case Weekly:
		if dueDay < 0 || dueDay > 6 {
			return ErrInvalidDueDay
		}
	case Monthly:
		if dueDay < 1 || dueDay > 31 {
			return ErrInvalidDueDay
		}
	case Yearly:
		if dueDay < 1 || dueDay > 366 {
			return ErrInvalidDueDay
		}
	default:
		return ErrInvalidFrequency
	}
	return nil
}

func validateDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return ErrEmptyDescription
	}
	if len(desc) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if !e.Person.Valid() {
		return ErrInvalidPerson
	}
	if !e.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (re RecurringExpense) Validate() error {
	if err := validateDescription(re.Description); err != nil {
		return err
	}
	if err := re.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(re.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if !re.Person.Valid() {
		return ErrInvalidPerson
	}
	if !re.Type.Valid() {
		return ErrInvalidType
	}
	if err := ValidateSchedule(re.Frequency, re.DueDay); err != nil {
		return err
	}
	if re.NotificationDays < 0 || re.NotificationDays > 365 {
		return ErrInvalidNotifyWindow
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	if len(c.Name) > 60 {
		return NewValidationError("name", "too long (max 60 characters)")
	}
	return nil
}
