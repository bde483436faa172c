// Package email renders and dispatches the application's emails: couple
// invitations, due/overdue reminders and admin broadcasts.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/badoux/checkmail"

	"github.com/marcim390/financeapp/internal/core"
)

type MessageType string

const (
	TypeInvitation        MessageType = "couple_invitation"
	TypeExpenseDue        MessageType = "expense_due"
	TypeAdminNotification MessageType = "admin_notification"
)

const (
	templateInvitation        = "invitation.html"
	templateExpenseDue        = "expense_due.html"
	templateAdminNotification = "admin_notification.html"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Type    MessageType
}

// Dispatcher delivers a message. Callers treat delivery as fire-and-forget:
// a failure is logged, never propagated to the user's request.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// Data is the payload of one email kind.
type Data interface {
	TemplateFileName() string
	Subject() string
	Type() MessageType
}

type InvitationData struct {
	SenderName  string
	SenderEmail string
	Link        string
	ExpiresAt   time.Time
}

func (InvitationData) TemplateFileName() string { return templateInvitation }
func (InvitationData) Type() MessageType        { return TypeInvitation }
func (d InvitationData) Subject() string {
	name := d.SenderName
	if name == "" {
		name = d.SenderEmail
	}
	return name + " invited you to share your finances"
}

type ExpenseDueData struct {
	Description string
	Amount      core.Money
	DueDate     core.Date
	DaysUntil   int
	Overdue     bool
	Link        string
}

func (ExpenseDueData) TemplateFileName() string { return templateExpenseDue }
func (ExpenseDueData) Type() MessageType        { return TypeExpenseDue }
func (d ExpenseDueData) Subject() string {
	if d.Overdue {
		return "Overdue: " + d.Description
	}
	return "Due soon: " + d.Description
}

// DaysOverdue is DaysUntil as a positive count.
func (d ExpenseDueData) DaysOverdue() int {
	if d.DaysUntil < 0 {
		return -d.DaysUntil
	}
	return d.DaysUntil
}

type AdminNotificationData struct {
	Title   string
	Message string
}

func (AdminNotificationData) TemplateFileName() string { return templateAdminNotification }
func (AdminNotificationData) Type() MessageType        { return TypeAdminNotification }
func (d AdminNotificationData) Subject() string        { return d.Title }

// Render executes the template for data addressed to to.
func Render(to string, data Data) (Message, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, data.TemplateFileName(), data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", data.TemplateFileName(), err)
	}
	return Message{
		To:      to,
		Subject: data.Subject(),
		HTML:    body.String(),
		Type:    data.Type(),
	}, nil
}

// ValidateAddress checks the syntax of an email address.
func ValidateAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return core.NewValidationError("email", "cannot be empty")
	}
	if err := checkmail.ValidateFormat(addr); err != nil {
		return core.NewValidationError("email", "invalid format")
	}
	return nil
}
