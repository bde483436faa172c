package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/marcim390/financeapp/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads one JSON document into dst, refusing unknown fields and
// oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return badRequest("content type must be application/json")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var verr *core.ValidationError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &verr):
			return verr
		case errors.As(err, &maxErr):
			return badRequest("request body too large")
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		default:
			return badRequest("invalid JSON: " + err.Error())
		}
	}
	if dec.More() {
		return badRequest("request body must hold a single JSON document")
	}
	return nil
}

// parseMonth reads the reporting month from ?month=YYYY-MM or ?year=&month=N.
// No parameters yields the zero time, meaning the current month.
func parseMonth(q url.Values) (time.Time, error) {
	raw := strings.TrimSpace(q.Get("month"))
	year := strings.TrimSpace(q.Get("year"))
	if raw == "" && year == "" {
		return time.Time{}, nil
	}

	if year == "" {
		t, err := time.Parse("2006-01", raw)
		if err != nil {
			return time.Time{}, core.NewValidationError("month", "must be YYYY-MM")
		}
		return t, nil
	}

	y, err := strconv.Atoi(year)
	if err != nil || y < 1900 || y > 9999 {
		return time.Time{}, core.NewValidationError("year", "must be a four digit year")
	}
	m := int(time.Now().Month())
	if raw != "" {
		m, err = strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			return time.Time{}, core.NewValidationError("month", "must be between 1 and 12")
		}
	}
	return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC), nil
}

// pathID returns the {id} wildcard, trimmed.
func pathID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", badRequest("missing id in path")
	}
	return id, nil
}

// sanitizeInput trims free text and drops control characters except newline and tab.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// expenseRequest is the writable part of an expense.
type expenseRequest struct {
	Description string               `json:"description"`
	Amount      core.Money           `json:"amount"`
	Category    string               `json:"category"`
	Date        core.Date            `json:"date"`
	Person      core.Person          `json:"person"`
	Type        core.TransactionType `json:"type"`
}

func (req expenseRequest) toExpense(id string) core.Expense {
	typ := req.Type
	if typ == "" {
		typ = core.TypeExpense
	}
	return core.Expense{
		ID:          id,
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		CategoryID:  strings.TrimSpace(req.Category),
		Date:        req.Date,
		Person:      req.Person,
		Type:        typ,
	}
}

type recurringRequest struct {
	Description      string               `json:"description"`
	Amount           core.Money           `json:"amount"`
	Category         string               `json:"category"`
	Person           core.Person          `json:"person"`
	Type             core.TransactionType `json:"type"`
	Frequency        core.Frequency       `json:"frequency"`
	DueDay           int                  `json:"due_day"`
	NextDueDate      core.Date            `json:"next_due_date"`
	NotificationDays *int                 `json:"notification_days"`
}

func (req recurringRequest) toRecurring(id string) core.RecurringExpense {
	typ := req.Type
	if typ == "" {
		typ = core.TypeExpense
	}
	notify := core.DefaultNotificationDays
	if req.NotificationDays != nil {
		notify = *req.NotificationDays
	}
	return core.RecurringExpense{
		ID:               id,
		Description:      sanitizeInput(req.Description),
		Amount:           req.Amount,
		CategoryID:       strings.TrimSpace(req.Category),
		Person:           req.Person,
		Type:             typ,
		Frequency:        req.Frequency,
		DueDay:           req.DueDay,
		NextDueDate:      req.NextDueDate,
		NotificationDays: notify,
	}
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (req categoryRequest) toCategory(id string) core.Category {
	return core.Category{
		ID:    id,
		Name:  sanitizeInput(req.Name),
		Color: strings.TrimSpace(req.Color),
		Icon:  strings.TrimSpace(req.Icon),
	}
}

type notificationRequest struct {
	Title       string        `json:"title"`
	Message     string        `json:"message"`
	TargetUsers core.Audience `json:"target_users"`
	SendEmail   bool          `json:"send_email"`
}

type invitationRequest struct {
	Email string `json:"email"`
}

type registrationRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type activeRequest struct {
	Active *bool `json:"active"`
}

type planRequest struct {
	Plan core.Plan `json:"plan_type"`
}

// requireField is a small guard for mandatory JSON members.
func requireField(ok bool, field string) error {
	if !ok {
		return core.NewValidationError(field, fmt.Sprintf("%s is required", field))
	}
	return nil
}
