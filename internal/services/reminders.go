package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcim390/financeapp/internal/billing"
	"github.com/marcim390/financeapp/internal/core"
	"github.com/marcim390/financeapp/internal/email"
	"github.com/marcim390/financeapp/internal/kv"
	"github.com/marcim390/financeapp/internal/metrics"
)

// ReminderProcessorConfig holds configuration for the reminder processor.
type ReminderProcessorConfig struct {
	// Interval between passes (default: 1h)
	Interval time.Duration

	// Workers is how many profiles are processed concurrently (default: 4)
	Workers int

	// SentTTL is how long a sent reminder is remembered (default: 60 days)
	SentTTL time.Duration

	// BaseURL prefixes the link in reminder emails
	BaseURL string
}

func DefaultReminderProcessorConfig() ReminderProcessorConfig {
	return ReminderProcessorConfig{
		Interval: time.Hour,
		Workers:  4,
		SentTTL:  60 * 24 * time.Hour,
	}
}

// ReminderProcessor periodically emails due and overdue reminders for
// active recurring items. Each (item, due date, status) is reminded once.
type ReminderProcessor struct {
	gw     Gateway
	store  kv.Store
	mail   email.Dispatcher
	config ReminderProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReminderProcessor(gw Gateway, store kv.Store, mail email.Dispatcher, config ReminderProcessorConfig) *ReminderProcessor {
	def := DefaultReminderProcessorConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}
	if config.SentTTL <= 0 {
		config.SentTTL = def.SentTTL
	}
	if mail == nil {
		mail = email.LogDispatcher{}
	}
	return &ReminderProcessor{gw: gw, store: store, mail: mail, config: config}
}

// Start begins the processing loop. Returns an error if already running.
func (p *ReminderProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("reminder processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Reminder processor started", "interval", p.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current pass to finish.
func (p *ReminderProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	close(p.stopCh)

	select {
	case <-p.doneCh:
		slog.InfoContext(ctx, "Reminder processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reminder processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *ReminderProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ReminderProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.runOnce(ctx, time.Now())

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			p.runOnce(ctx, now)
		}
	}
}

func (p *ReminderProcessor) runOnce(ctx context.Context, now time.Time) {
	sent, err := p.ProcessReminders(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "Reminder pass failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "Reminder pass complete",
		"sent", sent,
		"next_check", now.Add(p.config.Interval).Format("15:04:05"))
}

// ProcessReminders classifies every active item at now and emails the
// owners of overdue and upcoming ones. It returns how many emails went out.
// Failures for one profile are logged and do not stop the others.
func (p *ReminderProcessor) ProcessReminders(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	defer func() { metrics.ReminderRuns.Observe(time.Since(start).Seconds()) }()

	items, err := p.gw.ListActiveRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active recurring expenses: %w", err)
	}

	byOwner := make(map[string][]core.RecurringExpense)
	for _, it := range items {
		byOwner[it.UserID] = append(byOwner[it.UserID], it)
	}

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)
	for owner, owned := range byOwner {
		g.Go(func() error {
			n, err := p.remindOwner(gctx, owner, owned, now)
			sent.Add(int64(n))
			if err != nil {
				slog.ErrorContext(gctx, "Failed to process reminders for profile",
					"profile_id", owner,
					"error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.DebugContext(ctx, "Processed reminders",
		"active_items", len(items),
		"profiles", len(byOwner),
		"sent", sent.Load())
	return int(sent.Load()), ctx.Err()
}

func (p *ReminderProcessor) remindOwner(ctx context.Context, ownerID string, items []core.RecurringExpense, now time.Time) (int, error) {
	settings, err := loadSettings(ctx, p.store, ownerID)
	if err != nil {
		return 0, err
	}
	if !settings.Enabled || !settings.EmailNotifications {
		return 0, nil
	}
	owner, err := p.gw.GetProfile(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, it := range items {
		c := billing.Classify(it, now)
		if !p.shouldRemind(c, settings) {
			continue
		}
		key := kv.Key("reminder", it.ID, it.NextDueDate.String(), string(c.Status))
		_, seen, err := p.store.Get(ctx, key)
		if err != nil {
			return sent, err
		}
		if seen {
			continue
		}
		if err := p.send(ctx, owner, it, c); err != nil {
			slog.WarnContext(ctx, "Failed to send reminder",
				"recurring_id", it.ID,
				"status", c.Status,
				"error", err)
			continue
		}
		if err := p.store.Set(ctx, key, []byte(now.UTC().Format(time.RFC3339)), p.config.SentTTL); err != nil {
			return sent + 1, fmt.Errorf("remember reminder: %w", err)
		}
		sent++
	}
	return sent, nil
}

// shouldRemind reports whether a classification deserves an email. Upcoming
// items are reminded within the profile's days-before-due window.
func (p *ReminderProcessor) shouldRemind(c billing.Classification, settings core.NotificationSettings) bool {
	switch c.Status {
	case billing.StatusOverdue:
		return true
	case billing.StatusUpcoming:
		return c.DaysUntil <= settings.DaysBeforeDue
	}
	return false
}

func (p *ReminderProcessor) send(ctx context.Context, owner core.Profile, it core.RecurringExpense, c billing.Classification) error {
	link := ""
	if p.config.BaseURL != "" {
		link = p.config.BaseURL + "/recurring"
	}
	msg, err := email.Render(owner.Email, email.ExpenseDueData{
		Description: it.Description,
		Amount:      it.Amount,
		DueDate:     it.NextDueDate,
		DaysUntil:   c.DaysUntil,
		Overdue:     c.Status == billing.StatusOverdue,
		Link:        link,
	})
	if err != nil {
		return err
	}
	err = p.mail.Send(ctx, msg)
	metrics.EmailResult(string(email.TypeExpenseDue), err)
	if err == nil {
		metrics.Reminders.WithLabelValues(string(c.Status)).Inc()
	}
	return err
}
