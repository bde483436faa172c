// Package billing holds the recurring-billing rules: when an item is next due,
// how it classifies against today, and what paying it produces.
//
// Each frequency has its own Scheduler registered in a strategy map, so adding
// a frequency means adding one type and one map entry.
package billing

import (
	"fmt"
	"time"

	"github.com/marcim390/financeapp/internal/core"
)

// Scheduler computes the next occurrence of a due day strictly after from.
type Scheduler interface {
	Next(dueDay int, from core.Date) core.Date
}

// WeeklyScheduler treats dueDay as a weekday, 0 = Sunday through 6 = Saturday.
type WeeklyScheduler struct{}

// Next returns the first date after from that falls on the weekday. The same
// weekday yields from + 7 days.
func (WeeklyScheduler) Next(dueDay int, from core.Date) core.Date {
	delta := (dueDay - int(from.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return from.AddDays(delta)
}

// MonthlyScheduler treats dueDay as a day of month, clamped to the month's last day.
type MonthlyScheduler struct{}

// Next returns this month's clamped due day when it is after from, otherwise
// next month's.
func (MonthlyScheduler) Next(dueDay int, from core.Date) core.Date {
	y, m, _ := from.Date()
	if d := clampToMonth(y, m, dueDay); d.After(from) {
		return d
	}
	// time.Date normalises December + 1 into January of the following year.
	next := time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
	return clampToMonth(next.Year(), next.Month(), dueDay)
}

// YearlyScheduler treats dueDay as a day of the year, 1 = January 1, clamped to December 31.
type YearlyScheduler struct{}

func (YearlyScheduler) Next(dueDay int, from core.Date) core.Date {
	y := from.Year()
	if d := dayOfYear(y, dueDay); d.After(from) {
		return d
	}
	return dayOfYear(y+1, dueDay)
}

func clampToMonth(year int, month time.Month, day int) core.Date {
	if last := core.DaysIn(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return core.NewDate(year, month, day)
}

func dayOfYear(year, day int) core.Date {
	last := 365
	if core.DaysIn(year, time.February) == 29 {
		last = 366
	}
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return core.NewDate(year, time.January, 1).AddDays(day - 1)
}

// schedulers maps each frequency to its strategy.
var schedulers = map[core.Frequency]Scheduler{
	core.Weekly:  WeeklyScheduler{},
	core.Monthly: MonthlyScheduler{},
	core.Yearly:  YearlyScheduler{},
}

// SchedulerFor returns the strategy for a frequency.
func SchedulerFor(f core.Frequency) (Scheduler, error) {
	s, ok := schedulers[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency %q: %w", f, core.ErrInvalidFrequency)
	}
	return s, nil
}

// NextDueDate returns the next due date strictly after from. The schedule is
// validated first, so an out-of-range dueDay is a ValidationError rather than
// a silently clamped date.
func NextDueDate(f core.Frequency, dueDay int, from core.Date) (core.Date, error) {
	if err := core.ValidateSchedule(f, dueDay); err != nil {
		return core.Date{}, err
	}
	s, err := SchedulerFor(f)
	if err != nil {
		return core.Date{}, err
	}
	return s.Next(dueDay, from), nil
}

// InitialDueDate is the first due date of a new item created on today. A
// new item is never due on its creation day.
func InitialDueDate(f core.Frequency, dueDay int, today core.Date) (core.Date, error) {
	return NextDueDate(f, dueDay, today)
}
