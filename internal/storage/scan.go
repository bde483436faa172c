package storage

import (
	"fmt"
	"time"

	"github.com/marcim390/financeapp/internal/core"
)

// timestampLayout is fixed width so TEXT columns sort chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ts converts a timestamp into the argument the dialect stores.
func (s *Store) ts(t time.Time) any {
	if s.dialect == DialectPostgres {
		return t.UTC()
	}
	return t.UTC().Format(timestampLayout)
}

// nullTS is ts for optional timestamps.
func (s *Store) nullTS(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return s.ts(*t)
}

// date converts a calendar day; the zero Date is stored as NULL.
func (s *Store) date(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	if s.dialect == DialectPostgres {
		return d.Time
	}
	return d.Format(core.DateLayout)
}

// timeScanner accepts time.Time (pgx) or text (sqlite) and NULL.
type timeScanner struct {
	t     time.Time
	valid bool
}

var timeLayouts = []string{
	timestampLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	core.DateLayout,
}

func (ts *timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		ts.t, ts.valid = time.Time{}, false
		return nil
	case time.Time:
		ts.t, ts.valid = v.UTC(), true
		return nil
	case []byte:
		return ts.parse(string(v))
	case string:
		return ts.parse(v)
	}
	return fmt.Errorf("cannot scan %T into time", src)
}

func (ts *timeScanner) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.t, ts.valid = t.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("cannot parse time %q", s)
}

func (ts timeScanner) ptr() *time.Time {
	if !ts.valid {
		return nil
	}
	t := ts.t
	return &t
}

func (ts timeScanner) date() core.Date {
	if !ts.valid {
		return core.Date{}
	}
	return core.DateOf(ts.t)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
