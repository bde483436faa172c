package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/marcim390/financeapp/internal/core"
)

// mapError translates driver errors into the core taxonomy. Unknown errors
// are returned unchanged so callers can still unwrap them.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return core.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isConnectivityError(err):
		return fmt.Errorf("%w: %v", core.ErrGatewayUnavailable, err)
	}

	if target, ok := uniqueViolation(err); ok {
		switch {
		case strings.Contains(target, "couple"):
			return core.ErrAlreadyCoupled
		case strings.Contains(target, "invitation"):
			return core.ErrDuplicateInvitation
		case strings.Contains(target, "profiles"), strings.Contains(target, "email"):
			return core.ErrEmailTaken
		}
	}
	return err
}

// uniqueViolation returns a string naming the violated table/constraint.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return "", false
		}
		return pgErr.TableName + " " + pgErr.ConstraintName, true
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return msg, true
	}
	return "", false
}

func isConnectivityError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unable to open database file") ||
		strings.Contains(msg, "sql: database is closed")
}
