package storage

import (
	"context"
	"database/sql"
)

// ExecForTest runs raw SQL for test setup.
func ExecForTest(s *Store, ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.exec(ctx, query, args...)
}
