package history

import (
	"context"
	"database/sql"
)

// Exec runs raw SQL against the store for tests that need to corrupt state.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}
