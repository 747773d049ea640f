package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		indexes := []string{
			// Target history reads newest-first.
			"CREATE INDEX IF NOT EXISTS idx_audit_target_created " +
				"ON audit_log_entries (target_id, created_at DESC, id DESC)",
			// Health reports scan one scope over a time window.
			"CREATE INDEX IF NOT EXISTS idx_audit_scope_created " +
				"ON audit_log_entries (scope_id, created_at DESC)",
			// Appeal validation looks punishments up by user.
			"CREATE INDEX IF NOT EXISTS idx_punishments_user " +
				"ON punishments (user_id, active)",
			// Expiry sweeps find active punishments past their deadline.
			"CREATE INDEX IF NOT EXISTS idx_punishments_expiry " +
				"ON punishments (expires_at) WHERE active",
			// Pending-appeal checks and reviewer listings.
			"CREATE INDEX IF NOT EXISTS idx_appeals_punishment_status " +
				"ON appeals (punishment_id, status)",
		}

		for _, index := range indexes {
			if _, err := db.NewRaw(index).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}
		}

		return nil
	}, func(_ context.Context, _ *bun.DB) error {
		return nil
	})
}
