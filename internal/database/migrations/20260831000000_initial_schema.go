package migrations

import (
	"context"
	"fmt"

	"github.com/modwatch/sentinel/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []struct {
			model any
			name  string
		}{
			{(*types.AuditLogEntry)(nil), "audit_log_entries"},
			{(*types.Punishment)(nil), "punishments"},
			{(*types.Appeal)(nil), "appeals"},
		}

		for _, m := range models {
			_, err := db.NewCreateTable().
				Model(m.model).
				ModelTableExpr(m.name).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %s: %w", m.name, err)
			}
		}

		// The audit log is append-only; the unique pair makes idempotent
		// re-processing a no-op instead of a duplicate entry.
		_, err := db.NewRaw(
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_audit_request_action " +
				"ON audit_log_entries (request_id, action_type)").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create audit uniqueness index: %w", err)
		}

		// The engine issues at most one punishment per request; the
		// index holds that across processes.
		_, err = db.NewRaw(
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_punishments_request " +
				"ON punishments (request_id)").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create punishment uniqueness index: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, name := range []string{"appeals", "punishments", "audit_log_entries"} {
			if _, err := db.NewRaw("DROP TABLE IF EXISTS " + name).Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", name, err)
			}
		}

		return nil
	})
}
