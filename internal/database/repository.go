package database

import (
	"github.com/modwatch/sentinel/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	audit      *models.AuditModel
	punishment *models.PunishmentModel
	appeal     *models.AppealModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		audit:      models.NewAudit(db, logger),
		punishment: models.NewPunishment(db, logger),
		appeal:     models.NewAppeal(db, logger),
	}
}

// Audit returns the audit log model repository.
func (r *Repository) Audit() *models.AuditModel {
	return r.audit
}

// Punishment returns the punishment model repository.
func (r *Repository) Punishment() *models.PunishmentModel {
	return r.punishment
}

// Appeal returns the appeal model repository.
func (r *Repository) Appeal() *models.AppealModel {
	return r.appeal
}
