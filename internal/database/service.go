package database

import (
	"github.com/modwatch/sentinel/internal/database/service"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	appeal *service.AppealService
	health *service.HealthService
}

// NewService creates a new service instance with all services.
func NewService(repository *Repository, checker service.ModeratorChecker, logger *zap.Logger) *Service {
	return &Service{
		appeal: service.NewAppeal(repository.Appeal(), repository.Punishment(), repository.Audit(), checker, logger),
		health: service.NewHealth(repository.Audit(), logger),
	}
}

// Appeal returns the appeal service.
func (s *Service) Appeal() *service.AppealService {
	return s.appeal
}

// Health returns the health report service.
func (s *Service) Health() *service.HealthService {
	return s.health
}
