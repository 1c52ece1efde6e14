package usecase

import (
	"context"

	"telegram-crm-relay/internal/domain/ports/repository"
)

// StatsUseCase summarizes the flush audit trail for the admin surface.
type StatsUseCase struct {
	audit repository.NoteAuditRepository
}

func NewStatsUseCase(audit repository.NoteAuditRepository) *StatsUseCase {
	return &StatsUseCase{audit: audit}
}

func (s *StatsUseCase) Summary(ctx context.Context) (*repository.RelayStats, error) {
	return s.audit.Stats(ctx)
}
