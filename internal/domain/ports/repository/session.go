package repository

import (
	"context"

	"telegram-crm-relay/internal/domain/model"
)

// SessionRepository is the port for the durable per-user session record.
// A missing or expired session surfaces as domain.ErrNotFound; the caller
// constructs a fresh idle session in that case.
type SessionRepository interface {
	Get(ctx context.Context, tgID int64) (*model.Session, error)
	Put(ctx context.Context, tgID int64, s *model.Session) error
	Delete(ctx context.Context, tgID int64) error
}
