package postgres

import (
	"context"

	"telegram-crm-relay/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4/pgxpool"
)

var _ repository.NoteAuditRepository = (*NoteAuditRepo)(nil)

type NoteAuditRepo struct{ pool *pgxpool.Pool }

func NewNoteAuditRepo(pool *pgxpool.Pool) *NoteAuditRepo {
	return &NoteAuditRepo{pool: pool}
}

// EnsureSchema creates the audit table if it does not exist yet.
func (r *NoteAuditRepo) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS note_audit (
  id            BIGSERIAL PRIMARY KEY,
  tg_id         BIGINT NOT NULL,
  company_id    TEXT NOT NULL,
  company_name  TEXT NOT NULL,
  note_id       TEXT NOT NULL,
  message_count INT NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	_, err := r.pool.Exec(ctx, q)
	return err
}

func (r *NoteAuditRepo) Record(ctx context.Context, a *repository.NoteAudit) error {
	const q = `
INSERT INTO note_audit (tg_id, company_id, company_name, note_id, message_count, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := r.pool.Exec(ctx, q, a.TgID, a.CompanyID, a.CompanyName, a.NoteID, a.MessageCount, a.CreatedAt)
	return err
}

func (r *NoteAuditRepo) Stats(ctx context.Context) (*repository.RelayStats, error) {
	const q = `
SELECT COUNT(*), COALESCE(SUM(message_count), 0), COUNT(DISTINCT tg_id) FROM note_audit;`
	var s repository.RelayStats
	if err := r.pool.QueryRow(ctx, q).Scan(&s.Notes, &s.Messages, &s.Users); err != nil {
		return nil, err
	}
	return &s, nil
}
