package repository

import (
	"context"
	"time"
)

// NoteAudit is one successfully flushed batch.
type NoteAudit struct {
	TgID         int64
	CompanyID    string
	CompanyName  string
	NoteID       string
	MessageCount int
	CreatedAt    time.Time
}

// RelayStats aggregates the audit trail.
type RelayStats struct {
	Notes    int
	Messages int
	Users    int
}

// NoteAuditRepository records flushed batches for the admin stats surface.
// Writes are best-effort; a failed audit write never fails a flush.
type NoteAuditRepository interface {
	Record(ctx context.Context, a *NoteAudit) error
	Stats(ctx context.Context) (*RelayStats, error)
}
