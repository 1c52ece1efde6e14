package repository

import (
	"context"

	"telegram-crm-relay/internal/domain/model"
)

// RecentCompaniesRepository tracks the companies a user flushed to most
// recently. Bumps refresh the record's TTL and cap the list length.
type RecentCompaniesRepository interface {
	// Touch inserts or bumps a company with the current timestamp.
	Touch(ctx context.Context, tgID int64, c model.CompanyRef) error
	// List returns most-recently-used companies, newest first, bounded.
	List(ctx context.Context, tgID int64) ([]model.CompanyRef, error)
}
