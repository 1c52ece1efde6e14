package adapter

import (
	"context"

	"telegram-crm-relay/internal/domain/model"
)

// CreateNoteInput describes a single note to attach to a CRM record.
type CreateNoteInput struct {
	ParentObject   string
	ParentRecordID string
	Title          string
	Format         string
	Content        string
}

// CRMAdapter is the port for the company directory and note store.
type CRMAdapter interface {
	// SearchCompanies resolves a free-text query to candidate companies.
	SearchCompanies(ctx context.Context, query string) ([]model.CompanyRef, error)
	// CreateNote persists one note and returns its id.
	CreateNote(ctx context.Context, in CreateNoteInput) (noteID string, err error)
}
