// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"encoding/json"
	"sync"

	"telegram-crm-relay/internal/domain"
	"telegram-crm-relay/internal/domain/model"
	"telegram-crm-relay/internal/domain/ports/adapter"
	"telegram-crm-relay/internal/domain/ports/repository"
)

// memSessionRepo is a small in-memory implementation used by unit tests.
type memSessionRepo struct {
	mu     sync.Mutex
	store  map[int64][]byte
	getErr error
	putErr error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{store: make(map[int64][]byte)}
}

func (m *memSessionRepo) Get(ctx context.Context, tgID int64) (*model.Session, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var s model.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *memSessionRepo) Put(ctx context.Context, tgID int64, s *model.Session) error {
	if m.putErr != nil {
		return m.putErr
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[tgID] = b
	return nil
}

func (m *memSessionRepo) Delete(ctx context.Context, tgID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, tgID)
	return nil
}

// mustGet fails silently on decode problems; tests assert on the result.
func (m *memSessionRepo) mustGet(tgID int64) *model.Session {
	s, err := m.Get(context.Background(), tgID)
	if err != nil {
		return model.NewSession()
	}
	return s
}

type memRecentsRepo struct {
	mu      sync.Mutex
	items   map[int64][]model.CompanyRef
	touched []model.CompanyRef
	listErr error
}

func newMemRecentsRepo() *memRecentsRepo {
	return &memRecentsRepo{items: make(map[int64][]model.CompanyRef)}
}

func (m *memRecentsRepo) Touch(ctx context.Context, tgID int64, c model.CompanyRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched = append(m.touched, c)
	existing := m.items[tgID]
	next := []model.CompanyRef{{ID: c.ID, Name: c.Name}}
	for _, e := range existing {
		if e.ID != c.ID {
			next = append(next, e)
		}
	}
	m.items[tgID] = next
	return nil
}

func (m *memRecentsRepo) List(ctx context.Context, tgID int64) ([]model.CompanyRef, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items[tgID]
	if len(items) > 5 {
		items = items[:5]
	}
	out := make([]model.CompanyRef, len(items))
	copy(out, items)
	return out, nil
}

type fakeCRM struct {
	mu            sync.Mutex
	searchResults []model.CompanyRef
	searchErr     error
	createErr     error
	queries       []string
	noteInputs    []adapter.CreateNoteInput
}

func (f *fakeCRM) SearchCompanies(ctx context.Context, query string) ([]model.CompanyRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := make([]model.CompanyRef, len(f.searchResults))
	copy(out, f.searchResults)
	return out, nil
}

func (f *fakeCRM) CreateNote(ctx context.Context, in adapter.CreateNoteInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noteInputs = append(f.noteInputs, in)
	if f.createErr != nil {
		return "", f.createErr
	}
	return "note-1", nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*repository.NoteAudit
}

func (m *memAuditRepo) Record(ctx context.Context, a *repository.NoteAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memAuditRepo) Stats(ctx context.Context) (*repository.RelayStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &repository.RelayStats{Notes: len(m.entries)}
	users := map[int64]struct{}{}
	for _, e := range m.entries {
		stats.Messages += e.MessageCount
		users[e.TgID] = struct{}{}
	}
	stats.Users = len(users)
	return stats, nil
}
