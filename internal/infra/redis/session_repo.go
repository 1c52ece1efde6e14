package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-crm-relay/internal/domain"
	"telegram-crm-relay/internal/domain/model"
	"telegram-crm-relay/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo persists per-user relay sessions as JSON blobs with a short
// TTL. Expiry silently resets a batch that was never flushed; that loss is
// an accepted boundary, handled by the caller as "not found -> fresh idle".
type SessionRepo struct {
	client *Client
	ttl    time.Duration
}

func NewSessionRepo(client *Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{client: client, ttl: ttl}
}

func (r *SessionRepo) sessionKey(tgID int64) string {
	return fmt.Sprintf("relay_session:%d", tgID)
}

func (r *SessionRepo) Get(ctx context.Context, tgID int64) (*model.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(tgID))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var s model.Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		// A corrupt record is indistinguishable from an absent one.
		return nil, domain.ErrNotFound
	}
	if s.State == "" {
		s.State = model.StateIdle
	}
	return &s, nil
}

func (r *SessionRepo) Put(ctx context.Context, tgID int64, s *model.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.sessionKey(tgID), data, r.ttl)
}

func (r *SessionRepo) Delete(ctx context.Context, tgID int64) error {
	return r.client.Del(ctx, r.sessionKey(tgID))
}
