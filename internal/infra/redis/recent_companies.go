package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"telegram-crm-relay/internal/domain/model"
	"telegram-crm-relay/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ repository.RecentCompaniesRepository = (*RecentCompaniesRepo)(nil)

// RecentCompaniesRepo keeps a per-user sorted set of flushed-to companies.
// Member is the serialized {id,name} pair, score is the bump timestamp.
// Every bump refreshes the TTL and trims the set to the configured cap.
type RecentCompaniesRepo struct {
	client *Client
	ttl    time.Duration
	max    int
	log    zerolog.Logger
}

func NewRecentCompaniesRepo(client *Client, ttl time.Duration, max int, log *zerolog.Logger) *RecentCompaniesRepo {
	return &RecentCompaniesRepo{client: client, ttl: ttl, max: max, log: log.With().Str("repo", "recent_companies").Logger()}
}

func (r *RecentCompaniesRepo) key(tgID int64) string {
	return fmt.Sprintf("recent_companies:%d", tgID)
}

func (r *RecentCompaniesRepo) Touch(ctx context.Context, tgID int64, c model.CompanyRef) error {
	key := r.key(tgID)
	member, err := json.Marshal(model.CompanyRef{ID: c.ID, Name: c.Name})
	if err != nil {
		return err
	}

	score := float64(time.Now().UnixMilli())
	if err := r.client.ZAdd(ctx, key, score, string(member)); err != nil {
		return err
	}
	if err := r.client.Expire(ctx, key, r.ttl); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", tgID).Msg("refresh recent companies ttl")
	}
	// Drop everything below the newest max entries.
	if err := r.client.ZRemRangeByRank(ctx, key, 0, int64(-(r.max + 1))); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", tgID).Msg("trim recent companies")
	}
	return nil
}

func (r *RecentCompaniesRepo) List(ctx context.Context, tgID int64) ([]model.CompanyRef, error) {
	members, err := r.client.ZRevRange(ctx, r.key(tgID), 0, 4)
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, err
	}

	companies := make([]model.CompanyRef, 0, len(members))
	for _, m := range members {
		var c model.CompanyRef
		if err := json.Unmarshal([]byte(m), &c); err != nil {
			r.log.Warn().Int64("tg_id", tgID).Msg("skipping corrupt recent company member")
			continue
		}
		companies = append(companies, c)
	}
	return companies, nil
}
