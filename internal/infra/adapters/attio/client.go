// File: internal/infra/adapters/attio/client.go
package attio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"telegram-crm-relay/internal/config"
	"telegram-crm-relay/internal/domain"
	"telegram-crm-relay/internal/domain/model"
	"telegram-crm-relay/internal/domain/ports/adapter"
	"telegram-crm-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ adapter.CRMAdapter = (*Client)(nil)

// Client talks to the Attio REST API: the companies object for directory
// lookups and the notes endpoint for persisting formatted batches.
type Client struct {
	http            *http.Client
	baseURL         string
	apiKey          string
	companiesObject string
	searchLimit     int
	log             zerolog.Logger
}

func NewClient(cfg *config.AttioConfig, displayLimit int, log *zerolog.Logger) *Client {
	return &Client{
		http:            &http.Client{Timeout: cfg.Timeout},
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		companiesObject: cfg.CompaniesObject,
		// Fetch a few beyond the display cap so truncation can say "N of M".
		searchLimit: displayLimit + 5,
		log:         log.With().Str("adapter", "attio").Logger(),
	}
}

type companyRecord struct {
	ID struct {
		RecordID string `json:"record_id"`
	} `json:"id"`
	Values struct {
		Name []struct {
			Value string `json:"value"`
		} `json:"name"`
		Locations []struct {
			Locality string `json:"locality"`
			Region   string `json:"region"`
			Country  string `json:"country"`
		} `json:"locations"`
	} `json:"values"`
}

func (c *Client) SearchCompanies(ctx context.Context, query string) ([]model.CompanyRef, error) {
	body := map[string]interface{}{
		"filter": map[string]interface{}{
			"name": map[string]string{"$contains": query},
		},
		"limit": c.searchLimit,
	}

	var resp struct {
		Data []companyRecord `json:"data"`
	}
	endpoint := fmt.Sprintf("/objects/%s/records/query", c.companiesObject)
	if err := c.request(ctx, http.MethodPost, endpoint, "search", body, &resp); err != nil {
		return nil, err
	}

	results := make([]model.CompanyRef, 0, len(resp.Data))
	for _, rec := range resp.Data {
		name := "Unnamed Company"
		if len(rec.Values.Name) > 0 && rec.Values.Name[0].Value != "" {
			name = rec.Values.Name[0].Value
		}
		var location string
		if len(rec.Values.Locations) > 0 {
			loc := rec.Values.Locations[0]
			parts := make([]string, 0, 3)
			for _, p := range []string{loc.Locality, loc.Region, loc.Country} {
				if p != "" {
					parts = append(parts, p)
				}
			}
			location = strings.Join(parts, ", ")
		}
		results = append(results, model.CompanyRef{ID: rec.ID.RecordID, Name: name, Location: location})
	}

	c.log.Info().Str("query", query).Int("count", len(results)).Msg("company search results")
	return results, nil
}

func (c *Client) CreateNote(ctx context.Context, in adapter.CreateNoteInput) (string, error) {
	body := map[string]interface{}{
		"data": map[string]string{
			"parent_object":    in.ParentObject,
			"parent_record_id": in.ParentRecordID,
			"title":            in.Title,
			"format":           in.Format,
			"content":          in.Content,
		},
	}

	var resp struct {
		Data struct {
			ID struct {
				NoteID string `json:"note_id"`
			} `json:"id"`
		} `json:"data"`
	}
	if err := c.request(ctx, http.MethodPost, "/notes", "create_note", body, &resp); err != nil {
		return "", err
	}

	c.log.Info().Str("note_id", resp.Data.ID.NoteID).Str("record_id", in.ParentRecordID).Msg("note created")
	return resp.Data.ID.NoteID, nil
}

func (c *Client) request(ctx context.Context, method, endpoint, name string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveAttio(name, false, time.Since(start))
		c.log.Error().Err(err).Str("endpoint", endpoint).Msg("attio request failed")
		return fmt.Errorf("attio %s: %w", endpoint, domain.ErrUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveAttio(name, false, time.Since(start))
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Error().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("body", string(errBody)).
			Msg("attio api error")
		return fmt.Errorf("attio %s: status %d: %w", endpoint, resp.StatusCode, domain.ErrUpstream)
	}

	metrics.ObserveAttio(name, true, time.Since(start))
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("attio %s: decode response: %w", endpoint, domain.ErrUpstream)
	}
	return nil
}
