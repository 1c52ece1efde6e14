package attio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-crm-relay/internal/config"
	"telegram-crm-relay/internal/domain"
	"telegram-crm-relay/internal/domain/ports/adapter"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := zerolog.Nop()
	return NewClient(&config.AttioConfig{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		CompaniesObject: "companies",
		Timeout:         5 * time.Second,
	}, 5, &logger)
}

func TestSearchCompanies(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"data":[
			{"id":{"record_id":"rec_1"},"values":{"name":[{"value":"Acme Inc"}],"locations":[{"locality":"Berlin","country":"Germany"}]}},
			{"id":{"record_id":"rec_2"},"values":{}}
		]}`))
	})

	results, err := client.SearchCompanies(context.Background(), "acme")
	if err != nil {
		t.Fatalf("SearchCompanies: %v", err)
	}

	if gotPath != "/objects/companies/records/query" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth = %q", gotAuth)
	}
	if filter, ok := gotBody["filter"].(map[string]interface{}); !ok {
		t.Errorf("request body missing filter: %v", gotBody)
	} else if name, _ := filter["name"].(map[string]interface{}); name["$contains"] != "acme" {
		t.Errorf("filter = %v", filter)
	}
	// Fetch limit exceeds the display cap so truncation can be reported.
	if limit, _ := gotBody["limit"].(float64); limit != 10 {
		t.Errorf("limit = %v, want 10", gotBody["limit"])
	}

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].ID != "rec_1" || results[0].Name != "Acme Inc" || results[0].Location != "Berlin, Germany" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Name != "Unnamed Company" || results[1].Location != "" {
		t.Errorf("results[1] = %+v", results[1])
	}
}

func TestCreateNote(t *testing.T) {
	var gotPath string
	var gotBody struct {
		Data map[string]string `json:"data"`
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"data":{"id":{"note_id":"note_123"}}}`))
	})

	noteID, err := client.CreateNote(context.Background(), adapter.CreateNoteInput{
		ParentObject:   "companies",
		ParentRecordID: "rec_1",
		Title:          "Telegram conversation with Acme - Nov 14, 2023, 10:13 PM",
		Format:         "markdown",
		Content:        "**[10:13 PM] @bob:**\nHi",
	})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	if gotPath != "/notes" {
		t.Errorf("path = %q", gotPath)
	}
	if noteID != "note_123" {
		t.Errorf("noteID = %q", noteID)
	}
	if gotBody.Data["parent_record_id"] != "rec_1" || gotBody.Data["format"] != "markdown" {
		t.Errorf("note payload: %v", gotBody.Data)
	}
}

func TestErrorsMapToUpstream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"rate limited"}`, http.StatusTooManyRequests)
	})

	if _, err := client.SearchCompanies(context.Background(), "x"); !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("search error = %v, want ErrUpstream", err)
	}
	if _, err := client.CreateNote(context.Background(), adapter.CreateNoteInput{}); !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("create error = %v, want ErrUpstream", err)
	}
}
