package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tvaillant/mailarch/internal/config"
	"github.com/tvaillant/mailarch/internal/store"
)

// fakeStore implements ArchiveStore without a database.
type fakeStore struct {
	stats *store.Stats
	ids   []string

	lastSQL  string
	lastArgs []interface{}
}

func (f *fakeStore) GetStats() (*store.Stats, error) {
	return f.stats, nil
}

func (f *fakeStore) SelectEmailIDs(ctx context.Context, query string, args []interface{}) ([]string, error) {
	f.lastSQL = query
	f.lastArgs = args
	return f.ids, nil
}

func newTestServer(t *testing.T, st *fakeStore, apiKey string) *Server {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.APIPort = 0
	cfg.Server.APIKey = apiKey
	cfg.Server.RateLimitQPS = 1000
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, st, logger)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, "")

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestStatsEndpoint(t *testing.T) {
	st := &fakeStore{stats: &store.Stats{EmailCount: 42, AttachmentCount: 7}}
	s := newTestServer(t, st, "")

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp StatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalEmails != 42 || resp.TotalAttachments != 7 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSearchEndpoint(t *testing.T) {
	st := &fakeStore{ids: []string{"abc", "def"}}
	s := newTestServer(t, st, "")

	body := `{"words":["urgent"],"word_localization":["subject","body"],"word_operator":"OR"}`
	req := httptest.NewRequest("POST", "/api/v1/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp SearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.IDs) != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if !strings.Contains(st.lastSQL, "lower(e.subject) LIKE ?") {
		t.Errorf("executed sql = %q", st.lastSQL)
	}
}

func TestSearchEndpointBadRequest(t *testing.T) {
	s := newTestServer(t, &fakeStore{}, "")

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"words":`},
		{"bad operator", `{"words":["x"],"word_localization":["subject"],"word_operator":"NOT"}`},
		{"bad localization", `{"words":["x"],"word_localization":["header"]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/search", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, &fakeStore{stats: &store.Stats{}}, "secret")

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/stats", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("bearer key: status = %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/stats", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("x-api-key: status = %d", rec.Code)
	}

	// Health stays open.
	req = httptest.NewRequest("GET", "/health", nil)
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health: status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	if !rl.Allow("1.2.3.4") {
		t.Error("first request should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Error("second immediate request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("limits are per client")
	}
}
