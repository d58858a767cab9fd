package subgraph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testConfig(endpoint string) Config {
	cfg := DefaultConfig(endpoint)
	cfg.InitialBackoff = time.Millisecond
	cfg.BackoffMultiplier = 2
	return cfg
}

func pairsResponse(pairs ...PairRecord) string {
	body, _ := json.Marshal(map[string]any{"data": map[string]any{"pairs": pairs}})
	return string(body)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("http://example.com")

	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.InitialBackoff != 250*time.Millisecond {
		t.Errorf("InitialBackoff = %v, want 250ms", cfg.InitialBackoff)
	}
	if cfg.BackoffMultiplier != 3 {
		t.Errorf("BackoffMultiplier = %v, want 3", cfg.BackoffMultiplier)
	}
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("NewClient with empty endpoint should fail")
	}
}

func TestFetchPairs_Success(t *testing.T) {
	pair := PairRecord{
		ID:         "0xpool1",
		Token0:     TokenInfo{ID: "0xa", Symbol: "FOO"},
		Token1:     TokenInfo{ID: "0xb", Symbol: "BAR"},
		ReserveUSD: "1000",
		VolumeUSD:  "200",
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(pairsResponse(pair)))
	}))
	defer server.Close()

	c, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	pairs, err := c.FetchPairs(context.Background(), Query{View: ViewVolume, First: 1000})
	if err != nil {
		t.Fatalf("FetchPairs failed: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(pairs))
	}
	if pairs[0].ID != "0xpool1" {
		t.Errorf("pair ID = %s, want 0xpool1", pairs[0].ID)
	}
	if pairs[0].Token0.Symbol != "FOO" {
		t.Errorf("token0 symbol = %s, want FOO", pairs[0].Token0.Symbol)
	}
}

func TestFetchPairs_RetriesThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(pairsResponse()))
	}))
	defer server.Close()

	c, _ := NewClient(testConfig(server.URL))

	if _, err := c.FetchPairs(context.Background(), Query{View: ViewVolume, First: 1000}); err != nil {
		t.Fatalf("FetchPairs failed after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (2 failures + 1 success)", attempts)
	}
}

func TestFetchPairs_Exhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c, _ := NewClient(testConfig(server.URL))

	_, err := c.FetchPairs(context.Background(), Query{View: ViewVolume, First: 1000})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("error %v does not match ErrSourceUnavailable", err)
	}

	var srcErr *SourceError
	if !errors.As(err, &srcErr) {
		t.Fatalf("error %v is not a *SourceError", err)
	}
	if srcErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", srcErr.Attempts)
	}
	if attempts != 3 {
		t.Errorf("server saw %d attempts, want 3", attempts)
	}
}

func TestFetchPairs_ErrorPayloadRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Write([]byte(`{"errors": [{"message": "indexing in progress"}]}`))
	}))
	defer server.Close()

	c, _ := NewClient(testConfig(server.URL))

	_, err := c.FetchPairs(context.Background(), Query{View: ViewVolume, First: 1000})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3 (error payloads are retried)", attempts)
	}
	if !strings.Contains(err.Error(), "indexing in progress") {
		t.Errorf("error %q should carry the source message", err.Error())
	}
}

func TestFetchPairs_ContextCancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.InitialBackoff = time.Minute

	c, _ := NewClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.FetchPairs(ctx, Query{View: ViewVolume, First: 1000})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation did not interrupt the backoff wait")
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		contains []string
		excludes []string
	}{
		{
			name:     "volume view",
			query:    Query{View: ViewVolume, First: 1000, Skip: 2000},
			contains: []string{"orderBy: volumeUSD", "first: 1000", "skip: 2000"},
			excludes: []string{"createdAtTimestamp_gt"},
		},
		{
			name:     "liquidity view",
			query:    Query{View: ViewLiquidity, First: 500, Skip: 0},
			contains: []string{"orderBy: reserveUSD", "first: 500"},
		},
		{
			name:     "new view carries cutoff",
			query:    Query{View: ViewNew, First: 1000, Skip: 0, Cutoff: 1700000000},
			contains: []string{"orderBy: createdAtTimestamp", "createdAtTimestamp_gt: 1700000000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQuery(tt.query)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("query missing %q:\n%s", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("query should not contain %q:\n%s", bad, got)
				}
			}
		})
	}
}

func TestViewValid(t *testing.T) {
	for _, v := range []View{ViewVolume, ViewLiquidity, ViewNew} {
		if !v.Valid() {
			t.Errorf("View(%q).Valid() = false, want true", v)
		}
	}
	if View("price").Valid() {
		t.Error(`View("price").Valid() = true, want false`)
	}
}
