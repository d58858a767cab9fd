package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// MockPairData is one DexScreener pair served by the mock, keyed by its
// base-token address.
type MockPairData struct {
	Address        string
	PriceUSD       string
	PriceChange24h float64
	LiquidityUSD   float64
	Volume24h      float64
}

// MockDexScreener is a mock DexScreener tokens endpoint. It answers batch
// requests of comma-separated addresses with the pairs configured for them.
type MockDexScreener struct {
	server *httptest.Server
	mu     sync.Mutex

	pairs   map[string]MockPairData
	handler http.HandlerFunc

	RequestCount int
	BatchSizes   []int
}

// NewMockDexScreener creates a mock with no configured pairs.
func NewMockDexScreener() *MockDexScreener {
	mock := &MockDexScreener{pairs: make(map[string]MockPairData)}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

// URL returns the mock server URL.
func (m *MockDexScreener) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockDexScreener) Close() {
	m.server.Close()
}

// SetPair configures the response pair for one base-token address.
func (m *MockDexScreener) SetPair(p MockPairData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[strings.ToLower(p.Address)] = p
}

// SetHandler overrides response handling entirely.
func (m *MockDexScreener) SetHandler(handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// GetRequestCount returns the number of batch requests received.
func (m *MockDexScreener) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

func (m *MockDexScreener) serve(w http.ResponseWriter, r *http.Request) {
	addressPart := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	addresses := strings.Split(addressPart, ",")

	m.mu.Lock()
	m.RequestCount++
	m.BatchSizes = append(m.BatchSizes, len(addresses))
	handler := m.handler
	configured := m.pairs
	m.mu.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}

	var pairs []map[string]any
	for _, addr := range addresses {
		p, ok := configured[strings.ToLower(addr)]
		if !ok {
			continue
		}
		pairs = append(pairs, map[string]any{
			"pairAddress": "0xpool-" + p.Address,
			"baseToken": map[string]any{
				"address": p.Address,
				"symbol":  "TKN",
				"name":    "Token",
			},
			"priceUsd":    p.PriceUSD,
			"liquidity":   map[string]any{"usd": p.LiquidityUSD},
			"volume":      map[string]any{"h24": p.Volume24h},
			"priceChange": map[string]any{"h24": p.PriceChange24h},
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"pairs": pairs})
}
