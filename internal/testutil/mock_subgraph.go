// Package testutil provides configurable mock source servers for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync"

	"github.com/guidias1961/pulse-screener/pkg/subgraph"
)

var pagingPattern = regexp.MustCompile(`first: (\d+), skip: (\d+)`)

// MockSubgraph is a mock GraphQL subgraph server. It serves pages out of a
// fixed pair dataset, honoring the first/skip arguments of each query.
type MockSubgraph struct {
	server *httptest.Server
	mu     sync.Mutex

	pairs      []subgraph.PairRecord
	failNext   int
	failStatus int
	handler    http.HandlerFunc

	RequestCount int
	LastQuery    string
}

// NewMockSubgraph creates a mock subgraph server with an empty dataset.
func NewMockSubgraph() *MockSubgraph {
	mock := &MockSubgraph{failStatus: http.StatusInternalServerError}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

// URL returns the mock server URL.
func (m *MockSubgraph) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSubgraph) Close() {
	m.server.Close()
}

// SetPairs replaces the dataset served by the mock.
func (m *MockSubgraph) SetPairs(pairs []subgraph.PairRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs = pairs
}

// FailNext makes the next n requests answer with the given HTTP status.
func (m *MockSubgraph) FailNext(n, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = n
	m.failStatus = status
}

// SetHandler overrides response handling entirely.
func (m *MockSubgraph) SetHandler(handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// GetRequestCount returns the number of requests received.
func (m *MockSubgraph) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

func (m *MockSubgraph) serve(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	m.mu.Lock()
	m.RequestCount++
	m.LastQuery = body.Query
	handler := m.handler
	if handler == nil && m.failNext > 0 {
		m.failNext--
		status := m.failStatus
		m.mu.Unlock()
		w.WriteHeader(status)
		return
	}
	pairs := m.pairs
	m.mu.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}

	first, skip := parsePaging(body.Query)
	page := slicePage(pairs, first, skip)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": map[string]any{"pairs": page},
	})
}

func parsePaging(query string) (first, skip int) {
	match := pagingPattern.FindStringSubmatch(query)
	if match == nil {
		return 1000, 0
	}
	first, _ = strconv.Atoi(match[1])
	skip, _ = strconv.Atoi(match[2])
	return first, skip
}

func slicePage(pairs []subgraph.PairRecord, first, skip int) []subgraph.PairRecord {
	if skip >= len(pairs) {
		return []subgraph.PairRecord{}
	}
	end := skip + first
	if end > len(pairs) {
		end = len(pairs)
	}
	return pairs[skip:end]
}

// NewPair builds a pair record with sensible defaults for tests.
func NewPair(id string, token0, token1 subgraph.TokenInfo, reserveUSD, volumeUSD string, createdAt int64) subgraph.PairRecord {
	return subgraph.PairRecord{
		ID:                 id,
		Token0:             token0,
		Token1:             token1,
		Reserve0:           "1",
		Reserve1:           "1",
		ReserveUSD:         reserveUSD,
		VolumeUSD:          volumeUSD,
		TxCount:            "1",
		CreatedAtTimestamp: strconv.FormatInt(createdAt, 10),
		TotalSupply:        "1",
	}
}

// NewToken builds a token descriptor for tests.
func NewToken(address, symbol string) subgraph.TokenInfo {
	return subgraph.TokenInfo{
		ID:       address,
		Symbol:   symbol,
		Name:     symbol + " Token",
		Decimals: "18",
	}
}
