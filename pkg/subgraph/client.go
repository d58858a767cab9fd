// Package subgraph provides the DEX subgraph client with bounded retries
// and the pagination driver that walks pair pages.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/guidias1961/pulse-screener/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for subgraph requests.
var (
	subgraphRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screener_subgraph_requests_total",
		Help: "Total subgraph requests by view and status",
	}, []string{"view", "status"})

	subgraphRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "screener_subgraph_request_duration_seconds",
		Help:    "Subgraph request duration in seconds by view",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"view"})

	subgraphRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screener_subgraph_retries_total",
		Help: "Total subgraph request retry attempts",
	})

	subgraphRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screener_subgraph_retry_exhausted_total",
		Help: "Total subgraph requests that exhausted the retry budget",
	})
)

// Config holds the subgraph client configuration.
type Config struct {
	// Endpoint is the subgraph GraphQL URL.
	Endpoint string

	// MaxRetries is the total number of delivery attempts per page request.
	MaxRetries int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// BackoffMultiplier scales the delay after each failed attempt.
	BackoffMultiplier float64

	// HTTPTimeout bounds a single HTTP round trip.
	HTTPTimeout time.Duration
}

// DefaultConfig returns a safe default configuration for endpoint.
func DefaultConfig(endpoint string) Config {
	return Config{
		Endpoint:          endpoint,
		MaxRetries:        3,
		InitialBackoff:    250 * time.Millisecond,
		BackoffMultiplier: 3,
		HTTPTimeout:       30 * time.Second,
	}
}

// Client performs subgraph page requests with retry and backoff.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// NewClient creates a new subgraph client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("subgraph endpoint is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 250 * time.Millisecond
	}
	if cfg.BackoffMultiplier <= 1 {
		cfg.BackoffMultiplier = 3
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		config:     cfg,
		logger:     logging.NewLogger("subgraph"),
	}, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// FetchPairs executes one page query, retrying with exponential backoff on
// transport failures, non-success statuses, and error payloads. It is
// all-or-nothing: either the full page is returned or a SourceError
// matching ErrSourceUnavailable.
func (c *Client) FetchPairs(ctx context.Context, q Query) ([]PairRecord, error) {
	start := time.Now()
	defer func() {
		subgraphRequestDuration.WithLabelValues(string(q.View)).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(graphQLRequest{Query: buildQuery(q)})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	var lastErr error
	backoff := c.config.InitialBackoff

	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		pairs, err := c.fetchOnce(ctx, body)
		if err == nil {
			if attempt > 0 {
				c.logger.Info().
					Str("view", string(q.View)).
					Int("attempt", attempt+1).
					Msg("Subgraph request succeeded after retry")
			}
			subgraphRequestsTotal.WithLabelValues(string(q.View), "ok").Inc()
			return pairs, nil
		}

		lastErr = err
		c.logger.Warn().
			Err(err).
			Str("view", string(q.View)).
			Int("attempt", attempt+1).
			Int("skip", q.Skip).
			Msg("Subgraph request failed")

		if attempt >= c.config.MaxRetries-1 {
			break
		}

		subgraphRetriesTotal.Inc()
		select {
		case <-ctx.Done():
			subgraphRequestsTotal.WithLabelValues(string(q.View), "cancelled").Inc()
			return nil, &SourceError{Attempts: attempt + 1, Err: ctx.Err()}
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * c.config.BackoffMultiplier)
	}

	subgraphRetryExhaustedTotal.Inc()
	subgraphRequestsTotal.WithLabelValues(string(q.View), "exhausted").Inc()
	return nil, &SourceError{Attempts: c.config.MaxRetries, Err: lastErr}
}

// fetchOnce performs a single delivery attempt.
func (c *Client) fetchOnce(ctx context.Context, body []byte) ([]PairRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("subgraph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("subgraph status %d", resp.StatusCode)
	}

	var envelope graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode subgraph response: %w", err)
	}

	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("subgraph error: %s", envelope.Errors[0].Message)
	}

	return envelope.Data.Pairs, nil
}
