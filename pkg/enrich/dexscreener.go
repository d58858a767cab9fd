// Package enrich merges DexScreener market data onto aggregated token rows
// using bounded-concurrency batch requests.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/guidias1961/pulse-screener/pkg/logging"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// MaxBatchAddresses is DexScreener's hard limit per tokens request.
const MaxBatchAddresses = 30

// Record is the enrichment data DexScreener reports for one token.
type Record struct {
	Address        string
	PriceUSD       string
	PriceChange24h float64
	LiquidityUSD   *float64
	Volume24h      *float64
}

// Wire types for the DexScreener tokens endpoint.
type dsToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dsLiquidity struct {
	USD float64 `json:"usd"`
}

type dsPair struct {
	PairAddress string       `json:"pairAddress"`
	BaseToken   dsToken      `json:"baseToken"`
	PriceUSD    string       `json:"priceUsd"`
	Liquidity   *dsLiquidity `json:"liquidity"`
	Volume      struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
}

type dsResponse struct {
	Pairs []dsPair `json:"pairs"`
}

// ClientConfig holds the DexScreener client configuration.
type ClientConfig struct {
	// BaseURL is the tokens endpoint prefix.
	BaseURL string

	// RequestsPerSecond throttles outgoing requests. DexScreener enforces
	// roughly 300 requests per minute on this endpoint.
	RequestsPerSecond float64

	// HTTPTimeout bounds a single round trip.
	HTTPTimeout time.Duration
}

// DefaultClientConfig returns a safe default configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:           "https://api.dexscreener.com/latest/dex/tokens",
		RequestsPerSecond: 4,
		HTTPTimeout:       10 * time.Second,
	}
}

// Client fetches enrichment records from the DexScreener tokens endpoint.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	logger     zerolog.Logger
}

// NewClient creates a new DexScreener client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.dexscreener.com/latest/dex/tokens"
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 4
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logging.NewLogger("dexscreener"),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// FetchBatch requests records for up to MaxBatchAddresses token addresses in
// one call. Returned records are keyed by lower-cased base-token address.
func (c *Client) FetchBatch(ctx context.Context, addresses []string) (map[string]Record, error) {
	if len(addresses) == 0 {
		return map[string]Record{}, nil
	}
	if len(addresses) > MaxBatchAddresses {
		return nil, fmt.Errorf("batch of %d exceeds limit of %d addresses", len(addresses), MaxBatchAddresses)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := c.baseURL + "/" + strings.Join(addresses, ",")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dexscreener request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("dexscreener status %d", resp.StatusCode)
	}

	var payload dsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode dexscreener response: %w", err)
	}

	records := make(map[string]Record, len(payload.Pairs))
	for _, pair := range payload.Pairs {
		key := strings.ToLower(pair.BaseToken.Address)
		if key == "" {
			continue
		}
		// DexScreener lists a token's most relevant pair first; keep it.
		if _, seen := records[key]; seen {
			continue
		}
		rec := Record{
			Address:        key,
			PriceUSD:       pair.PriceUSD,
			PriceChange24h: pair.PriceChange.H24,
		}
		if pair.Liquidity != nil {
			liq := pair.Liquidity.USD
			rec.LiquidityUSD = &liq
		}
		vol := pair.Volume.H24
		rec.Volume24h = &vol
		records[key] = rec
	}

	c.logger.Debug().
		Int("requested", len(addresses)).
		Int("returned", len(records)).
		Msg("DexScreener batch fetched")

	return records, nil
}
