package enrich

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/guidias1961/pulse-screener/pkg/aggregate"
	"github.com/guidias1961/pulse-screener/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

var enrichBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "screener_enrich_batches_total",
	Help: "Total enrichment batch requests by outcome",
}, []string{"outcome"})

// BatchFetcher fetches enrichment records for a batch of token addresses.
type BatchFetcher interface {
	FetchBatch(ctx context.Context, addresses []string) (map[string]Record, error)
}

// Config holds the enrichment engine configuration.
type Config struct {
	// BatchSize is the maximum addresses per secondary-source request.
	BatchSize int

	// MaxConcurrency caps simultaneous in-flight batch requests.
	MaxConcurrency int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:      MaxBatchAddresses,
		MaxConcurrency: 4,
	}
}

// Outcome reports what enrichment actually achieved. Batch failures are
// absorbed here rather than propagated, so callers can assert on partial
// enrichment directly.
type Outcome struct {
	Batches       int
	FailedBatches int
	Enriched      int
}

// Partial reports whether at least one batch failed.
func (o Outcome) Partial() bool {
	return o.FailedBatches > 0
}

// Engine overlays secondary-source data onto token rows.
type Engine struct {
	source BatchFetcher
	config Config
	sem    *semaphore.Weighted
	logger zerolog.Logger
}

// NewEngine creates an enrichment engine over source.
func NewEngine(source BatchFetcher, cfg Config) *Engine {
	if cfg.BatchSize <= 0 || cfg.BatchSize > MaxBatchAddresses {
		cfg.BatchSize = MaxBatchAddresses
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}

	return &Engine{
		source: source,
		config: cfg,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		logger: logging.NewLogger("enrich"),
	}
}

// Enrich overlays price, 24h change, 24h volume and liquidity onto rows in
// place. Each row found in the secondary source is marked SourceMerged; the
// rest are marked SourcePrimary. A failed batch contributes nothing and does
// not abort its siblings. Enrich is idempotent for identical source data.
func (e *Engine) Enrich(ctx context.Context, rows []aggregate.TokenRow) Outcome {
	if len(rows) == 0 {
		return Outcome{}
	}

	batches := e.partition(rows)
	outcome := Outcome{Batches: len(batches)}

	var (
		mu      sync.Mutex
		records = make(map[string]Record)
		failed  int
		wg      sync.WaitGroup
	)

	for i, batch := range batches {
		wg.Add(1)
		go func(index int, addresses []string) {
			defer wg.Done()

			if err := e.sem.Acquire(ctx, 1); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
				e.logger.Warn().Err(err).Int("batch", index).Msg("Enrichment batch cancelled")
				return
			}
			defer e.sem.Release(1)

			recs, err := e.source.FetchBatch(ctx, addresses)
			if err != nil {
				enrichBatchesTotal.WithLabelValues("failed").Inc()
				mu.Lock()
				failed++
				mu.Unlock()
				e.logger.Warn().
					Err(err).
					Int("batch", index).
					Int("addresses", len(addresses)).
					Msg("Enrichment batch failed")
				return
			}

			enrichBatchesTotal.WithLabelValues("ok").Inc()
			mu.Lock()
			for key, rec := range recs {
				records[key] = rec
			}
			mu.Unlock()
		}(i, batch)
	}
	wg.Wait()

	outcome.FailedBatches = failed

	for i := range rows {
		rec, ok := records[strings.ToLower(rows[i].Address)]
		if !ok {
			rows[i].Source = aggregate.SourcePrimary
			continue
		}
		overlay(&rows[i], rec)
		outcome.Enriched++
	}

	e.logger.Debug().
		Int("rows", len(rows)).
		Int("batches", outcome.Batches).
		Int("failed_batches", outcome.FailedBatches).
		Int("enriched", outcome.Enriched).
		Msg("Enrichment complete")

	return outcome
}

// partition splits row addresses into batches of at most BatchSize.
func (e *Engine) partition(rows []aggregate.TokenRow) [][]string {
	var batches [][]string
	for start := 0; start < len(rows); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := make([]string, 0, end-start)
		for _, row := range rows[start:end] {
			batch = append(batch, row.Address)
		}
		batches = append(batches, batch)
	}
	return batches
}

// overlay merges one record onto a row and flips its provenance tag.
func overlay(row *aggregate.TokenRow, rec Record) {
	if price, ok := parsePrice(rec.PriceUSD); ok {
		row.Price = price
	}
	row.PriceChange24h = rec.PriceChange24h
	if rec.LiquidityUSD != nil {
		row.Liquidity = *rec.LiquidityUSD
	}
	if rec.Volume24h != nil {
		row.Volume24h = *rec.Volume24h
	}
	row.Source = aggregate.SourceMerged
}

// parsePrice parses DexScreener's string price field. Unparseable values
// leave the existing row price in place.
func parsePrice(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
