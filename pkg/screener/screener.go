// Package screener wires pagination, aggregation, enrichment and the
// result cache into one request-scoped pipeline.
package screener

import (
	"context"
	"encoding/json"

	"github.com/guidias1961/pulse-screener/pkg/aggregate"
	"github.com/guidias1961/pulse-screener/pkg/cache"
	"github.com/guidias1961/pulse-screener/pkg/enrich"
	"github.com/guidias1961/pulse-screener/pkg/logging"
	"github.com/guidias1961/pulse-screener/pkg/subgraph"
	"github.com/rs/zerolog"
)

// PairLister collects pair pages for a view. Fetch failures surface as a
// shorter (possibly empty) result, never as an error.
type PairLister interface {
	FetchAll(ctx context.Context, view subgraph.View, pages, ageDays int) []subgraph.PairRecord
}

// Enricher overlays secondary-source data onto rows in place.
type Enricher interface {
	Enrich(ctx context.Context, rows []aggregate.TokenRow) enrich.Outcome
}

// Result is the assembled pipeline output served to callers.
type Result struct {
	// Source is the aggregate-level provenance tag.
	Source aggregate.Source `json:"source"`

	// Coverage is the number of raw pairs the result was built from.
	Coverage int `json:"coverage"`

	Tokens []aggregate.TokenRow `json:"tokens"`
}

// Service is the pipeline orchestrator.
type Service struct {
	pairs      PairLister
	aggregator *aggregate.Aggregator
	enricher   Enricher
	store      cache.Store
	logger     zerolog.Logger
}

// NewService creates the orchestrator. The cache store is injected so its
// lifecycle is owned by the caller, constructed once at process start.
func NewService(pairs PairLister, enricher Enricher, store cache.Store) *Service {
	return &Service{
		pairs:      pairs,
		aggregator: aggregate.NewAggregator(),
		enricher:   enricher,
		store:      store,
		logger:     logging.NewLogger("screener"),
	}
}

// GetTokens runs the pipeline for params, serving a fresh cached result
// when one exists. Enrichment failures degrade to partially enriched rows;
// the only error ever returned matches ErrInvalidParams.
func (s *Service) GetTokens(ctx context.Context, params Params) (*Result, error) {
	params, err := params.Normalize()
	if err != nil {
		return nil, err
	}

	key := cache.Key{View: params.View, Pages: params.Pages, AgeDays: params.AgeDays, Limit: params.Limit}

	if cached := s.lookup(ctx, key); cached != nil {
		return cached, nil
	}

	pairs := s.pairs.FetchAll(ctx, params.View, params.Pages, params.AgeDays)
	if len(pairs) == 0 {
		result := &Result{Source: aggregate.SourcePrimary, Coverage: 0, Tokens: []aggregate.TokenRow{}}
		s.persist(ctx, key, result)
		return result, nil
	}

	rows := aggregate.Project(s.aggregator.Fold(pairs), params.Limit, params.View)

	outcome := s.enricher.Enrich(ctx, rows)
	if outcome.Partial() {
		s.logger.Warn().
			Str("cache_key", key.String()).
			Int("batches", outcome.Batches).
			Int("failed_batches", outcome.FailedBatches).
			Msg("Enrichment partially failed, serving degraded rows")
	}

	result := &Result{Source: aggregate.SourceMerged, Coverage: len(pairs), Tokens: rows}
	s.persist(ctx, key, result)

	s.logger.Info().
		Str("view", string(params.View)).
		Int("coverage", result.Coverage).
		Int("tokens", len(result.Tokens)).
		Int("enriched", outcome.Enriched).
		Msg("Pipeline run complete")

	return result, nil
}

// lookup returns a fresh cached result, or nil on miss or cache trouble.
func (s *Service) lookup(ctx context.Context, key cache.Key) *Result {
	entry, err := s.store.Get(ctx, key)
	if err != nil {
		if err != cache.ErrCacheMiss {
			s.logger.Warn().Err(err).Str("cache_key", key.String()).Msg("Cache get failed")
		}
		return nil
	}

	var result Result
	if err := json.Unmarshal(entry.Data, &result); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key.String()).Msg("Corrupt cache entry, refetching")
		return nil
	}

	s.logger.Debug().Str("cache_key", key.String()).Msg("Cache hit")
	return &result
}

// persist serializes and caches a result; failures only log.
func (s *Service) persist(ctx context.Context, key cache.Key, result *Result) {
	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key.String()).Msg("Marshal result failed")
		return
	}
	if err := s.store.Put(ctx, key, data); err != nil {
		s.logger.Warn().Err(err).Str("cache_key", key.String()).Msg("Cache put failed")
	}
}
