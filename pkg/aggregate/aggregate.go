// Package aggregate folds raw trading pairs into per-token roll-ups and
// projects them into screener rows.
package aggregate

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/guidias1961/pulse-screener/pkg/subgraph"
)

// DefaultExcludedSymbols are the wrapped-native and wrapped-stable symbols
// used only as quote legs. Tracking them would swamp the token list with
// the dominant pairing assets.
var DefaultExcludedSymbols = []string{"WPLS", "DAI", "USDC", "USDT", "WETH", "WBTC"}

// pairURLPrefix builds the canonical explorer link for a pool address.
const pairURLPrefix = "https://dexscreener.com/pulsechain/"

// Aggregation holds the fold result: per-token aggregates in first-seen
// order. The order matters because projection truncates before sorting.
type Aggregation struct {
	byAddress map[string]*TokenAggregate
	order     []string
}

// Token returns the aggregate for addr, or nil.
func (a *Aggregation) Token(addr string) *TokenAggregate {
	return a.byAddress[addr]
}

// Tokens returns all aggregates in first-seen order.
func (a *Aggregation) Tokens() []*TokenAggregate {
	out := make([]*TokenAggregate, 0, len(a.order))
	for _, addr := range a.order {
		out = append(out, a.byAddress[addr])
	}
	return out
}

// Len returns the number of distinct tokens.
func (a *Aggregation) Len() int {
	return len(a.order)
}

// Aggregator folds PairRecords into TokenAggregates.
type Aggregator struct {
	excluded map[string]struct{}
}

// NewAggregator creates an aggregator excluding the given quote symbols.
// With no arguments, DefaultExcludedSymbols applies.
func NewAggregator(excludedSymbols ...string) *Aggregator {
	if len(excludedSymbols) == 0 {
		excludedSymbols = DefaultExcludedSymbols
	}
	excluded := make(map[string]struct{}, len(excludedSymbols))
	for _, s := range excludedSymbols {
		excluded[strings.ToUpper(s)] = struct{}{}
	}
	return &Aggregator{excluded: excluded}
}

// Fold accumulates pairs into per-token aggregates. The result is
// order-independent with respect to the input permutation, except for the
// first-seen ordering used later by projection.
func (g *Aggregator) Fold(pairs []subgraph.PairRecord) *Aggregation {
	agg := &Aggregation{byAddress: make(map[string]*TokenAggregate)}

	for _, pair := range pairs {
		reserveUSD := parseDecimal(pair.ReserveUSD)
		volumeUSD := parseDecimal(pair.VolumeUSD)

		// Empty or dead pool.
		if reserveUSD <= 0 && volumeUSD <= 0 {
			continue
		}

		// The subgraph exposes no per-side USD split, so each side gets half.
		sideLiquidity := reserveUSD / 2
		sideVolume := volumeUSD / 2
		created := parseTimestamp(pair.CreatedAtTimestamp)

		g.foldSide(agg, pair.Token0, pair.ID, sideLiquidity, sideVolume, created)
		g.foldSide(agg, pair.Token1, pair.ID, sideLiquidity, sideVolume, created)
	}

	return agg
}

// foldSide merges one side of a pair into its token's aggregate.
func (g *Aggregator) foldSide(agg *Aggregation, token subgraph.TokenInfo, poolID string, liquidity, volume float64, created int64) {
	if token.ID == "" {
		return
	}
	if _, skip := g.excluded[strings.ToUpper(token.Symbol)]; skip {
		return
	}

	entry, ok := agg.byAddress[token.ID]
	if !ok {
		entry = &TokenAggregate{
			Address:         token.ID,
			Symbol:          token.Symbol,
			Name:            token.Name,
			EarliestCreated: created,
		}
		agg.byAddress[token.ID] = entry
		agg.order = append(agg.order, token.ID)
	}

	entry.TotalLiquidity += liquidity
	entry.TotalVolume += volume
	if created < entry.EarliestCreated {
		entry.EarliestCreated = created
	}
	entry.PoolCount++
	entry.Pools = append(entry.Pools, PoolContribution{
		Address:   poolID,
		Liquidity: liquidity,
		Volume:    volume,
		CreatedAt: created,
	})
	if liquidity > entry.Best.Liquidity {
		entry.Best = BestPool{Address: poolID, Liquidity: liquidity}
	}
}

// Project renders aggregates into rows, truncates to limit, then sorts by
// the active view. Truncation deliberately happens before sorting: the
// first-seen order of the fold decides which tokens survive the cut.
func Project(agg *Aggregation, limit int, view subgraph.View) []TokenRow {
	rows := make([]TokenRow, 0, agg.Len())
	for _, t := range agg.Tokens() {
		rows = append(rows, projectOne(t))
	}

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	switch view {
	case subgraph.ViewLiquidity:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Liquidity > rows[j].Liquidity })
	case subgraph.ViewNew:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].CreatedAt > rows[j].CreatedAt })
	default:
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Volume24h > rows[j].Volume24h })
	}

	return rows
}

// projectOne maps a frozen aggregate to its row form.
func projectOne(t *TokenAggregate) TokenRow {
	// The fold never feeds the weighted-price accumulator, so this stays 0
	// until enrichment overlays a real price.
	var price float64
	if t.TotalWeight > 0 {
		price = t.WeightedPrice / t.TotalWeight
	}

	return TokenRow{
		Address:   t.Address,
		Symbol:    t.Symbol,
		Name:      t.Name,
		Price:     sanitize(price),
		Volume24h: sanitize(t.TotalVolume),
		Liquidity: sanitize(t.TotalLiquidity),
		CreatedAt: t.EarliestCreated,
		PoolCount: t.PoolCount,
		Source:    SourcePrimary,
		PairURL:   pairURLPrefix + t.Best.Address,
	}
}

// parseDecimal parses a subgraph decimal string, mapping failures to 0.
func parseDecimal(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseTimestamp parses a unix-seconds string, mapping failures to 0.
func parseTimestamp(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// sanitize coerces NaN and infinities to 0 for display fields.
func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
