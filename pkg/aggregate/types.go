package aggregate

// Source tags which data source(s) produced a token row's fields.
type Source string

const (
	// SourceMerged marks rows carrying both subgraph and DexScreener data.
	SourceMerged Source = "merged"

	// SourcePrimary marks rows built from subgraph data only.
	SourcePrimary Source = "subgraph"

	// SourceSecondary marks rows built from DexScreener data only.
	SourceSecondary Source = "dexscreener"
)

// PoolContribution records one pool's share of a token's totals.
type PoolContribution struct {
	Address   string  `json:"address"`
	Liquidity float64 `json:"liquidity"`
	Volume    float64 `json:"volume"`
	CreatedAt int64   `json:"createdAt"`
}

// BestPool identifies the highest-liquidity pool contributing to a token.
type BestPool struct {
	Address   string  `json:"address"`
	Liquidity float64 `json:"liquidity"`
}

// TokenAggregate is one token's roll-up across every pool it appears in.
// It is mutated incrementally during the fold and frozen afterwards.
type TokenAggregate struct {
	Address         string
	Symbol          string
	Name            string
	TotalLiquidity  float64
	TotalVolume     float64
	WeightedPrice   float64
	TotalWeight     float64
	EarliestCreated int64
	PoolCount       int
	Best            BestPool
	Pools           []PoolContribution
}

// TokenRow is the externally visible projection of a TokenAggregate,
// optionally overlaid once by the enrichment engine.
type TokenRow struct {
	Address        string  `json:"address"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	PriceChange24h float64 `json:"priceChange24h"`
	Volume24h      float64 `json:"volume24h"`
	Liquidity      float64 `json:"liquidity"`
	CreatedAt      int64   `json:"createdAt"`
	PoolCount      int     `json:"poolCount"`
	Source         Source  `json:"source"`
	PairURL        string  `json:"pairUrl"`
}
