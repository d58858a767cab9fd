package subgraph

import "fmt"

// View selects the pair ordering used by the subgraph query.
type View string

const (
	// ViewVolume orders pairs by cumulative volume, descending.
	ViewVolume View = "volume"

	// ViewLiquidity orders pairs by total reserve value, descending.
	ViewLiquidity View = "liquidity"

	// ViewNew orders pairs by creation time, descending, restricted to
	// pairs created after a cutoff timestamp.
	ViewNew View = "new"
)

// Valid reports whether v is one of the known views.
func (v View) Valid() bool {
	switch v {
	case ViewVolume, ViewLiquidity, ViewNew:
		return true
	}
	return false
}

// pairFields is the selection set shared by all pair queries.
const pairFields = `
      id
      token0 { id symbol name decimals }
      token1 { id symbol name decimals }
      reserve0
      reserve1
      reserveUSD
      volumeUSD
      txCount
      createdAtTimestamp
      totalSupply`

// Query describes a single page request against the subgraph.
type Query struct {
	View  View
	First int
	Skip  int

	// Cutoff is the earliest creation timestamp (unix seconds) accepted by
	// ViewNew. Ignored for the other views.
	Cutoff int64
}

// buildQuery renders the GraphQL document for q.
func buildQuery(q Query) string {
	switch q.View {
	case ViewLiquidity:
		return fmt.Sprintf(`{
  pairs(first: %d, skip: %d, orderBy: reserveUSD, orderDirection: desc) {%s
  }
}`, q.First, q.Skip, pairFields)
	case ViewNew:
		return fmt.Sprintf(`{
  pairs(first: %d, skip: %d, orderBy: createdAtTimestamp, orderDirection: desc, where: { createdAtTimestamp_gt: %d }) {%s
  }
}`, q.First, q.Skip, q.Cutoff, pairFields)
	default:
		return fmt.Sprintf(`{
  pairs(first: %d, skip: %d, orderBy: volumeUSD, orderDirection: desc) {%s
  }
}`, q.First, q.Skip, pairFields)
	}
}
