package subgraph

// TokenInfo describes one side of a trading pair as reported by the subgraph.
type TokenInfo struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals string `json:"decimals"`
}

// PairRecord is one liquidity pool between two tokens. All numeric fields
// arrive as decimal strings, the subgraph's wire convention.
type PairRecord struct {
	ID                 string    `json:"id"`
	Token0             TokenInfo `json:"token0"`
	Token1             TokenInfo `json:"token1"`
	Reserve0           string    `json:"reserve0"`
	Reserve1           string    `json:"reserve1"`
	ReserveUSD         string    `json:"reserveUSD"`
	VolumeUSD          string    `json:"volumeUSD"`
	TxCount            string    `json:"txCount"`
	CreatedAtTimestamp string    `json:"createdAtTimestamp"`
	TotalSupply        string    `json:"totalSupply"`
}

// graphQLRequest is the POST body sent to the subgraph endpoint.
type graphQLRequest struct {
	Query string `json:"query"`
}

// graphQLError is a single error entry in a subgraph response.
type graphQLError struct {
	Message string `json:"message"`
}

// graphQLResponse is the subgraph response envelope.
type graphQLResponse struct {
	Data struct {
		Pairs []PairRecord `json:"pairs"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}
