package aggregate

import (
	"math/rand"
	"testing"

	"github.com/guidias1961/pulse-screener/pkg/subgraph"
)

func token(addr, symbol string) subgraph.TokenInfo {
	return subgraph.TokenInfo{ID: addr, Symbol: symbol, Name: symbol + " Token", Decimals: "18"}
}

func pair(id string, t0, t1 subgraph.TokenInfo, reserveUSD, volumeUSD, createdAt string) subgraph.PairRecord {
	return subgraph.PairRecord{
		ID:                 id,
		Token0:             t0,
		Token1:             t1,
		ReserveUSD:         reserveUSD,
		VolumeUSD:          volumeUSD,
		CreatedAtTimestamp: createdAt,
	}
}

func TestFold_SplitsPairEvenly(t *testing.T) {
	// One pair WPLS/FOO: WPLS is excluded, FOO gets half of each total.
	agg := NewAggregator().Fold([]subgraph.PairRecord{
		pair("0xpool1", token("0xwpls", "WPLS"), token("0xa", "FOO"), "1000", "200", "1700000000"),
	})

	if agg.Len() != 1 {
		t.Fatalf("tokens = %d, want 1", agg.Len())
	}

	foo := agg.Token("0xa")
	if foo == nil {
		t.Fatal("aggregate for 0xa missing")
	}
	if foo.TotalLiquidity != 500 {
		t.Errorf("TotalLiquidity = %v, want 500", foo.TotalLiquidity)
	}
	if foo.TotalVolume != 100 {
		t.Errorf("TotalVolume = %v, want 100", foo.TotalVolume)
	}
	if foo.PoolCount != 1 {
		t.Errorf("PoolCount = %d, want 1", foo.PoolCount)
	}
}

func TestFold_OrderIndependent(t *testing.T) {
	pairs := []subgraph.PairRecord{
		pair("0xp1", token("0xa", "FOO"), token("0xb", "BAR"), "1000", "200", "100"),
		pair("0xp2", token("0xa", "FOO"), token("0xc", "BAZ"), "400", "80", "50"),
		pair("0xp3", token("0xb", "BAR"), token("0xc", "BAZ"), "600", "0", "70"),
		pair("0xp4", token("0xa", "FOO"), token("0xwpls", "WPLS"), "2000", "1000", "30"),
	}

	base := NewAggregator().Fold(pairs)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]subgraph.PairRecord, len(pairs))
		copy(shuffled, pairs)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got := NewAggregator().Fold(shuffled)
		if got.Len() != base.Len() {
			t.Fatalf("trial %d: tokens = %d, want %d", trial, got.Len(), base.Len())
		}
		for _, want := range base.Tokens() {
			have := got.Token(want.Address)
			if have == nil {
				t.Fatalf("trial %d: token %s missing", trial, want.Address)
			}
			if have.TotalLiquidity != want.TotalLiquidity {
				t.Errorf("trial %d: %s liquidity = %v, want %v", trial, want.Address, have.TotalLiquidity, want.TotalLiquidity)
			}
			if have.TotalVolume != want.TotalVolume {
				t.Errorf("trial %d: %s volume = %v, want %v", trial, want.Address, have.TotalVolume, want.TotalVolume)
			}
			if have.PoolCount != want.PoolCount {
				t.Errorf("trial %d: %s pool count = %d, want %d", trial, want.Address, have.PoolCount, want.PoolCount)
			}
			if have.EarliestCreated != want.EarliestCreated {
				t.Errorf("trial %d: %s earliest = %d, want %d", trial, want.Address, have.EarliestCreated, want.EarliestCreated)
			}
		}
	}
}

func TestFold_SkipsDeadPools(t *testing.T) {
	agg := NewAggregator().Fold([]subgraph.PairRecord{
		pair("0xdead", token("0xa", "FOO"), token("0xb", "BAR"), "0", "0", "100"),
		pair("0xneg", token("0xa", "FOO"), token("0xb", "BAR"), "-5", "-1", "100"),
		pair("0xjunk", token("0xa", "FOO"), token("0xb", "BAR"), "not-a-number", "", "100"),
	})

	if agg.Len() != 0 {
		t.Errorf("tokens = %d, want 0 (dead pools contribute nothing)", agg.Len())
	}
}

func TestFold_VolumeOnlyPoolCounts(t *testing.T) {
	// Reserve 0 but positive volume still contributes.
	agg := NewAggregator().Fold([]subgraph.PairRecord{
		pair("0xp", token("0xa", "FOO"), token("0xb", "BAR"), "0", "100", "100"),
	})

	foo := agg.Token("0xa")
	if foo == nil {
		t.Fatal("aggregate for 0xa missing")
	}
	if foo.TotalVolume != 50 {
		t.Errorf("TotalVolume = %v, want 50", foo.TotalVolume)
	}
}

func TestFold_ExcludesQuoteSymbols(t *testing.T) {
	pairs := []subgraph.PairRecord{
		pair("0xp1", token("0xwpls", "WPLS"), token("0xa", "FOO"), "100", "10", "1"),
		pair("0xp2", token("0xdai", "DAI"), token("0xa", "FOO"), "100", "10", "1"),
		pair("0xp3", token("0xusdc", "usdc"), token("0xa", "FOO"), "100", "10", "1"),
	}

	agg := NewAggregator().Fold(pairs)

	for _, excluded := range []string{"0xwpls", "0xdai", "0xusdc"} {
		if agg.Token(excluded) != nil {
			t.Errorf("excluded token %s appeared in aggregate", excluded)
		}
	}
	if agg.Len() != 1 {
		t.Errorf("tokens = %d, want 1", agg.Len())
	}
}

func TestFold_SkipsEmptyAddress(t *testing.T) {
	agg := NewAggregator().Fold([]subgraph.PairRecord{
		pair("0xp", subgraph.TokenInfo{Symbol: "GHOST"}, token("0xa", "FOO"), "100", "10", "1"),
	})

	if agg.Len() != 1 {
		t.Errorf("tokens = %d, want 1 (empty address side skipped)", agg.Len())
	}
}

func TestFold_Invariants(t *testing.T) {
	agg := NewAggregator().Fold([]subgraph.PairRecord{
		pair("0xp1", token("0xa", "FOO"), token("0xb", "BAR"), "1000", "200", "300"),
		pair("0xp2", token("0xa", "FOO"), token("0xc", "BAZ"), "400", "80", "100"),
		pair("0xp3", token("0xa", "FOO"), token("0xd", "QUX"), "800", "20", "200"),
	})

	for _, tok := range agg.Tokens() {
		if tok.PoolCount != len(tok.Pools) {
			t.Errorf("%s: PoolCount = %d, len(Pools) = %d", tok.Address, tok.PoolCount, len(tok.Pools))
		}
		if tok.TotalLiquidity < 0 {
			t.Errorf("%s: TotalLiquidity = %v, want >= 0", tok.Address, tok.TotalLiquidity)
		}
		min := tok.Pools[0].CreatedAt
		for _, p := range tok.Pools {
			if p.CreatedAt < min {
				min = p.CreatedAt
			}
		}
		if tok.EarliestCreated != min {
			t.Errorf("%s: EarliestCreated = %d, want %d", tok.Address, tok.EarliestCreated, min)
		}
	}

	foo := agg.Token("0xa")
	if foo.EarliestCreated != 100 {
		t.Errorf("FOO EarliestCreated = %d, want 100", foo.EarliestCreated)
	}
}

func TestFold_BestPool(t *testing.T) {
	agg := NewAggregator().Fold([]subgraph.PairRecord{
		pair("0xsmall", token("0xa", "FOO"), token("0xb", "BAR"), "100", "10", "1"),
		pair("0xbig", token("0xa", "FOO"), token("0xc", "BAZ"), "900", "10", "1"),
	})

	foo := agg.Token("0xa")
	if foo.Best.Address != "0xbig" {
		t.Errorf("Best.Address = %s, want 0xbig", foo.Best.Address)
	}
	if foo.Best.Liquidity != 450 {
		t.Errorf("Best.Liquidity = %v, want 450", foo.Best.Liquidity)
	}
}

func TestProject_TruncatesBeforeSort(t *testing.T) {
	// Fold order: LOW (seen first), MID, HIGH. With limit 2 the cut keeps
	// the first two seen, dropping HIGH even though it ranks first by
	// volume. This matches the pipeline's long-standing behavior.
	agg := NewAggregator().Fold([]subgraph.PairRecord{
		pair("0xp1", token("0xlow", "LOW"), subgraph.TokenInfo{}, "10", "10", "1"),
		pair("0xp2", token("0xmid", "MID"), subgraph.TokenInfo{}, "10", "50", "1"),
		pair("0xp3", token("0xhigh", "HIGH"), subgraph.TokenInfo{}, "10", "900", "1"),
	})

	rows := Project(agg, 2, subgraph.ViewVolume)

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Symbol != "MID" || rows[1].Symbol != "LOW" {
		t.Errorf("rows = %s,%s, want MID,LOW", rows[0].Symbol, rows[1].Symbol)
	}
	for _, row := range rows {
		if row.Symbol == "HIGH" {
			t.Error("HIGH survived the cut, truncation must happen before sorting")
		}
	}
}

func TestProject_SortViews(t *testing.T) {
	agg := NewAggregator().Fold([]subgraph.PairRecord{
		pair("0xp1", token("0xa", "AAA"), subgraph.TokenInfo{}, "300", "10", "100"),
		pair("0xp2", token("0xb", "BBB"), subgraph.TokenInfo{}, "100", "90", "300"),
		pair("0xp3", token("0xc", "CCC"), subgraph.TokenInfo{}, "200", "50", "200"),
	})

	tests := []struct {
		view subgraph.View
		want []string
	}{
		{subgraph.ViewVolume, []string{"BBB", "CCC", "AAA"}},
		{subgraph.ViewLiquidity, []string{"AAA", "CCC", "BBB"}},
		{subgraph.ViewNew, []string{"BBB", "CCC", "AAA"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.view), func(t *testing.T) {
			rows := Project(agg, 0, tt.view)
			for i, want := range tt.want {
				if rows[i].Symbol != want {
					t.Errorf("row %d = %s, want %s", i, rows[i].Symbol, want)
				}
			}
		})
	}
}

func TestProject_RowFields(t *testing.T) {
	agg := NewAggregator().Fold([]subgraph.PairRecord{
		pair("0xpool", token("0xa", "FOO"), token("0xwpls", "WPLS"), "1000", "200", "1700000000"),
	})

	rows := Project(agg, 10, subgraph.ViewVolume)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}

	row := rows[0]
	if row.Price != 0 {
		t.Errorf("Price = %v, want 0 before enrichment", row.Price)
	}
	if row.Source != SourcePrimary {
		t.Errorf("Source = %s, want %s", row.Source, SourcePrimary)
	}
	if row.Liquidity != 500 || row.Volume24h != 100 {
		t.Errorf("Liquidity,Volume24h = %v,%v, want 500,100", row.Liquidity, row.Volume24h)
	}
	if row.PairURL != "https://dexscreener.com/pulsechain/0xpool" {
		t.Errorf("PairURL = %s", row.PairURL)
	}
	if row.CreatedAt != 1700000000 {
		t.Errorf("CreatedAt = %d, want 1700000000", row.CreatedAt)
	}
}

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1000.5", 1000.5},
		{"0", 0},
		{"-3", -3},
		{"", 0},
		{"garbage", 0},
		{"NaN", 0},
		{"+Inf", 0},
	}
	for _, tt := range tests {
		if got := parseDecimal(tt.in); got != tt.want {
			t.Errorf("parseDecimal(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
