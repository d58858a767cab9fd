package subgraph

import (
	"context"
	"time"

	"github.com/guidias1961/pulse-screener/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// PageSize is the subgraph's maximum rows per page.
const PageSize = 1000

// MaxPages bounds the page budget accepted by the pager.
const MaxPages = 20

var subgraphPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "screener_subgraph_pages_total",
	Help: "Total pages fetched from the subgraph by view and outcome",
}, []string{"view", "outcome"})

// PairSource fetches one page of pairs.
type PairSource interface {
	FetchPairs(ctx context.Context, q Query) ([]PairRecord, error)
}

// Pager walks pair pages until the budget is spent or the source runs dry.
type Pager struct {
	source   PairSource
	pageSize int
	logger   zerolog.Logger

	// now is swappable for tests of the ViewNew cutoff.
	now func() time.Time
}

// NewPager creates a pagination driver over source.
func NewPager(source PairSource) *Pager {
	return &Pager{
		source:   source,
		pageSize: PageSize,
		logger:   logging.NewLogger("pager"),
		now:      time.Now,
	}
}

// FetchAll collects up to pages*PageSize pairs for the given view. It stops
// early on an empty or short page, and on a page failure it keeps whatever
// was already collected instead of propagating the error. For ViewNew the
// creation cutoff is computed once and held constant across all pages.
func (p *Pager) FetchAll(ctx context.Context, view View, pages int, ageDays int) []PairRecord {
	if pages < 1 {
		pages = 1
	}
	if pages > MaxPages {
		pages = MaxPages
	}

	var cutoff int64
	if view == ViewNew {
		cutoff = p.now().Unix() - int64(ageDays)*86400
	}

	var collected []PairRecord
	for page := 0; page < pages; page++ {
		batch, err := p.source.FetchPairs(ctx, Query{
			View:   view,
			First:  p.pageSize,
			Skip:   page * p.pageSize,
			Cutoff: cutoff,
		})
		if err != nil {
			subgraphPagesTotal.WithLabelValues(string(view), "failed").Inc()
			p.logger.Warn().
				Err(err).
				Str("view", string(view)).
				Int("page", page).
				Int("collected", len(collected)).
				Msg("Page fetch failed, returning partial result")
			return collected
		}

		subgraphPagesTotal.WithLabelValues(string(view), "ok").Inc()
		collected = append(collected, batch...)

		if len(batch) < p.pageSize {
			break
		}
	}

	p.logger.Debug().
		Str("view", string(view)).
		Int("pairs", len(collected)).
		Msg("Pagination complete")

	return collected
}
