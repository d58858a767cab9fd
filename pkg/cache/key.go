// Package cache provides the short-lived result cache keyed by normalized
// query parameters, with in-memory and Redis backends.
package cache

import (
	"fmt"

	"github.com/guidias1961/pulse-screener/pkg/subgraph"
)

// Key identifies one distinct screener request. Requests differing in any
// field are cached independently.
type Key struct {
	View    subgraph.View
	Pages   int
	AgeDays int
	Limit   int
}

// String generates a deterministic cache key string.
//
// Example:
//
//	screener:view=volume:pages=5:age=7:limit=100
func (k Key) String() string {
	return fmt.Sprintf("screener:view=%s:pages=%d:age=%d:limit=%d", k.View, k.Pages, k.AgeDays, k.Limit)
}
