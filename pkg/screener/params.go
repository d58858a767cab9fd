package screener

import (
	"errors"
	"fmt"

	"github.com/guidias1961/pulse-screener/pkg/subgraph"
)

// ErrInvalidParams is returned when caller-supplied parameters fall outside
// the allowed domain. It is the only error GetTokens surfaces.
var ErrInvalidParams = errors.New("invalid parameters")

// ParamError names the offending parameter.
type ParamError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

// Is reports ErrInvalidParams for all parameter failures.
func (e *ParamError) Is(target error) bool {
	return target == ErrInvalidParams
}

// Parameter domain bounds.
const (
	MinPages   = 1
	MaxPages   = subgraph.MaxPages
	MinAgeDays = 1
	MaxAgeDays = 365
	MinLimit   = 1
	MaxLimit   = 500
)

// Params are the normalized query parameters of one screener request.
type Params struct {
	View    subgraph.View
	Pages   int
	AgeDays int
	Limit   int
}

// DefaultParams returns the parameter defaults.
func DefaultParams() Params {
	return Params{
		View:    subgraph.ViewVolume,
		Pages:   5,
		AgeDays: 7,
		Limit:   100,
	}
}

// Normalize fills zero values with defaults and validates the result.
func (p Params) Normalize() (Params, error) {
	defaults := DefaultParams()
	if p.View == "" {
		p.View = defaults.View
	}
	if p.Pages == 0 {
		p.Pages = defaults.Pages
	}
	if p.AgeDays == 0 {
		p.AgeDays = defaults.AgeDays
	}
	if p.Limit == 0 {
		p.Limit = defaults.Limit
	}

	if !p.View.Valid() {
		return Params{}, &ParamError{Field: "view", Reason: fmt.Sprintf("unknown view %q", p.View)}
	}
	if p.Pages < MinPages || p.Pages > MaxPages {
		return Params{}, &ParamError{Field: "pages", Reason: fmt.Sprintf("%d outside [%d,%d]", p.Pages, MinPages, MaxPages)}
	}
	if p.AgeDays < MinAgeDays || p.AgeDays > MaxAgeDays {
		return Params{}, &ParamError{Field: "ageDays", Reason: fmt.Sprintf("%d outside [%d,%d]", p.AgeDays, MinAgeDays, MaxAgeDays)}
	}
	if p.Limit < MinLimit || p.Limit > MaxLimit {
		return Params{}, &ParamError{Field: "limit", Reason: fmt.Sprintf("%d outside [%d,%d]", p.Limit, MinLimit, MaxLimit)}
	}

	return p, nil
}
