package subgraph

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable is returned when the subgraph could not be reached
// within the retry budget.
var ErrSourceUnavailable = errors.New("subgraph unavailable")

// SourceError carries the last underlying cause after retries are exhausted.
type SourceError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("subgraph unavailable after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// Is reports ErrSourceUnavailable for all exhausted-retry failures.
func (e *SourceError) Is(target error) bool {
	return target == ErrSourceUnavailable
}
