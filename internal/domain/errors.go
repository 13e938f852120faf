package domain

import "fmt"

// ProviderError tags a provider failure with its source. It is recovered at
// the aggregator boundary and reported in AggregationResult.ProviderErrors,
// never surfaced to the caller as a failure of the whole search.
type ProviderError struct {
	Source Source
	Err    error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err with its originating source.
func NewProviderError(source Source, err error) *ProviderError {
	return &ProviderError{Source: source, Err: err}
}
