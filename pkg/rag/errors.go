// Package rag implements the two-stage retrieval engine: point-level
// documents in a vector index, series shortlisting by deduplicated KNN,
// and bounded context construction for generation.
package rag

import "errors"

var (
	// ErrGenerationFailed reports a backend call error after the
	// fallback was exhausted. The cause is attached.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrProviderFetch reports an upstream data source error after
	// bounded retries.
	ErrProviderFetch = errors.New("provider fetch failed")
)
