// Package search holds the source-aggregator boundary: clients that turn
// one country query into raw search results. Parsing and provider quirks
// stay behind this boundary; the pipeline only sees RawSearchResult.
package search

import (
	"context"

	"threatmap/internal/model"
)

// Provider fetches raw results for one country (strictCountry mode: every
// query is scoped to a single country).
type Provider interface {
	Name() string
	FetchCountry(ctx context.Context, country string, limit int) ([]model.RawSearchResult, error)
}
