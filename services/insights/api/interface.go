package api

import (
	"context"

	"github.com/denster32/health-insights/services/insights/common"
	"github.com/denster32/health-insights/services/insights/engine"
)

// Engine defines the interface for answering historical aggregation queries
type Engine interface {
	// AggregateHistoricalData returns one downsampled series per requested metric
	// over [rangeStart, rangeEnd), served from cache when possible
	AggregateHistoricalData(ctx context.Context, metricIDs []string, rangeStart int64, rangeEnd int64) (engine.SeriesResult, error)

	// Definitions returns every registered metric definition
	Definitions() []engine.MetricDefinition

	// CacheStats returns the result-cache counters
	CacheStats() engine.CacheStats

	IsInterfaceNil() bool
}

// SampleWriter defines the interface for persisting ingested observations
type SampleWriter interface {
	// InsertSamples appends a batch of observations in one transaction
	InsertSamples(ctx context.Context, samples []common.RawSample) error

	IsInterfaceNil() bool
}

// Importer defines the interface for extracting samples from health-export JSON
type Importer interface {
	// ImportJSON extracts all configured metrics from the payload and persists them
	ImportJSON(ctx context.Context, payload []byte) (int, error)

	IsInterfaceNil() bool
}
