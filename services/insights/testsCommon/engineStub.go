package testsCommon

import (
	"context"

	"github.com/denster32/health-insights/services/insights/engine"
)

// EngineStub -
type EngineStub struct {
	AggregateHistoricalDataHandler func(ctx context.Context, metricIDs []string, rangeStart int64, rangeEnd int64) (engine.SeriesResult, error)
	DefinitionsHandler             func() []engine.MetricDefinition
	CacheStatsHandler              func() engine.CacheStats
}

// AggregateHistoricalData -
func (stub *EngineStub) AggregateHistoricalData(ctx context.Context, metricIDs []string, rangeStart int64, rangeEnd int64) (engine.SeriesResult, error) {
	if stub.AggregateHistoricalDataHandler != nil {
		return stub.AggregateHistoricalDataHandler(ctx, metricIDs, rangeStart, rangeEnd)
	}

	return make(engine.SeriesResult), nil
}

// Definitions -
func (stub *EngineStub) Definitions() []engine.MetricDefinition {
	if stub.DefinitionsHandler != nil {
		return stub.DefinitionsHandler()
	}

	return make([]engine.MetricDefinition, 0)
}

// CacheStats -
func (stub *EngineStub) CacheStats() engine.CacheStats {
	if stub.CacheStatsHandler != nil {
		return stub.CacheStatsHandler()
	}

	return engine.CacheStats{}
}

// IsInterfaceNil -
func (stub *EngineStub) IsInterfaceNil() bool {
	return stub == nil
}
