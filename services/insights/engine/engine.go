package engine

import (
	"context"
	"fmt"

	"github.com/denster32/health-insights/services/insights/config"
	"github.com/multiversx/mx-chain-core-go/core/check"
)

const (
	defaultPointBudget        = 200
	defaultMinimumBucketWidth = 60 // seconds
	defaultCacheCapacity      = 50
)

// ArgsInsightsEngine defines the engine construction arguments
type ArgsInsightsEngine struct {
	Store                     SampleStore
	Metrics                   []config.MetricConfig
	PointBudget               int
	MinimumBucketWidthSeconds int64
	CacheCapacity             int
}

// insightsEngine aggregates raw health observations into downsampled, chart-ready
// series. Bucketing and aggregation touch no shared state; the result cache is the
// single synchronized structure, so independent queries run fully in parallel.
type insightsEngine struct {
	store              SampleStore
	registry           *metricRegistry
	cache              *resultCache
	pointBudget        int
	minimumBucketWidth int64
}

// NewInsightsEngine creates a new engine instance and subscribes it to the
// store's ingestion notifications for cache invalidation
func NewInsightsEngine(args ArgsInsightsEngine) (*insightsEngine, error) {
	if check.IfNil(args.Store) {
		return nil, fmt.Errorf("nil sample store")
	}

	registry, err := newMetricRegistry(args.Metrics)
	if err != nil {
		return nil, err
	}

	pointBudget := args.PointBudget
	if pointBudget <= 0 {
		pointBudget = defaultPointBudget
	}
	minimumBucketWidth := args.MinimumBucketWidthSeconds
	if minimumBucketWidth <= 0 {
		minimumBucketWidth = defaultMinimumBucketWidth
	}
	cacheCapacity := args.CacheCapacity
	if cacheCapacity <= 0 {
		cacheCapacity = defaultCacheCapacity
	}

	e := &insightsEngine{
		store:              args.Store,
		registry:           registry,
		cache:              newResultCache(cacheCapacity),
		pointBudget:        pointBudget,
		minimumBucketWidth: minimumBucketWidth,
	}

	args.Store.SubscribeToIngestion(func(metric string, minTs int64, maxTs int64) {
		e.cache.invalidateRange(metric, minTs, maxTs)
	})

	return e, nil
}

// AggregateHistoricalData resolves the requested metrics and returns one
// downsampled series per metric over [rangeStart, rangeEnd), serving repeated
// queries from the result cache. Failed queries are never cached.
func (e *insightsEngine) AggregateHistoricalData(ctx context.Context, metricIDs []string, rangeStart int64, rangeEnd int64) (SeriesResult, error) {
	if rangeStart >= rangeEnd {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, rangeStart, rangeEnd)
	}

	definitions, err := e.registry.resolve(metricIDs)
	if err != nil {
		return nil, err
	}

	width := e.bucketWidth(rangeStart, rangeEnd)
	key := cacheKey(definitions, rangeStart, rangeEnd, width)
	if cached, found := e.cache.get(key); found {
		log.Trace("serving aggregation from cache", "key", key)
		return cached, nil
	}

	buckets, err := planBuckets(rangeStart, rangeEnd, e.pointBudget, e.minimumBucketWidth)
	if err != nil {
		return nil, err
	}

	// the invalidation sequence and the sample version are read before the
	// scans; an ingestion landing mid-query bumps the sequence and put then
	// refuses to cache the pre-ingestion result
	snapshot := e.cache.snapshot()
	version := e.store.CurrentSampleVersion()

	result := make(SeriesResult, len(definitions))
	for _, definition := range definitions {
		samples, errScan := e.store.Scan(ctx, definition.ID, rangeStart, rangeEnd)
		if errScan != nil {
			return nil, fmt.Errorf("%w: %s", ErrDataSourceUnavailable, errScan.Error())
		}

		result[definition.ID] = aggregateSeries(buckets, samples, definition)
	}

	if !e.cache.put(key, result, rangeStart, rangeEnd, version, snapshot) {
		log.Trace("concurrent ingestion outdated the aggregation, not caching", "key", key)
	}
	log.Debug("aggregated historical data",
		"metrics", len(definitions), "buckets", len(buckets), "width", width)

	return result, nil
}

func (e *insightsEngine) bucketWidth(rangeStart int64, rangeEnd int64) int64 {
	width := ceilDiv(rangeEnd-rangeStart, int64(e.pointBudget))
	if width < e.minimumBucketWidth {
		width = e.minimumBucketWidth
	}

	return width
}

// Definitions returns every registered metric definition in lexicographic id order
func (e *insightsEngine) Definitions() []MetricDefinition {
	return e.registry.allDefinitions()
}

// CacheStats returns the result-cache counters
func (e *insightsEngine) CacheStats() CacheStats {
	return e.cache.stats()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *insightsEngine) IsInterfaceNil() bool {
	return e == nil
}
