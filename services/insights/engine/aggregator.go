package engine

import (
	"github.com/denster32/health-insights/services/insights/common"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("engine")

// AggregatedPoint is one bucket's summary. HasValue is false when no in-domain
// sample fell inside the bucket; such points are kept so charts render a gap
// instead of compressing the time axis.
type AggregatedPoint struct {
	BucketStart int64
	Value       float64
	SampleCount uint32
	HasValue    bool
}

// Series is the ordered point sequence of one metric, one point per bucket
type Series []AggregatedPoint

// SeriesResult maps metric ids to their aggregated series; all series of one
// query share identical bucket boundaries
type SeriesResult map[string]Series

// bucketAccumulator folds the samples of one bucket according to the metric's reduction
type bucketAccumulator struct {
	reduction Reduction
	count     uint32
	sum       float64
	min       float64
	max       float64
	last      float64
	lastTs    int64
}

func (acc *bucketAccumulator) add(sample common.RawSample) {
	if acc.count == 0 {
		acc.min = sample.Value
		acc.max = sample.Value
		acc.last = sample.Value
		acc.lastTs = sample.RecordedAt
	} else {
		if sample.Value < acc.min {
			acc.min = sample.Value
		}
		if sample.Value > acc.max {
			acc.max = sample.Value
		}
		// samples arrive in non-decreasing order, ties resolve to the latest seen
		if sample.RecordedAt >= acc.lastTs {
			acc.last = sample.Value
			acc.lastTs = sample.RecordedAt
		}
	}

	acc.sum += sample.Value
	acc.count++
}

func (acc *bucketAccumulator) finish(bucket TimeBucket) AggregatedPoint {
	point := AggregatedPoint{
		BucketStart: bucket.Start,
		SampleCount: acc.count,
	}
	if acc.count == 0 {
		return point
	}

	point.HasValue = true
	switch acc.reduction {
	case ReductionMean:
		point.Value = acc.sum / float64(acc.count)
	case ReductionLastValue:
		point.Value = acc.last
	case ReductionSum:
		point.Value = acc.sum
	case ReductionMin:
		point.Value = acc.min
	case ReductionMax:
		point.Value = acc.max
	}

	return point
}

// aggregateSeries reduces one metric's samples into one point per bucket in a
// single ascending pass. Samples must be sorted by recordedAt; samples outside
// the metric's valid domain are dropped silently and do not count.
func aggregateSeries(buckets []TimeBucket, samples []common.RawSample, definition MetricDefinition) Series {
	series := make(Series, 0, len(buckets))
	acc := bucketAccumulator{reduction: definition.Reduction}

	cursor := 0
	for _, sample := range samples {
		if !definition.inDomain(sample.Value) {
			log.Trace("dropping out-of-domain sample", "metric", definition.ID, "value", sample.Value)
			continue
		}

		// advance to the bucket containing this sample, flushing the ones walked past
		for cursor < len(buckets) && sample.RecordedAt >= buckets[cursor].End {
			series = append(series, acc.finish(buckets[cursor]))
			acc = bucketAccumulator{reduction: definition.Reduction}
			cursor++
		}
		if cursor >= len(buckets) {
			break
		}
		if sample.RecordedAt < buckets[cursor].Start {
			continue
		}

		acc.add(sample)
	}

	for ; cursor < len(buckets); cursor++ {
		series = append(series, acc.finish(buckets[cursor]))
		acc = bucketAccumulator{reduction: definition.Reduction}
	}

	return series
}
