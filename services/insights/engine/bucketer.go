package engine

import "fmt"

// TimeBucket is a half-open interval [Start, End) with its ordered index inside the query range
type TimeBucket struct {
	Start int64
	End   int64
	Index int
}

// planBuckets partitions [start, end) into contiguous, non-overlapping buckets.
// The width is derived from the point budget, floored at minimumWidth; the last
// bucket is clipped to end when the range is not an exact multiple of the width.
// Identical inputs always produce identical boundaries.
func planBuckets(start int64, end int64, pointBudget int, minimumWidth int64) ([]TimeBucket, error) {
	if start >= end {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, start, end)
	}

	rangeLength := end - start
	width := ceilDiv(rangeLength, int64(pointBudget))
	if width < minimumWidth {
		width = minimumWidth
	}

	numBuckets := int(ceilDiv(rangeLength, width))
	buckets := make([]TimeBucket, 0, numBuckets)
	for cursor := start; cursor < end; cursor += width {
		bucketEnd := cursor + width
		if bucketEnd > end {
			bucketEnd = end
		}

		buckets = append(buckets, TimeBucket{
			Start: cursor,
			End:   bucketEnd,
			Index: len(buckets),
		})
	}

	return buckets, nil
}

func ceilDiv(a int64, b int64) int64 {
	return (a + b - 1) / b
}
