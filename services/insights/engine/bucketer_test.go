package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanBuckets(t *testing.T) {
	t.Parallel()

	t.Run("start equal to end should error", func(t *testing.T) {
		buckets, err := planBuckets(1000, 1000, 200, 60)

		assert.Nil(t, buckets)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
	t.Run("start after end should error", func(t *testing.T) {
		buckets, err := planBuckets(2000, 1000, 200, 60)

		assert.Nil(t, buckets)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
	t.Run("24h range with budget 24 should yield 24 one-hour buckets", func(t *testing.T) {
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
		end := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Unix()

		buckets, err := planBuckets(start, end, 24, 60)
		require.NoError(t, err)
		require.Len(t, buckets, 24)

		for i, bucket := range buckets {
			assert.Equal(t, i, bucket.Index)
			assert.Equal(t, start+int64(i)*3600, bucket.Start)
			assert.Equal(t, start+int64(i+1)*3600, bucket.End)
		}
	})
	t.Run("minimum width floors the resolution for short ranges", func(t *testing.T) {
		// 100s range with budget 200 would give sub-second buckets
		buckets, err := planBuckets(0, 100, 200, 60)
		require.NoError(t, err)
		require.Len(t, buckets, 2)

		assert.Equal(t, TimeBucket{Start: 0, End: 60, Index: 0}, buckets[0])
		assert.Equal(t, TimeBucket{Start: 60, End: 100, Index: 1}, buckets[1])
	})
	t.Run("last bucket is clipped and never wider than the others", func(t *testing.T) {
		buckets, err := planBuckets(0, 1000, 3, 60)
		require.NoError(t, err)

		width := buckets[0].End - buckets[0].Start
		for _, bucket := range buckets[:len(buckets)-1] {
			assert.Equal(t, width, bucket.End-bucket.Start)
		}
		last := buckets[len(buckets)-1]
		assert.LessOrEqual(t, last.End-last.Start, width)
	})
}

func TestPlanBuckets_CoverageInvariant(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		start       int64
		end         int64
		pointBudget int
		minWidth    int64
	}{
		{start: 0, end: 86400, pointBudget: 200, minWidth: 60},
		{start: 1704067200, end: 1704153600, pointBudget: 24, minWidth: 60},
		{start: 0, end: 61, pointBudget: 200, minWidth: 60},
		{start: 0, end: 1, pointBudget: 1, minWidth: 60},
		{start: -3600, end: 3600, pointBudget: 7, minWidth: 60},
		{start: 0, end: 31536000, pointBudget: 200, minWidth: 60},
	}

	for _, tc := range testCases {
		buckets, err := planBuckets(tc.start, tc.end, tc.pointBudget, tc.minWidth)
		require.NoError(t, err)
		require.NotEmpty(t, buckets)

		// contiguous, non-overlapping, covering exactly [start, end)
		assert.Equal(t, tc.start, buckets[0].Start)
		assert.Equal(t, tc.end, buckets[len(buckets)-1].End)
		for i := 1; i < len(buckets); i++ {
			assert.Equal(t, buckets[i-1].End, buckets[i].Start)
			assert.Less(t, buckets[i].Start, buckets[i].End)
		}
	}
}

func TestPlanBuckets_Deterministic(t *testing.T) {
	t.Parallel()

	first, err := planBuckets(1704067200, 1704153600, 37, 60)
	require.NoError(t, err)
	second, err := planBuckets(1704067200, 1704153600, 37, 60)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
