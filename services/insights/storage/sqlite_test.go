package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/denster32/health-insights/services/insights/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *sqliteSampleStore {
	store, err := NewSQLiteSampleStore(":memory:", 3600)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func TestSQLiteSampleStore_InsertAndScan(t *testing.T) {
	t.Parallel()

	store := createTestStore(t)
	ctx := context.Background()

	err := store.InsertSamples(ctx, []common.RawSample{
		{Metric: "heartRate", RecordedAt: 300, Value: 64},
		{Metric: "heartRate", RecordedAt: 100, Value: 60},
		{Metric: "steps", RecordedAt: 200, Value: 15},
		{Metric: "heartRate", RecordedAt: 200, Value: 62},
	})
	require.NoError(t, err)

	t.Run("scan returns ascending order for one metric", func(t *testing.T) {
		samples, err := store.Scan(ctx, "heartRate", 0, 1000)
		require.NoError(t, err)
		require.Len(t, samples, 3)

		assert.Equal(t, int64(100), samples[0].RecordedAt)
		assert.Equal(t, int64(200), samples[1].RecordedAt)
		assert.Equal(t, int64(300), samples[2].RecordedAt)
		assert.Equal(t, 60.0, samples[0].Value)
		assert.Equal(t, "heartRate", samples[0].Metric)
	})
	t.Run("scan range is half-open", func(t *testing.T) {
		samples, err := store.Scan(ctx, "heartRate", 100, 300)
		require.NoError(t, err)
		require.Len(t, samples, 2)

		assert.Equal(t, int64(100), samples[0].RecordedAt)
		assert.Equal(t, int64(200), samples[1].RecordedAt)
	})
	t.Run("scan of unknown metric returns empty", func(t *testing.T) {
		samples, err := store.Scan(ctx, "bogusMetric", 0, 1000)
		require.NoError(t, err)
		assert.Empty(t, samples)
	})
}

func TestSQLiteSampleStore_InsertValidation(t *testing.T) {
	t.Parallel()

	store := createTestStore(t)
	ctx := context.Background()

	t.Run("empty batch is a no-op", func(t *testing.T) {
		versionBefore := store.CurrentSampleVersion()

		err := store.InsertSamples(ctx, nil)
		assert.NoError(t, err)
		assert.Equal(t, versionBefore, store.CurrentSampleVersion())
	})
	t.Run("empty metric name fails the whole batch", func(t *testing.T) {
		err := store.InsertSamples(ctx, []common.RawSample{
			{Metric: "heartRate", RecordedAt: 100, Value: 60},
			{Metric: "", RecordedAt: 200, Value: 61},
		})
		require.Error(t, err)

		// transaction rolled back, nothing persisted
		samples, err := store.Scan(ctx, "heartRate", 0, 1000)
		require.NoError(t, err)
		assert.Empty(t, samples)
	})
}

func TestSQLiteSampleStore_VersionAndNotifications(t *testing.T) {
	t.Parallel()

	store := createTestStore(t)
	ctx := context.Background()

	type notification struct {
		metric string
		minTs  int64
		maxTs  int64
	}

	var mut sync.Mutex
	received := make(map[string]notification)
	store.SubscribeToIngestion(func(metric string, minTs int64, maxTs int64) {
		mut.Lock()
		received[metric] = notification{metric: metric, minTs: minTs, maxTs: maxTs}
		mut.Unlock()
	})

	assert.Equal(t, uint64(0), store.CurrentSampleVersion())

	err := store.InsertSamples(ctx, []common.RawSample{
		{Metric: "heartRate", RecordedAt: 300, Value: 64},
		{Metric: "heartRate", RecordedAt: 100, Value: 60},
		{Metric: "steps", RecordedAt: 200, Value: 15},
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), store.CurrentSampleVersion())

	mut.Lock()
	defer mut.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, notification{metric: "heartRate", minTs: 100, maxTs: 300}, received["heartRate"])
	assert.Equal(t, notification{metric: "steps", minTs: 200, maxTs: 200}, received["steps"])
}

func TestSQLiteSampleStore_RetentionCleanup(t *testing.T) {
	t.Parallel()

	store := createTestStore(t)
	ctx := context.Background()

	// one sample far in the past, one recent
	err := store.InsertSamples(ctx, []common.RawSample{
		{Metric: "heartRate", RecordedAt: 1, Value: 60},
	})
	require.NoError(t, err)

	err = store.cleanRetainedSamples(ctx)
	require.NoError(t, err)

	samples, err := store.Scan(ctx, "heartRate", 0, 1000)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestSQLiteSampleStore_IsInterfaceNil(t *testing.T) {
	t.Parallel()

	var store *sqliteSampleStore
	assert.True(t, store.IsInterfaceNil())

	store = createTestStore(t)
	assert.False(t, store.IsInterfaceNil())
}
