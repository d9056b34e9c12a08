package engine

import (
	"context"

	"github.com/denster32/health-insights/services/insights/common"
)

// SampleStore defines the interface for reading raw health observations
type SampleStore interface {
	// Scan returns the stored samples for one metric inside [start, end), in
	// non-decreasing recordedAt order.
	Scan(ctx context.Context, metric string, start int64, end int64) ([]common.RawSample, error)

	// CurrentSampleVersion returns a counter bumped on every committed ingestion batch
	CurrentSampleVersion() uint64

	// SubscribeToIngestion registers a callback invoked after each committed batch
	// with the touched metric and the [minTs, maxTs] range of its timestamps.
	SubscribeToIngestion(callback func(metric string, minTs int64, maxTs int64))

	IsInterfaceNil() bool
}
