package testsCommon

import (
	"context"

	"github.com/denster32/health-insights/services/insights/common"
)

// SampleStoreStub -
type SampleStoreStub struct {
	ScanHandler                 func(ctx context.Context, metric string, start int64, end int64) ([]common.RawSample, error)
	InsertSamplesHandler        func(ctx context.Context, samples []common.RawSample) error
	CurrentSampleVersionHandler func() uint64
	SubscribeToIngestionHandler func(callback func(metric string, minTs int64, maxTs int64))
	CloseHandler                func() error
}

// Scan -
func (stub *SampleStoreStub) Scan(ctx context.Context, metric string, start int64, end int64) ([]common.RawSample, error) {
	if stub.ScanHandler != nil {
		return stub.ScanHandler(ctx, metric, start, end)
	}

	return make([]common.RawSample, 0), nil
}

// InsertSamples -
func (stub *SampleStoreStub) InsertSamples(ctx context.Context, samples []common.RawSample) error {
	if stub.InsertSamplesHandler != nil {
		return stub.InsertSamplesHandler(ctx, samples)
	}

	return nil
}

// CurrentSampleVersion -
func (stub *SampleStoreStub) CurrentSampleVersion() uint64 {
	if stub.CurrentSampleVersionHandler != nil {
		return stub.CurrentSampleVersionHandler()
	}

	return 0
}

// SubscribeToIngestion -
func (stub *SampleStoreStub) SubscribeToIngestion(callback func(metric string, minTs int64, maxTs int64)) {
	if stub.SubscribeToIngestionHandler != nil {
		stub.SubscribeToIngestionHandler(callback)
	}
}

// Close -
func (stub *SampleStoreStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *SampleStoreStub) IsInterfaceNil() bool {
	return stub == nil
}
