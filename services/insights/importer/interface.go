package importer

import (
	"context"

	"github.com/denster32/health-insights/services/insights/common"
)

// SampleWriter defines the interface for persisting extracted observations
type SampleWriter interface {
	// InsertSamples appends a batch of observations in one transaction
	InsertSamples(ctx context.Context, samples []common.RawSample) error

	IsInterfaceNil() bool
}
