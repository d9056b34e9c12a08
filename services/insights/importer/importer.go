package importer

import (
	"context"
	"errors"
	"time"

	"github.com/denster32/health-insights/services/insights/common"
	"github.com/denster32/health-insights/services/insights/config"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

var log = logger.GetOrCreate("importer")

// jsonImporter extracts raw samples from health-export JSON documents using
// configured gjson paths and writes them to the sample store
type jsonImporter struct {
	store    SampleWriter
	mappings []config.ImportMappingConfig
}

// NewJSONImporter creates a new importer instance
func NewJSONImporter(store SampleWriter, mappings []config.ImportMappingConfig) (*jsonImporter, error) {
	if check.IfNil(store) {
		return nil, errors.New("nil sample writer")
	}
	for _, mapping := range mappings {
		if len(mapping.Metric) == 0 || len(mapping.RecordsPath) == 0 ||
			len(mapping.TimestampPath) == 0 || len(mapping.ValuePath) == 0 {
			return nil, errors.New("incomplete import mapping for metric '" + mapping.Metric + "'")
		}
	}

	return &jsonImporter{
		store:    store,
		mappings: mappings,
	}, nil
}

// ImportJSON extracts all configured metrics from the payload and persists them
// as one batch, returning the number of imported samples. Records that fail
// extraction are skipped, matching the tolerance for noisy export files; a
// payload matching none of the configured records paths is rejected.
func (imp *jsonImporter) ImportJSON(ctx context.Context, payload []byte) (int, error) {
	if len(imp.mappings) == 0 {
		return 0, errors.New("no import mappings configured")
	}

	var samples []common.RawSample
	matchedPaths := 0
	for _, mapping := range imp.mappings {
		records := gjson.GetBytes(payload, mapping.RecordsPath)
		if !records.Exists() {
			continue
		}
		matchedPaths++

		records.ForEach(func(_ gjson.Result, record gjson.Result) bool {
			sample, err := imp.extractSample(mapping, record)
			if err != nil {
				log.Warn("skipping record", "metric", mapping.Metric, "error", err)
				return true // Omits from batch
			}

			samples = append(samples, sample)
			return true
		})
	}

	if matchedPaths == 0 {
		return 0, errNoRecordsFound(imp.mappings[0].RecordsPath)
	}
	if len(samples) == 0 {
		return 0, nil
	}

	err := imp.store.InsertSamples(ctx, samples)
	if err != nil {
		return 0, err
	}

	log.Debug("imported samples", "count", len(samples), "matchedPaths", matchedPaths)

	return len(samples), nil
}

func (imp *jsonImporter) extractSample(mapping config.ImportMappingConfig, record gjson.Result) (common.RawSample, error) {
	ts := record.Get(mapping.TimestampPath)
	if !ts.Exists() {
		return common.RawSample{}, errBadTimestamp(mapping.TimestampPath)
	}

	recordedAt, err := parseTimestamp(ts)
	if err != nil {
		return common.RawSample{}, err
	}

	value := record.Get(mapping.ValuePath)
	if !value.Exists() {
		return common.RawSample{}, errors.New("value path not found in record: " + mapping.ValuePath)
	}

	return common.RawSample{
		Metric:     mapping.Metric,
		RecordedAt: recordedAt,
		Value:      value.Float(),
	}, nil
}

// parseTimestamp accepts unix seconds or an RFC3339 string
func parseTimestamp(ts gjson.Result) (int64, error) {
	if ts.Type == gjson.String {
		parsed, err := time.Parse(time.RFC3339, ts.String())
		if err != nil {
			return 0, errBadTimestamp(ts.String())
		}

		return parsed.Unix(), nil
	}

	return ts.Int(), nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (imp *jsonImporter) IsInterfaceNil() bool {
	return imp == nil
}
