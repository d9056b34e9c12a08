package common

// RawSample is one immutable health observation as produced by the sample store
type RawSample struct {
	Metric     string  `json:"metric"`
	RecordedAt int64   `json:"recordedAt"` // unix seconds
	Value      float64 `json:"value"`
}

// IngestPayload represents the incoming JSON body on /api/samples
type IngestPayload struct {
	Samples []RawSample `json:"samples"`
}

// PointPayload is one downsampled chart point. Value is nil for buckets without samples
// so the chart can render a gap instead of a fabricated zero.
type PointPayload struct {
	BucketStart int64    `json:"bucketStart"`
	Value       *float64 `json:"value,omitempty"`
	SampleCount uint32   `json:"sampleCount"`
}

// SeriesPayload is the response of /api/series: one ordered point sequence per metric
type SeriesPayload struct {
	Series map[string][]PointPayload `json:"series"`
}

// MetricInfoPayload describes a registered metric definition on /api/metrics
type MetricInfoPayload struct {
	ID          string  `json:"id"`
	DisplayUnit string  `json:"displayUnit"`
	Reduction   string  `json:"reduction"`
	MinValid    float64 `json:"minValid"`
	MaxValid    float64 `json:"maxValid"`
}

// CacheStatsPayload exposes result-cache counters on /api/stats
type CacheStatsPayload struct {
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
}
