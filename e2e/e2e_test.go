package e2e_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/denster32/health-insights/services/insights/common"
	insightsCfg "github.com/denster32/health-insights/services/insights/config"
	insightsFactory "github.com/denster32/health-insights/services/insights/factory"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/stretchr/testify/require"
)

var log = logger.GetOrCreate("e2e-test")

const serviceKey = "test-service-key"

func TestE2EFlow(t *testing.T) {
	log.Info("======== 1. Prepare SQLite path for the sample store")
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "e2e_samples.db")

	log.Info("======== 2. Start the insights service via componentsHandler")
	cfg := insightsCfg.Config{
		ListenAddress:             "127.0.0.1:0",
		DatabasePath:              dbPath,
		RetentionSeconds:          10 * 365 * 86400,
		PointBudget:               24,
		MinimumBucketWidthSeconds: 60,
		CacheCapacity:             50,
		Metrics: []insightsCfg.MetricConfig{
			{ID: "heartRate", DisplayUnit: "bpm", Reduction: "mean", MinValid: 20, MaxValid: 250},
			{ID: "steps", DisplayUnit: "count", Reduction: "sum", MinValid: 0, MaxValid: 100000},
		},
		Import: []insightsCfg.ImportMappingConfig{
			{Metric: "steps", RecordsPath: "data.steps.records", TimestampPath: "ts", ValuePath: "count"},
		},
	}

	handler, err := insightsFactory.NewComponentsHandler(serviceKey, cfg)
	require.NoError(t, err)

	handler.Start()
	defer handler.Close()

	// Given it's a goroutine, allow a small time to boot
	time.Sleep(50 * time.Millisecond)

	_, port, err := net.SplitHostPort(handler.GetServer().Address())
	require.NoError(t, err)
	baseURL := fmt.Sprintf("http://127.0.0.1:%s", port)

	rangeStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	rangeEnd := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Unix()
	seriesURL := fmt.Sprintf("%s/api/series?metrics=heartRate&from=%d&to=%d", baseURL, rangeStart, rangeEnd)

	log.Info("======== 3. Ingest heart-rate samples over HTTP")
	ingest := common.IngestPayload{
		Samples: []common.RawSample{
			{Metric: "heartRate", RecordedAt: rangeStart + 5*60, Value: 60},
			{Metric: "heartRate", RecordedAt: rangeStart + 40*60, Value: 64},
			{Metric: "heartRate", RecordedAt: rangeStart + 70*60, Value: 58},
		},
	}
	postJSON(t, baseURL+"/api/samples", ingest)

	log.Info("======== 4. Query the aggregated series")
	firstBody := getOK(t, seriesURL)

	var first common.SeriesPayload
	require.NoError(t, json.Unmarshal(firstBody, &first))
	points := first.Series["heartRate"]
	require.Len(t, points, 24)
	require.NotNil(t, points[0].Value)
	require.Equal(t, 62.0, *points[0].Value)
	require.Equal(t, uint32(2), points[0].SampleCount)
	require.NotNil(t, points[1].Value)
	require.Equal(t, 58.0, *points[1].Value)
	for _, point := range points[2:] {
		require.Nil(t, point.Value)
		require.Equal(t, uint32(0), point.SampleCount)
	}

	log.Info("======== 5. Repeat the query, expecting a cache hit with an identical result")
	secondBody := getOK(t, seriesURL)
	require.Equal(t, firstBody, secondBody)

	stats := getStats(t, baseURL)
	require.Equal(t, uint64(1), stats.Hits)

	log.Info("======== 6. Ingest inside the cached range, expecting invalidation")
	postJSON(t, baseURL+"/api/samples", common.IngestPayload{
		Samples: []common.RawSample{
			{Metric: "heartRate", RecordedAt: rangeStart + 10*60, Value: 80},
		},
	})

	thirdBody := getOK(t, seriesURL)
	var third common.SeriesPayload
	require.NoError(t, json.Unmarshal(thirdBody, &third))
	require.Equal(t, 68.0, *third.Series["heartRate"][0].Value) // mean of 60, 64, 80
	require.Equal(t, uint32(3), third.Series["heartRate"][0].SampleCount)

	log.Info("======== 7. Import a health-export JSON document")
	export := `{"data":{"steps":{"records":[
		{"ts": ` + fmt.Sprint(rangeStart+300) + `, "count": 120},
		{"ts": ` + fmt.Sprint(rangeStart+600) + `, "count": 250}
	]}}}`
	req, _ := http.NewRequest("POST", baseURL+"/api/import", bytes.NewBufferString(export))
	req.Header.Set("X-Api-Key", serviceKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stepsURL := fmt.Sprintf("%s/api/series?metrics=steps&from=%d&to=%d", baseURL, rangeStart, rangeEnd)
	stepsBody := getOK(t, stepsURL)
	var steps common.SeriesPayload
	require.NoError(t, json.Unmarshal(stepsBody, &steps))
	require.Equal(t, 370.0, *steps.Series["steps"][0].Value) // sum of the imported records

	log.Info("======== 8. Error cases reach the caller as typed outcomes")
	resp, err = http.Get(fmt.Sprintf("%s/api/series?metrics=bogusMetric&from=%d&to=%d", baseURL, rangeStart, rangeEnd))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(fmt.Sprintf("%s/api/series?metrics=heartRate&from=%d&to=%d", baseURL, rangeStart, rangeStart))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func postJSON(t *testing.T, url string, payload interface{}) {
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("X-Api-Key", serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func getOK(t *testing.T, url string) []byte {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return body
}

func getStats(t *testing.T, baseURL string) common.CacheStatsPayload {
	body := getOK(t, baseURL+"/api/stats")

	var stats common.CacheStatsPayload
	require.NoError(t, json.Unmarshal(body, &stats))

	return stats
}
