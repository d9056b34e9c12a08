package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/denster32/health-insights/services/insights/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("storage")

// sqliteSampleStore is the sqlite implementation for raw health observations
type sqliteSampleStore struct {
	db               *sql.DB
	retentionSeconds int
	sampleVersion    uint64
	mutSubscribers   sync.RWMutex
	subscribers      []func(metric string, minTs int64, maxTs int64)
	cancelFunc       context.CancelFunc
	wg               sync.WaitGroup
}

// NewSQLiteSampleStore creates the database, schema, and starts the retention cleaner
func NewSQLiteSampleStore(dbPath string, retentionSeconds int) (*sqliteSampleStore, error) {
	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial empty DB file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &sqliteSampleStore{
		db:               db,
		retentionSeconds: retentionSeconds,
		cancelFunc:       cancel,
	}

	s.startRetentionCleaner(ctx)

	return s, nil
}

func prepareDirectories(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}

	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS samples (
		metric_name TEXT    NOT NULL,
		value       REAL    NOT NULL,
		recorded_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_samples_metric_recorded_at ON samples(metric_name, recorded_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// InsertSamples appends a batch of observations in one transaction; on commit it
// bumps the sample version and notifies the ingestion subscribers with the
// touched timestamp range per metric
func (s *sqliteSampleStore) InsertSamples(ctx context.Context, samples []common.RawSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, sample := range samples {
		if len(sample.Metric) == 0 {
			return errors.New("empty metric name in sample")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO samples (metric_name, value, recorded_at)
			VALUES (?, ?, ?)
		`, sample.Metric, sample.Value, sample.RecordedAt)
		if err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	atomic.AddUint64(&s.sampleVersion, 1)
	s.notifySubscribers(samples)

	return nil
}

func (s *sqliteSampleStore) notifySubscribers(samples []common.RawSample) {
	type tsRange struct {
		minTs int64
		maxTs int64
	}

	touched := make(map[string]tsRange)
	for _, sample := range samples {
		r, exists := touched[sample.Metric]
		if !exists {
			touched[sample.Metric] = tsRange{minTs: sample.RecordedAt, maxTs: sample.RecordedAt}
			continue
		}

		if sample.RecordedAt < r.minTs {
			r.minTs = sample.RecordedAt
		}
		if sample.RecordedAt > r.maxTs {
			r.maxTs = sample.RecordedAt
		}
		touched[sample.Metric] = r
	}

	s.mutSubscribers.RLock()
	defer s.mutSubscribers.RUnlock()

	for metric, r := range touched {
		for _, callback := range s.subscribers {
			callback(metric, r.minTs, r.maxTs)
		}
	}
}

// Scan returns the samples for one metric inside [start, end), ascending by recorded_at
func (s *sqliteSampleStore) Scan(ctx context.Context, metric string, start int64, end int64) ([]common.RawSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT value, recorded_at
		FROM samples
		WHERE metric_name = ? AND recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at ASC
	`, metric, start, end)
	if err != nil {
		return nil, fmt.Errorf("scan query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var results []common.RawSample
	for rows.Next() {
		sample := common.RawSample{Metric: metric}

		err = rows.Scan(&sample.Value, &sample.RecordedAt)
		if err != nil {
			return nil, err
		}

		results = append(results, sample)
	}

	return results, rows.Err()
}

// CurrentSampleVersion returns the counter bumped on every committed ingestion batch
func (s *sqliteSampleStore) CurrentSampleVersion() uint64 {
	return atomic.LoadUint64(&s.sampleVersion)
}

// SubscribeToIngestion registers a callback invoked after each committed batch
func (s *sqliteSampleStore) SubscribeToIngestion(callback func(metric string, minTs int64, maxTs int64)) {
	if callback == nil {
		return
	}

	s.mutSubscribers.Lock()
	s.subscribers = append(s.subscribers, callback)
	s.mutSubscribers.Unlock()
}

func (s *sqliteSampleStore) cleanRetainedSamples(ctx context.Context) error {
	nowSec := time.Now().Unix()
	cutoff := nowSec - int64(s.retentionSeconds)
	_, err := s.db.ExecContext(ctx, "DELETE FROM samples WHERE recorded_at < ?", cutoff)
	return err
}

func (s *sqliteSampleStore) startRetentionCleaner(ctx context.Context) {
	s.wg.Add(1)

	// max(RetentionSeconds/10, 60)
	intervalSec := s.retentionSeconds / 10
	if intervalSec < 60 {
		intervalSec = 60
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Debug("running retention cleanup")

				err := s.cleanRetainedSamples(ctx)
				if err != nil {
					log.Warn("failed to cleanup retained samples", "error", err)
				}
			}
		}
	}()
}

// Close closes the database and stops background routines
func (s *sqliteSampleStore) Close() error {
	s.cancelFunc()
	s.wg.Wait()
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqliteSampleStore) IsInterfaceNil() bool {
	return s == nil
}
