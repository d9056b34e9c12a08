package commonGo

import "time"

// FileLoggingHandler defines the operations of an entity handling log file rotation
type FileLoggingHandler interface {
	ChangeFileLifeSpan(newDuration time.Duration, newSizeInMB uint64) error
	Close() error
	IsInterfaceNil() bool
}
