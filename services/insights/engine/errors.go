package engine

import "errors"

// ErrUnknownMetric signals that a requested metric id has no registered definition
var ErrUnknownMetric = errors.New("unknown metric")

// ErrInvalidRange signals that rangeStart >= rangeEnd
var ErrInvalidRange = errors.New("invalid range: start must be before end")

// ErrDataSourceUnavailable signals that the sample store scan failed; safe to retry
var ErrDataSourceUnavailable = errors.New("data source unavailable")

// ErrInvalidReduction signals a metric definition carrying an unsupported reduction name
var ErrInvalidReduction = errors.New("invalid reduction")
