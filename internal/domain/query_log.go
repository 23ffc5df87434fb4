package domain

import "time"

// QueryStatus records how a query request ended.
type QueryStatus string

const (
	QueryStatusAnswered QueryStatus = "answered"
	QueryStatusFailed   QueryStatus = "failed"
)

// QueryLog is one served query, kept for later review when a database is configured.
type QueryLog struct {
	ID         string
	RequestID  string
	Query      string
	Status     QueryStatus
	Sources    []string
	DurationMs int64
	CreatedAt  time.Time
}
