package ports

import "phishguard/internal/domain"

// Recorder hands completed records to the analysis log without blocking the caller.
type Recorder interface {
	Enqueue(rec domain.Record) bool
}
