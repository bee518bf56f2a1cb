package ports

import (
	"context"

	"phishguard/internal/domain"
)

// AnalysisLog is the append-only store of completed assessments. There is no
// update or delete path.
type AnalysisLog interface {
	Append(ctx context.Context, rec domain.Record) error
	// Scan calls fn for every record in insertion order and stops at the first error.
	Scan(ctx context.Context, fn func(domain.Record) error) error
	Close() error
}
