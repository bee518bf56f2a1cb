package ports

import (
	"context"

	"phishguard/internal/domain"
)

// Assessor scores a single URL and optionally records the outcome.
type Assessor interface {
	Assess(ctx context.Context, rawurl string) (domain.Assessment, error)
	Detect(ctx context.Context, rawurl string, meta domain.RequestMeta) (domain.Assessment, error)
}

// Analytics summarises the analysis log.
type Analytics interface {
	Summary(ctx context.Context, recent int) (domain.Summary, error)
}
