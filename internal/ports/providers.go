package ports

import (
	"context"
	"net/http"

	"phishguard/internal/domain"
)

// Evaluator produces exactly one SignalResult per call. Implementations must not
// retain or mutate the target.
type Evaluator interface {
	Kind() domain.SignalKind
	Evaluate(ctx context.Context, target domain.Target) (domain.SignalResult, error)
}

// ProviderReport is a reputation provider's answer normalised at the adapter boundary.
type ProviderReport struct {
	Source  string
	Score   int
	Issues  []string
	Details map[string]any
}

// ReputationProvider looks up one external reputation source.
type ReputationProvider interface {
	Name() string
	Lookup(ctx context.Context, host string) (ProviderReport, error)
}

// AgeLookup resolves the registration date of a registrable domain.
type AgeLookup interface {
	CreationDate(ctx context.Context, registrable string) (domain.DomainAge, error)
}

// ThreatIntel checks a URL against a detection-ratio provider. It never fails;
// problems surface as ThreatVerdict.ProviderError.
type ThreatIntel interface {
	Check(ctx context.Context, rawurl string) domain.ThreatVerdict
}

// Page is a fetched document.
type Page struct {
	FinalURL   string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Fetcher retrieves the target page for content inspection.
type Fetcher interface {
	Fetch(ctx context.Context, rawurl string) (Page, error)
}

// ReputationResolver reduces every reputation source into one verdict. It
// never fails.
type ReputationResolver interface {
	Resolve(ctx context.Context, host string) domain.ReputationVerdict
}
