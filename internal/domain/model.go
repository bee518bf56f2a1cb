package domain

import (
	"time"

	"github.com/google/uuid"
)

// Core domain models shared by evaluators, the orchestrator and the adapters.

type SignalKind string

const (
	SignalStructural        SignalKind = "structural"
	SignalDomainReputation  SignalKind = "domain_reputation"
	SignalContent           SignalKind = "content"
	SignalTransportSecurity SignalKind = "transport_security"
	SignalThreatIntel       SignalKind = "threat_intelligence"
)

// SignalKinds lists every evaluator in canonical order. Assessments store their
// signals in this order and recommendations follow it.
var SignalKinds = []SignalKind{
	SignalStructural,
	SignalDomainReputation,
	SignalContent,
	SignalTransportSecurity,
	SignalThreatIntel,
}

// Index returns the canonical slot of k, or -1 for an unknown kind.
func (k SignalKind) Index() int {
	for i, kind := range SignalKinds {
		if kind == k {
			return i
		}
	}
	return -1
}

type Confidence string

const (
	ConfidenceLow     Confidence = "low"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceHigh    Confidence = "high"
	ConfidenceUnknown Confidence = "unknown"
)

// SignalResult is one evaluator's contribution to an assessment.
type SignalResult struct {
	Kind          SignalKind     `json:"kind"`
	ScoreDelta    int            `json:"scoreDelta"`
	Issues        []string       `json:"issues"`
	Confidence    Confidence     `json:"confidence"`
	Evidence      map[string]any `json:"evidence,omitempty"`
	Failed        bool           `json:"failed"`
	FailureReason string         `json:"failureReason,omitempty"`
	Duration      time.Duration  `json:"durationNs"`
}

// HasIssue reports whether issue is present verbatim.
func (r SignalResult) HasIssue(issue string) bool {
	for _, i := range r.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

// TyposquatFinding is the typosquatting detector's verdict for one host.
type TyposquatFinding struct {
	Score   int      `json:"score"`
	Issues  []string `json:"issues,omitempty"`
	Matches []string `json:"matches,omitempty"`
}

// DomainAge is the result of a successful registration-date lookup.
type DomainAge struct {
	CreatedAt time.Time `json:"createdAt"`
	Days      int       `json:"days"`
	Source    string    `json:"source"`
}

type ReputationVerdict struct {
	IsTrusted       bool             `json:"isTrusted"`
	ReputationScore int              `json:"reputationScore"`
	Confidence      Confidence       `json:"confidence"`
	Sources         []string         `json:"sources"`
	Issues          []string         `json:"issues"`
	UsedFallback    bool             `json:"usedFallback"`
	Typosquat       TyposquatFinding `json:"typosquat"`
	DomainAge       *DomainAge       `json:"domainAge,omitempty"`
}

type ThreatCategory string

const (
	ThreatMalware            ThreatCategory = "MALWARE"
	ThreatSocialEngineering  ThreatCategory = "SOCIAL_ENGINEERING"
	ThreatSuspicious         ThreatCategory = "SUSPICIOUS"
	ThreatHarmfulApplication ThreatCategory = "POTENTIALLY_HARMFUL_APPLICATION"
	ThreatUnwantedSoftware   ThreatCategory = "UNWANTED_SOFTWARE"
)

type ThreatVerdict struct {
	IsThreat       bool              `json:"isThreat"`
	Categories     []ThreatCategory  `json:"categories"`
	DetectionRatio float64           `json:"detectionRatio"`
	Confidence     Confidence        `json:"confidence"`
	ProviderError  string            `json:"providerError,omitempty"`
	Malicious      int               `json:"malicious"`
	Suspicious     int               `json:"suspicious"`
	EnginesRun     int               `json:"enginesRun"`
	FlaggedEngines map[string]string `json:"flaggedEngines,omitempty"`
	ScanDate       *time.Time        `json:"scanDate,omitempty"`
	Permalink      string            `json:"permalink,omitempty"`
}

// Degraded reports whether the verdict carries no usable provider data.
func (v ThreatVerdict) Degraded() bool { return v.ProviderError != "" }

// Assessment is the immutable outcome of one Assess call.
type Assessment struct {
	ID              uuid.UUID      `json:"id"`
	Target          Target         `json:"target"`
	TotalScore      int            `json:"totalScore"`
	Tier            Tier           `json:"tier"`
	IsPhishing      bool           `json:"isPhishing"`
	Signals         []SignalResult `json:"signals"`
	Recommendations []string       `json:"recommendations"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Signal returns the result for kind.
func (a Assessment) Signal(kind SignalKind) (SignalResult, bool) {
	for _, s := range a.Signals {
		if s.Kind == kind {
			return s, true
		}
	}
	return SignalResult{}, false
}

// RequestMeta describes the caller of a detection request.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Record is the unit persisted to the analysis log.
type Record struct {
	Assessment
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewRecord stamps a for persistence.
func NewRecord(a Assessment, meta RequestMeta, now time.Time) Record {
	return Record{
		Assessment: a,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		CreatedAt:  now.UTC(),
	}
}
