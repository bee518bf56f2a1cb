package assessment

import (
	"fmt"

	"phishguard/internal/domain"
	"phishguard/internal/services/evaluators"
)

const (
	RecHighRisk         = "HIGH RISK: do not enter any personal information"
	RecNoLinks          = "Do not click on any links in this website"
	RecReport           = "Report this site to your security team"
	RecStructure        = "URL structure shows suspicious patterns"
	RecVerifyOfficial   = "Verify this is the official website"
	RecCheckSpelling    = "Check the spelling of the domain carefully"
	RecContent          = "Page content shows common phishing traits"
	RecNoTLS            = "Website does not use SSL encryption"
	RecThreatWarning    = "THREAT INTELLIGENCE WARNING: this site is flagged as malicious"
	RecMultipleThreats  = "Multiple security threats detected"
	RecAvoid            = "Avoid this website completely"
	RecLegitimate       = "Website appears to be legitimate"
	legitimateThreshold = 20
)

// Recommendations derives advice from a merged assessment. The order is fixed:
// phishing warnings first, then one block per signal kind in canonical order,
// then the all-clear for low totals.
func Recommendations(a domain.Assessment) []string {
	recs := []string{}
	if a.IsPhishing {
		recs = append(recs, RecHighRisk, RecNoLinks, RecReport)
	}

	for _, sig := range a.Signals {
		if sig.Failed {
			continue
		}
		switch sig.Kind {
		case domain.SignalStructural:
			if len(sig.Issues) > 0 {
				recs = append(recs, RecStructure)
			}
		case domain.SignalDomainReputation:
			if trusted, ok := sig.Evidence["is_trusted"].(bool); ok && !trusted {
				recs = append(recs, RecVerifyOfficial)
			}
			if evidenceInt(sig.Evidence, "typosquat_score") > 0 {
				recs = append(recs, RecCheckSpelling)
			}
		case domain.SignalContent:
			if sig.HasIssue(evaluators.IssueUrgentLanguage) ||
				sig.HasIssue(evaluators.IssueManyInputs) ||
				sig.HasIssue(evaluators.IssueExternalScripts) {
				recs = append(recs, RecContent)
			}
		case domain.SignalTransportSecurity:
			if sig.HasIssue(evaluators.IssueNoTLS) {
				recs = append(recs, RecNoTLS)
			}
		case domain.SignalThreatIntel:
			if threat, _ := sig.Evidence["is_threat"].(bool); threat {
				recs = append(recs, RecThreatWarning, RecMultipleThreats)
				if n := evidenceInt(sig.Evidence, "malicious"); n > 0 {
					recs = append(recs, fmt.Sprintf("Confirmed by %d security engines", n))
				}
				recs = append(recs, RecAvoid)
			}
		}
	}

	if a.TotalScore < legitimateThreshold {
		recs = append(recs, RecLegitimate)
	}
	return recs
}

func evidenceInt(ev map[string]any, key string) int {
	switch v := ev[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
