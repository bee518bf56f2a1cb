package evaluators

import "phishguard/internal/ports"

// Standard returns the five evaluators in canonical signal order.
func Standard(f ports.Fetcher, r ports.ReputationResolver, ti ports.ThreatIntel) []ports.Evaluator {
	return []ports.Evaluator{
		NewStructural(),
		NewDomainReputation(r),
		NewContent(f),
		NewTransportSecurity(),
		NewThreatIntelligence(ti),
	}
}
