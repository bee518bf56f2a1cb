package domain

import "fmt"

type Tier string

const (
	TierLow       Tier = "LOW"
	TierLowMedium Tier = "LOW-MEDIUM"
	TierMedium    Tier = "MEDIUM"
	TierHigh      Tier = "HIGH"
)

// PhishingThreshold is the total score at which a URL is reported as phishing.
const PhishingThreshold = 50

// TierFromScore classifies a clamped total score.
func TierFromScore(score int) Tier {
	switch {
	case score >= 70:
		return TierHigh
	case score >= 40:
		return TierMedium
	case score >= 20:
		return TierLowMedium
	default:
		return TierLow
	}
}

// TierFromString reconstructs a Tier from its stored form.
func TierFromString(s string) (Tier, error) {
	switch Tier(s) {
	case TierLow, TierLowMedium, TierMedium, TierHigh:
		return Tier(s), nil
	default:
		return "", fmt.Errorf("invalid tier: %q", s)
	}
}

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierLow, TierLowMedium, TierMedium, TierHigh}

// ClampScore bounds a raw signal sum to [0,100].
func ClampScore(raw int) int {
	if raw < 0 {
		return 0
	}
	if raw > 100 {
		return 100
	}
	return raw
}

// IsPhishingScore reports whether a total score crosses the phishing threshold.
func IsPhishingScore(score int) bool { return score >= PhishingThreshold }
