package domain

import "math"

var threatFloors = map[ThreatCategory]float64{
	ThreatMalware:            90,
	ThreatSocialEngineering:  85,
	ThreatSuspicious:         70,
	ThreatHarmfulApplication: 70,
	ThreatUnwantedSoftware:   60,
}

const unknownThreatFloor = 50

// ThreatRiskScore combines a detection ratio with per-category floors. The
// ratio alone never exceeds 95.
func ThreatRiskScore(categories []ThreatCategory, ratio float64) int {
	score := math.Min(ratio*100, 95)
	for _, c := range categories {
		floor, ok := threatFloors[c]
		if !ok {
			floor = unknownThreatFloor
		}
		score = math.Max(score, floor)
	}
	return min(int(math.Round(score)), 100)
}

// ConfidenceForRatio grades a positive detection by how many engines agree.
func ConfidenceForRatio(ratio float64) Confidence {
	switch {
	case ratio >= 0.5:
		return ConfidenceHigh
	case ratio >= 0.2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

var threatDescriptions = map[ThreatCategory]string{
	ThreatMalware:            "Malware - software designed to harm or exploit systems",
	ThreatSocialEngineering:  "Social Engineering - phishing and deceptive content",
	ThreatSuspicious:         "Suspicious - potentially harmful content",
	ThreatUnwantedSoftware:   "Unwanted Software - potentially unwanted programs",
	ThreatHarmfulApplication: "Potentially Harmful Application - apps that may be harmful",
}

// Description is a human-readable label for c.
func (c ThreatCategory) Description() string {
	if d, ok := threatDescriptions[c]; ok {
		return d
	}
	return string(c)
}
