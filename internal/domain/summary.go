package domain

import "time"

// RecentAnalysis is the short form of a record shown on the analytics view.
type RecentAnalysis struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	IsPhishing bool      `json:"isPhishing"`
	RiskScore  int       `json:"riskScore"`
	Tier       Tier      `json:"riskLevel"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Summary aggregates the analysis log.
type Summary struct {
	TotalAnalyses      int              `json:"totalAnalyses"`
	PhishingCount      int              `json:"phishingCount"`
	PhishingPercentage float64          `json:"phishingPercentage"`
	TierCounts         map[Tier]int     `json:"riskLevelStats"`
	RecentAnalyses     []RecentAnalysis `json:"recentAnalyses"`
}
