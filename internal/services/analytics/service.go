package analytics

import (
	"context"
	"fmt"
	"math"

	"phishguard/internal/domain"
	"phishguard/internal/ports"
)

const (
	DefaultRecent = 10
	MaxRecent     = 100
)

type Service struct {
	log ports.AnalysisLog
}

var _ ports.Analytics = (*Service)(nil)

func New(log ports.AnalysisLog) *Service { return &Service{log: log} }

// Summary aggregates every record in the log. recent is clamped to
// [1,MaxRecent]; zero or negative means DefaultRecent. The recent list is
// newest first.
func (s *Service) Summary(ctx context.Context, recent int) (domain.Summary, error) {
	recent = clampRecent(recent)

	sum := domain.Summary{
		TierCounts:     make(map[domain.Tier]int, len(domain.Tiers)),
		RecentAnalyses: []domain.RecentAnalysis{},
	}
	for _, t := range domain.Tiers {
		sum.TierCounts[t] = 0
	}

	// ring holds the last `recent` records in insertion order.
	ring := make([]domain.RecentAnalysis, 0, recent)
	next := 0
	err := s.log.Scan(ctx, func(rec domain.Record) error {
		sum.TotalAnalyses++
		if rec.IsPhishing {
			sum.PhishingCount++
		}
		sum.TierCounts[rec.Tier]++

		short := domain.RecentAnalysis{
			ID:         rec.ID.String(),
			URL:        rec.Target.Raw,
			IsPhishing: rec.IsPhishing,
			RiskScore:  rec.TotalScore,
			Tier:       rec.Tier,
			CreatedAt:  rec.CreatedAt,
		}
		if len(ring) < recent {
			ring = append(ring, short)
		} else {
			ring[next] = short
		}
		next = (next + 1) % recent
		return nil
	})
	if err != nil {
		return domain.Summary{}, fmt.Errorf("scan analysis log: %w", err)
	}

	// Walk backwards from the newest slot.
	for i := 0; i < len(ring); i++ {
		idx := (next - 1 - i + 2*len(ring)) % len(ring)
		sum.RecentAnalyses = append(sum.RecentAnalyses, ring[idx])
	}
	sum.PhishingPercentage = percentage(sum.PhishingCount, sum.TotalAnalyses)
	return sum, nil
}

func clampRecent(n int) int {
	switch {
	case n <= 0:
		return DefaultRecent
	case n > MaxRecent:
		return MaxRecent
	default:
		return n
	}
}

// percentage rounds part/total to two decimals.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
