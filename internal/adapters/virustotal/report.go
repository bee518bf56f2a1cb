package virustotal

import (
	"time"

	"phishguard/internal/domain"
)

type urlReport struct {
	Data struct {
		Links struct {
			Self string `json:"self"`
		} `json:"links"`
		Attributes *reportAttributes `json:"attributes"`
	} `json:"data"`
}

type reportAttributes struct {
	LastAnalysisDate  int64 `json:"last_analysis_date"`
	LastAnalysisStats struct {
		Malicious  int `json:"malicious"`
		Suspicious int `json:"suspicious"`
		Harmless   int `json:"harmless"`
		Undetected int `json:"undetected"`
	} `json:"last_analysis_stats"`
	LastAnalysisResults map[string]engineResult `json:"last_analysis_results"`
}

type engineResult struct {
	Category string `json:"category"`
	Result   string `json:"result"`
}

func verdictFrom(r *urlReport) domain.ThreatVerdict {
	attrs := r.Data.Attributes
	v := domain.ThreatVerdict{
		EnginesRun: len(attrs.LastAnalysisResults),
		Permalink:  r.Data.Links.Self,
	}
	if attrs.LastAnalysisDate > 0 {
		t := time.Unix(attrs.LastAnalysisDate, 0).UTC()
		v.ScanDate = &t
	}

	var malicious, suspicious int
	for engine, res := range attrs.LastAnalysisResults {
		switch res.Category {
		case "malicious":
			malicious++
		case "suspicious":
			suspicious++
		default:
			continue
		}
		if v.FlaggedEngines == nil {
			v.FlaggedEngines = map[string]string{}
		}
		label := res.Result
		if label == "" {
			label = res.Category
		}
		v.FlaggedEngines[engine] = label
	}
	// Stats are authoritative when engines omit per-result detail.
	v.Malicious = max(malicious, attrs.LastAnalysisStats.Malicious)
	v.Suspicious = max(suspicious, attrs.LastAnalysisStats.Suspicious)

	if v.Malicious > 0 {
		v.Categories = append(v.Categories, domain.ThreatMalware, domain.ThreatSocialEngineering)
	}
	if v.Suspicious > 0 {
		v.Categories = append(v.Categories, domain.ThreatSuspicious)
	}
	v.IsThreat = v.Malicious+v.Suspicious > 0
	v.DetectionRatio = min(1.0, float64(v.Malicious)/float64(max(v.EnginesRun, 1)))

	switch {
	case v.IsThreat:
		v.Confidence = domain.ConfidenceForRatio(v.DetectionRatio)
	case v.EnginesRun > 0:
		v.Confidence = domain.ConfidenceHigh
	default:
		v.Confidence = domain.ConfidenceLow
	}
	return v
}
