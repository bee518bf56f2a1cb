// Package metrics declares the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AssessmentsTotal counts completed assessments by tier.
	AssessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phishguard_assessments_total",
		Help: "Completed URL assessments by risk tier",
	}, []string{"tier"})

	AssessmentScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "phishguard_assessment_score",
		Help:    "Distribution of total assessment scores",
		Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	EvaluatorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phishguard_evaluator_duration_seconds",
		Help:    "Evaluator latency by signal kind",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
	}, []string{"kind"})

	// EvaluatorFailures counts failed signals by kind and reason (timeout, error, panic).
	EvaluatorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phishguard_evaluator_failures_total",
		Help: "Evaluator failures by signal kind and reason",
	}, []string{"kind", "reason"})

	ThreatIntelRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phishguard_threat_intel_requests_total",
		Help: "Threat intelligence lookups by outcome",
	}, []string{"outcome"})

	AnalysisLogAppends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phishguard_analysis_log_appends_total",
		Help: "Analysis log writes by result",
	}, []string{"result"})

	RecorderQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phishguard_recorder_queue_depth",
		Help: "Records waiting to be written to the analysis log",
	})

	IngressRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phishguard_ingress_rate_limited_total",
		Help: "Requests rejected by the per-client ingress limiter",
	})
)
