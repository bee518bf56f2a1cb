// Package assessment runs the signal evaluators for one URL concurrently and
// merges their results into an Assessment.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"phishguard/internal/domain"
	"phishguard/internal/metrics"
	"phishguard/internal/ports"
)

// Budget bounds one evaluator. A zero Timeout means the evaluator is local
// and runs without its own deadline.
type Budget struct {
	Timeout time.Duration
	Penalty int
}

// DefaultBudgets holds the per-evaluator deadlines and failure penalties.
var DefaultBudgets = map[domain.SignalKind]Budget{
	domain.SignalStructural:        {},
	domain.SignalDomainReputation:  {Timeout: 15 * time.Second, Penalty: 5},
	domain.SignalContent:           {Timeout: 10 * time.Second, Penalty: 5},
	domain.SignalTransportSecurity: {},
	domain.SignalThreatIntel:       {Timeout: 15 * time.Second},
}

type Config struct {
	Evaluators []ports.Evaluator
	// Budgets overrides DefaultBudgets per kind.
	Budgets map[domain.SignalKind]Budget
	// Recorder receives records from Detect. When nil, Log is appended to
	// synchronously instead; when both are nil Detect does not persist.
	Recorder ports.Recorder
	Log      ports.AnalysisLog
	Logger   *slog.Logger
	Now      func() time.Time
	NewID    func() uuid.UUID
}

type Service struct {
	evaluators []ports.Evaluator
	budgets    map[domain.SignalKind]Budget
	recorder   ports.Recorder
	log        ports.AnalysisLog
	logger     *slog.Logger
	now        func() time.Time
	newID      func() uuid.UUID
}

var _ ports.Assessor = (*Service)(nil)

func New(cfg Config) *Service {
	budgets := make(map[domain.SignalKind]Budget, len(DefaultBudgets))
	for k, b := range DefaultBudgets {
		budgets[k] = b
	}
	for k, b := range cfg.Budgets {
		budgets[k] = b
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.New
	}
	return &Service{
		evaluators: cfg.Evaluators,
		budgets:    budgets,
		recorder:   cfg.Recorder,
		log:        cfg.Log,
		logger:     cfg.Logger,
		now:        cfg.Now,
		newID:      cfg.NewID,
	}
}

// Assess scores rawurl. The only error is *domain.InvalidTargetError; every
// evaluator problem becomes a failed signal instead.
func (s *Service) Assess(ctx context.Context, rawurl string) (domain.Assessment, error) {
	target, err := domain.ParseTarget(rawurl)
	if err != nil {
		return domain.Assessment{}, err
	}

	signals := s.evaluate(ctx, target)

	sum := 0
	for _, sig := range signals {
		sum += sig.ScoreDelta
	}
	total := domain.ClampScore(sum)
	a := domain.Assessment{
		ID:         s.newID(),
		Target:     target,
		TotalScore: total,
		Tier:       domain.TierFromScore(total),
		IsPhishing: domain.IsPhishingScore(total),
		Signals:    signals,
		Timestamp:  s.now().UTC(),
	}
	a.Recommendations = Recommendations(a)

	metrics.AssessmentsTotal.WithLabelValues(string(a.Tier)).Inc()
	metrics.AssessmentScore.Observe(float64(a.TotalScore))
	s.logger.Debug("assessment complete",
		slog.String("url", target.Raw),
		slog.Int("score", a.TotalScore),
		slog.String("tier", string(a.Tier)))
	return a, nil
}

// Detect assesses rawurl and records the outcome. Persistence problems are
// logged and never change the result.
func (s *Service) Detect(ctx context.Context, rawurl string, meta domain.RequestMeta) (domain.Assessment, error) {
	a, err := s.Assess(ctx, rawurl)
	if err != nil {
		return a, err
	}
	rec := domain.NewRecord(a, meta, s.now())
	switch {
	case s.recorder != nil:
		if !s.recorder.Enqueue(rec) {
			s.logger.Warn("analysis record dropped", slog.String("id", a.ID.String()))
		}
	case s.log != nil:
		if err := s.log.Append(ctx, rec); err != nil {
			pf := &domain.PersistenceFailure{RecordID: a.ID.String(), Err: err}
			metrics.AnalysisLogAppends.WithLabelValues("error").Inc()
			s.logger.Error("analysis log append failed", slog.String("error", pf.Error()))
		} else {
			metrics.AnalysisLogAppends.WithLabelValues("ok").Inc()
		}
	}
	return a, nil
}

// evaluate fans out to every evaluator and returns one result per evaluator
// in canonical kind order, whatever order they finish in.
func (s *Service) evaluate(ctx context.Context, target domain.Target) []domain.SignalResult {
	slots := make([]domain.SignalResult, len(s.evaluators))

	// Plain Group: one evaluator failing must not cancel its siblings.
	var g errgroup.Group
	for i, e := range s.evaluators {
		i, e := i, e
		g.Go(func() error {
			slots[i] = s.run(ctx, e, target)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Kind.Index() < slots[j].Kind.Index()
	})
	return slots
}

type panicError struct{ value any }

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }

type outcome struct {
	result domain.SignalResult
	err    error
}

// run executes one evaluator under its budget. A slow evaluator is abandoned
// at the deadline; its goroutine finishes into a buffered channel.
func (s *Service) run(parent context.Context, e ports.Evaluator, target domain.Target) domain.SignalResult {
	kind := e.Kind()
	budget := s.budgets[kind]

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if budget.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, budget.Timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	defer cancel()

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: &domain.EvaluatorFailure{Kind: kind, Err: panicError{value: p}}}
			}
		}()
		res, err := e.Evaluate(ctx, target)
		done <- outcome{result: res, err: err}
	}()

	var (
		res    domain.SignalResult
		runErr error
	)
	select {
	case o := <-done:
		res, runErr = o.result, o.err
	case <-ctx.Done():
		if parent.Err() != nil {
			runErr = &domain.EvaluatorFailure{Kind: kind, Err: parent.Err()}
		} else {
			runErr = &domain.EvaluatorTimeout{Kind: kind, Timeout: budget.Timeout}
		}
	}
	elapsed := time.Since(start)
	metrics.EvaluatorDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())

	if runErr != nil {
		return s.failed(kind, budget.Penalty, runErr, elapsed)
	}
	res.Kind = kind
	res.Duration = elapsed
	if res.Issues == nil {
		res.Issues = []string{}
	}
	return res
}

func (s *Service) failed(kind domain.SignalKind, penalty int, err error, elapsed time.Duration) domain.SignalResult {
	var (
		timeout *domain.EvaluatorTimeout
		failure *domain.EvaluatorFailure
		reason  = "error"
	)
	switch {
	case errors.As(err, &timeout):
		reason = "timeout"
	case errors.As(err, &failure):
		if errors.As(err, new(panicError)) {
			reason = "panic"
		}
	default:
		err = &domain.EvaluatorFailure{Kind: kind, Err: err}
	}
	metrics.EvaluatorFailures.WithLabelValues(string(kind), reason).Inc()
	s.logger.Warn("evaluator failed",
		slog.String("kind", string(kind)),
		slog.String("reason", reason),
		slog.String("error", err.Error()))

	return domain.SignalResult{
		Kind:          kind,
		ScoreDelta:    penalty,
		Issues:        []string{},
		Confidence:    domain.ConfidenceUnknown,
		Failed:        true,
		FailureReason: err.Error(),
		Duration:      elapsed,
	}
}
