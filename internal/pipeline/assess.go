package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
	"github.com/couchcryptid/geomag-gtf-service/internal/observability"
)

// Request is one assessment to perform. Spectrum and Kp are optional.
type Request struct {
	ID       string
	Query    domain.Query
	Spectrum domain.Spectrum
	Kp       *float64
}

// Assessor computes the transmission function and classifies the radiation
// environment for a query. It is shared by the Kafka pipeline and the HTTP API.
type Assessor struct {
	calc       *domain.Calculator
	activity   domain.ActivitySource
	kpFallback float64
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewAssessor creates an Assessor. A nil activity source classifies with the
// fallback Kp unless the request carries one.
func NewAssessor(calc *domain.Calculator, activity domain.ActivitySource, kpFallback float64, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Assessor {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Assessor{
		calc:       calc,
		activity:   activity,
		kpFallback: kpFallback,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// Now returns the assessor's clock time in UTC.
func (a *Assessor) Now() time.Time { return a.clock.Now().UTC() }

// Assess validates the request, then looks up the field vector and the Kp
// index concurrently. Kp lookups never fail the assessment.
func (a *Assessor) Assess(ctx context.Context, req Request) (domain.Assessment, error) {
	q, err := req.Query.Validate()
	if err != nil {
		return domain.Assessment{}, err
	}
	if req.Kp != nil && !domain.ValidKp(*req.Kp) {
		return domain.Assessment{}, &domain.InputError{Field: "kp", Value: *req.Kp, Reason: "must be within [0, 9]"}
	}
	if req.Spectrum != nil {
		if err := req.Spectrum.Validate(); err != nil {
			return domain.Assessment{}, err
		}
	}

	var (
		result   domain.Result
		activity domain.Activity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		result, err = a.calc.ComputeGTF(gctx, q, req.Spectrum)
		return err
	})
	g.Go(func() error {
		activity = domain.ResolveActivity(gctx, q.Epoch, req.Kp, a.activity, a.kpFallback, a.logger)
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Assessment{}, err
	}

	level := domain.ClassifyEnvironment(result.CutoffRigidity, activity.Kp)

	a.metrics.Assessments.WithLabelValues(level.String()).Inc()
	a.metrics.CutoffRigidity.Observe(result.CutoffRigidity)
	if activity.Source == domain.KpSourceFallback {
		a.metrics.KpFallbacks.Inc()
	}

	id := req.ID
	if id == "" {
		id = domain.GenerateID(q)
	}
	return domain.Assessment{
		ID:         id,
		Query:      q,
		Result:     result,
		Activity:   activity,
		Level:      level,
		ComputedAt: a.Now(),
	}, nil
}
