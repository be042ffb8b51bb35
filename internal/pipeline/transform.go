package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/geomag-gtf-service/internal/domain"
)

// QueryTransformer implements Transformer by assessing each query message.
type QueryTransformer struct {
	assessor *Assessor
	logger   *slog.Logger
}

// NewTransformer creates a QueryTransformer.
func NewTransformer(assessor *Assessor, logger *slog.Logger) *QueryTransformer {
	return &QueryTransformer{
		assessor: assessor,
		logger:   logger,
	}
}

func (t *QueryTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	msg, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	a, err := t.assessor.Assess(ctx, Request{
		ID:       msg.ID,
		Query:    msg.Query(),
		Spectrum: msg.Spectrum,
		Kp:       msg.Kp,
	})
	if err != nil {
		return domain.OutputEvent{}, err
	}

	t.logger.Debug("query assessed",
		"id", a.ID,
		"cutoff_rigidity", a.Result.CutoffRigidity,
		"kp", a.Activity.Kp,
		"level", a.Level.String(),
	)
	return domain.SerializeAssessment(a)
}
