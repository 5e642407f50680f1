// Package pipeline composes the flood-risk assessment stages: feature
// extraction, standardization, classification, and categorization. The
// pipeline itself is pure and stateless; fetching is delegated to a
// SeriesFetcher and the loaded artifacts are read-only, so concurrent
// assessments need no locking.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

// SeriesFetcher retrieves a chronological streamflow series for a site.
type SeriesFetcher interface {
	DailyDischarge(ctx context.Context, siteCode string, start, end time.Time) ([]domain.Observation, error)
}

// Predictor produces a flood probability from a standardized feature vector.
type Predictor interface {
	Predict(vector domain.FeatureVector) (float64, error)
}

// Exporter publishes completed assessments for downstream consumers.
type Exporter interface {
	Publish(ctx context.Context, assessment domain.Assessment) error
}

// FetchError wraps an upstream data-fetch failure so callers can
// distinguish it from pipeline errors.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return "fetch series: " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// Assessor runs the assessment pipeline against fetched streamflow series.
type Assessor struct {
	fetcher      SeriesFetcher
	scaler       domain.ScalerParams
	classifier   Predictor
	exporter     Exporter // nil disables export
	lookbackDays int
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// New creates an Assessor. Pass a nil exporter to disable assessment export.
func New(fetcher SeriesFetcher, scaler domain.ScalerParams, classifier Predictor, exporter Exporter,
	lookbackDays int, logger *slog.Logger, metrics *observability.Metrics) *Assessor {
	return &Assessor{
		fetcher:      fetcher,
		scaler:       scaler,
		classifier:   classifier,
		exporter:     exporter,
		lookbackDays: lookbackDays,
		logger:       logger,
		metrics:      metrics,
	}
}

// CheckReadiness returns nil once the assessor holds a loaded classifier,
// or an error describing why the service cannot predict yet.
func (a *Assessor) CheckReadiness(_ context.Context) error {
	if a.classifier == nil {
		return errors.New("classifier not loaded")
	}
	if err := a.scaler.Validate(domain.FeatureCount); err != nil {
		return err
	}
	return nil
}

// Assess runs the pure pipeline over an observation series: extract,
// standardize, predict, categorize. It short-circuits on the first failure
// and propagates the error kind unchanged.
func (a *Assessor) Assess(observations []domain.Observation) (domain.RiskResult, error) {
	result, _, err := a.evaluate(observations)
	return result, err
}

// AssessSite fetches the trailing series for a site and assesses it. A zero
// endDate means "now" per the injected clock. The completed assessment is
// exported best-effort; export failures never fail the request.
func (a *Assessor) AssessSite(ctx context.Context, siteCode string, endDate time.Time) (domain.Assessment, error) {
	start := time.Now()

	if endDate.IsZero() {
		endDate = domain.Clock().Now()
	}
	windowStart := endDate.AddDate(0, 0, -a.lookbackDays)

	observations, err := a.fetcher.DailyDischarge(ctx, siteCode, windowStart, endDate)
	if err != nil {
		a.metrics.AssessmentErrors.WithLabelValues("fetch").Inc()
		return domain.Assessment{}, &FetchError{Err: err}
	}

	result, features, err := a.evaluate(observations)
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("site %s: %w", siteCode, err)
	}

	assessment := domain.Assessment{
		ID:               domain.AssessmentID(siteCode, endDate),
		SiteCode:         siteCode,
		Probability:      result.Probability,
		Category:         result.Category,
		Features:         features,
		WindowStart:      windowStart,
		WindowEnd:        endDate,
		ObservationCount: len(observations),
		AssessedAt:       domain.Clock().Now(),
	}

	a.metrics.Assessments.WithLabelValues(string(result.Category)).Inc()
	a.metrics.AssessmentDuration.Observe(time.Since(start).Seconds())

	a.export(ctx, assessment)

	a.logger.Info("assessment complete",
		"site", siteCode,
		"probability", result.Probability,
		"category", result.Category,
		"observations", len(observations),
	)
	return assessment, nil
}

// evaluate is the pure pipeline core. The returned feature vector is the
// raw (pre-standardization) one, which is what users want to see.
func (a *Assessor) evaluate(observations []domain.Observation) (domain.RiskResult, domain.FeatureVector, error) {
	features, err := domain.ExtractFeatures(observations)
	if err != nil {
		a.metrics.AssessmentErrors.WithLabelValues(errorKind(err)).Inc()
		return domain.RiskResult{}, nil, err
	}

	scaled, err := domain.Standardize(features, a.scaler)
	if err != nil {
		a.metrics.AssessmentErrors.WithLabelValues(errorKind(err)).Inc()
		return domain.RiskResult{}, nil, err
	}

	probability, err := a.classifier.Predict(scaled)
	if err != nil {
		a.metrics.AssessmentErrors.WithLabelValues(errorKind(err)).Inc()
		return domain.RiskResult{}, nil, err
	}

	category, err := domain.Categorize(probability)
	if err != nil {
		a.metrics.AssessmentErrors.WithLabelValues(errorKind(err)).Inc()
		return domain.RiskResult{}, nil, err
	}

	return domain.RiskResult{Probability: probability, Category: category}, features, nil
}

func (a *Assessor) export(ctx context.Context, assessment domain.Assessment) {
	if a.exporter == nil {
		return
	}
	if err := a.exporter.Publish(ctx, assessment); err != nil {
		a.metrics.ExportErrors.Inc()
		a.logger.Warn("assessment export failed", "assessment_id", assessment.ID, "error", err)
		return
	}
	a.metrics.AssessmentsExported.Inc()
}

// errorKind maps pipeline errors to metric label values.
func errorKind(err error) string {
	var (
		insufficientErr *domain.InsufficientDataError
		paramsErr       *domain.InvalidParamsError
		shapeErr        *domain.ShapeMismatchError
		probErr         *domain.InvalidProbabilityError
	)
	switch {
	case errors.As(err, &insufficientErr):
		return "insufficient_data"
	case errors.As(err, &paramsErr):
		return "invalid_params"
	case errors.As(err, &shapeErr):
		return "shape_mismatch"
	case errors.As(err, &probErr):
		return "invalid_probability"
	default:
		return "other"
	}
}
