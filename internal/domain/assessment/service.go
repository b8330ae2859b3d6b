package assessment

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/heartcheck/internal/domain/risk"
	apperrors "github.com/yanqian/heartcheck/pkg/errors"
	"github.com/yanqian/heartcheck/pkg/util"
)

// Service exposes the assessment workflows built around the risk engine.
type Service interface {
	// Assess validates and calculates. A clinicianID of zero computes
	// anonymously; otherwise the record is persisted to history.
	Assess(ctx context.Context, params risk.Parameters, clinicianID int64) (Response, error)
	// WhatIf re-runs the engine on a baseline with overrides applied.
	WhatIf(ctx context.Context, req WhatIfRequest) (WhatIfResponse, error)
	History(ctx context.Context, clinicianID int64) ([]Record, error)
	Similar(ctx context.Context, recordID string, clinicianID int64) ([]SimilarMatch, error)
}

type service struct {
	cfg    Config
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewService wires up the assessment domain.
func NewService(cfg Config, repo Repository, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		repo:   repo,
		logger: logger.With("component", "assessment.service"),
		now:    util.NowUTC,
		newID:  func() string { return uuid.NewString() },
	}
}

func (s *service) Assess(ctx context.Context, params risk.Parameters, clinicianID int64) (Response, error) {
	if problems := risk.Validate(params); len(problems) > 0 {
		return Response{}, &ValidationError{Problems: problems}
	}

	result := risk.Calculate(params)
	s.logger.Info("assessment calculated",
		"algorithm", result.Algorithm,
		"category", result.Category,
		"riskPct", result.RiskPercentage,
	)

	if clinicianID == 0 {
		return Response{Result: result}, nil
	}

	record := Record{
		ID:          s.newID(),
		ClinicianID: clinicianID,
		Parameters:  params,
		Result:      result,
		CreatedAt:   s.now().UTC(),
	}
	stored, err := s.repo.Insert(ctx, record, featureVector(params))
	if err != nil {
		return Response{}, apperrors.Wrap("history_error", "failed to persist assessment", err)
	}
	return Response{ID: stored.ID, Result: result}, nil
}

func (s *service) WhatIf(ctx context.Context, req WhatIfRequest) (WhatIfResponse, error) {
	if problems := risk.Validate(req.Baseline); len(problems) > 0 {
		return WhatIfResponse{}, &ValidationError{Problems: problems}
	}
	adjusted := applyOverrides(req.Baseline, req.Overrides)
	if problems := risk.Validate(adjusted); len(problems) > 0 {
		return WhatIfResponse{}, &ValidationError{Problems: problems}
	}

	baseline := risk.Calculate(req.Baseline)
	changed := risk.Calculate(adjusted)
	return WhatIfResponse{
		Baseline:  baseline,
		Adjusted:  changed,
		RiskDelta: round1(changed.RiskPercentage - baseline.RiskPercentage),
	}, nil
}

func (s *service) History(ctx context.Context, clinicianID int64) ([]Record, error) {
	if clinicianID == 0 {
		return nil, apperrors.Wrap("invalid_input", "clinician is required", nil)
	}
	records, err := s.repo.ListByClinician(ctx, clinicianID, s.cfg.HistoryLimit)
	if err != nil {
		return nil, apperrors.Wrap("history_error", "failed to list assessments", err)
	}
	return records, nil
}

func (s *service) Similar(ctx context.Context, recordID string, clinicianID int64) ([]SimilarMatch, error) {
	record, found, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, apperrors.Wrap("history_error", "failed to load assessment", err)
	}
	if !found || record.ClinicianID != clinicianID {
		return nil, apperrors.Wrap("not_found", "assessment not found", nil)
	}
	matches, err := s.repo.FindSimilar(ctx, featureVector(record.Parameters), record.ID, s.cfg.SimilarLimit)
	if err != nil {
		return nil, apperrors.Wrap("history_error", "similarity search failed", err)
	}
	return matches, nil
}

// applyOverrides copies the baseline and replaces only the supplied fields.
func applyOverrides(base risk.Parameters, o Overrides) risk.Parameters {
	out := base
	if o.Age != nil {
		out.Age = *o.Age
	}
	if o.Sex != nil {
		out.Sex = *o.Sex
	}
	if o.Region != nil {
		out.Region = *o.Region
	}
	if o.Smoking != nil {
		out.Smoking = *o.Smoking
	}
	if o.SystolicBP != nil {
		out.SystolicBP = *o.SystolicBP
	}
	if o.TotalCholesterol != nil {
		out.TotalCholesterol = *o.TotalCholesterol
	}
	if o.CholesterolUnit != nil {
		out.CholesterolUnit = *o.CholesterolUnit
	}
	if o.HDLCholesterol != nil {
		out.HDLCholesterol = o.HDLCholesterol
	}
	if o.Diabetes != nil {
		out.Diabetes = *o.Diabetes
	}
	return out
}

// featureVector projects the parameters onto a fixed-dimension normalized
// vector so that profiles can be compared with a plain distance metric.
// The scales roughly bring every component into [0, 2].
func featureVector(p risk.Parameters) []float32 {
	total := p.TotalCholesterol
	hdl := 0.0
	if p.HDLCholesterol != nil {
		hdl = *p.HDLCholesterol
	}
	if p.CholesterolUnit == risk.UnitMgPerDL {
		total /= 38.67
		hdl /= 38.67
	}

	features := []float64{
		float64(p.Age) / 100,
		boolFeature(p.Sex == risk.SexMale),
		regionFeature(p.Region),
		boolFeature(p.Smoking == risk.Smoker),
		p.SystolicBP / 250,
		total / 10,
		hdl / 5,
		boolFeature(p.Diabetes),
	}
	out := make([]float32, len(features))
	for i, f := range features {
		out[i] = float32(f)
	}
	return out
}

func regionFeature(region risk.Region) float64 {
	switch region {
	case risk.RegionLow:
		return 0.25
	case risk.RegionModerate:
		return 0.5
	case risk.RegionHigh:
		return 0.75
	case risk.RegionVeryHigh:
		return 1.0
	default:
		return 0.5
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
