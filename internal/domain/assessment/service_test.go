package assessment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/heartcheck/internal/domain/risk"
	apperrors "github.com/yanqian/heartcheck/pkg/errors"
)

func validParams() risk.Parameters {
	return risk.Parameters{
		Age:              55,
		Sex:              risk.SexMale,
		Region:           risk.RegionModerate,
		Smoking:          risk.NonSmoker,
		SystolicBP:       130,
		TotalCholesterol: 5.0,
		CholesterolUnit:  risk.UnitMmolPerL,
	}
}

func newServiceUnderTest(repo Repository) *service {
	return &service{
		cfg:    Config{HistoryLimit: 20, SimilarLimit: 5},
		repo:   repo,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
		newID:  func() string { return "rec-1" },
	}
}

func TestAssessAnonymousDoesNotPersist(t *testing.T) {
	repo := &stubRepo{}
	svc := newServiceUnderTest(repo)

	resp, err := svc.Assess(context.Background(), validParams(), 0)
	require.NoError(t, err)
	require.Empty(t, resp.ID)
	require.Equal(t, risk.AlgorithmScore2, resp.Result.Algorithm)
	require.Zero(t, repo.inserted)
}

func TestAssessPersistsForClinician(t *testing.T) {
	repo := &stubRepo{}
	svc := newServiceUnderTest(repo)

	resp, err := svc.Assess(context.Background(), validParams(), 42)
	require.NoError(t, err)
	require.Equal(t, "rec-1", resp.ID)
	require.Equal(t, 1, repo.inserted)
	require.Equal(t, int64(42), repo.lastRecord.ClinicianID)
	require.Len(t, repo.lastFeatures, 8)
	require.InDelta(t, 0.55, repo.lastFeatures[0], 1e-6)
}

func TestAssessCollectsValidationProblems(t *testing.T) {
	svc := newServiceUnderTest(&stubRepo{})

	_, err := svc.Assess(context.Background(), risk.Parameters{Age: 20}, 0)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.NotEmpty(t, validation.Problems)
	require.Contains(t, validation.Problems, "age must be between 40 and 100")
}

func TestAssessWrapsRepositoryFailure(t *testing.T) {
	repo := &stubRepo{insertErr: errors.New("boom")}
	svc := newServiceUnderTest(repo)

	_, err := svc.Assess(context.Background(), validParams(), 42)
	require.True(t, apperrors.IsCode(err, "history_error"))
}

func TestWhatIfAppliesOverrides(t *testing.T) {
	svc := newServiceUnderTest(&stubRepo{})

	smoker := validParams()
	smoker.Smoking = risk.Smoker
	quit := risk.NonSmoker

	resp, err := svc.WhatIf(context.Background(), WhatIfRequest{
		Baseline:  smoker,
		Overrides: Overrides{Smoking: &quit},
	})
	require.NoError(t, err)
	require.Less(t, resp.Adjusted.RiskPercentage, resp.Baseline.RiskPercentage)
	require.Negative(t, resp.RiskDelta)
	require.InDelta(t, resp.Adjusted.RiskPercentage-resp.Baseline.RiskPercentage, resp.RiskDelta, 0.051)
}

func TestWhatIfRejectsInvalidOverride(t *testing.T) {
	svc := newServiceUnderTest(&stubRepo{})

	badAge := 30
	_, err := svc.WhatIf(context.Background(), WhatIfRequest{
		Baseline:  validParams(),
		Overrides: Overrides{Age: &badAge},
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestWhatIfWithoutOverridesIsIdentity(t *testing.T) {
	svc := newServiceUnderTest(&stubRepo{})

	resp, err := svc.WhatIf(context.Background(), WhatIfRequest{Baseline: validParams()})
	require.NoError(t, err)
	require.Equal(t, resp.Baseline, resp.Adjusted)
	require.Zero(t, resp.RiskDelta)
}

func TestHistoryRequiresClinician(t *testing.T) {
	svc := newServiceUnderTest(&stubRepo{})

	_, err := svc.History(context.Background(), 0)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestSimilarScopedToOwner(t *testing.T) {
	record := Record{ID: "rec-9", ClinicianID: 7, Parameters: validParams()}
	repo := &stubRepo{records: map[string]Record{"rec-9": record}}
	svc := newServiceUnderTest(repo)

	_, err := svc.Similar(context.Background(), "rec-9", 8)
	require.True(t, apperrors.IsCode(err, "not_found"))

	matches, err := svc.Similar(context.Background(), "rec-9", 7)
	require.NoError(t, err)
	require.Empty(t, matches)
	require.Equal(t, "rec-9", repo.lastExcluded)
}

type stubRepo struct {
	records      map[string]Record
	inserted     int
	insertErr    error
	lastRecord   Record
	lastFeatures []float32
	lastExcluded string
}

func (s *stubRepo) Insert(_ context.Context, record Record, features []float32) (Record, error) {
	if s.insertErr != nil {
		return Record{}, s.insertErr
	}
	s.inserted++
	s.lastRecord = record
	s.lastFeatures = features
	return record, nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (Record, bool, error) {
	record, ok := s.records[id]
	return record, ok, nil
}

func (s *stubRepo) ListByClinician(_ context.Context, clinicianID int64, limit int) ([]Record, error) {
	var out []Record
	for _, record := range s.records {
		if record.ClinicianID == clinicianID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *stubRepo) FindSimilar(_ context.Context, features []float32, excludeID string, limit int) ([]SimilarMatch, error) {
	s.lastExcluded = excludeID
	return nil, nil
}
