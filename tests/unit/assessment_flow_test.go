package unit

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/heartcheck/internal/domain/assessment"
	"github.com/yanqian/heartcheck/internal/domain/risk"
	"github.com/yanqian/heartcheck/internal/infra/assessrepo"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func assessmentConfig() assessment.Config {
	return assessment.Config{HistoryLimit: 50, SimilarLimit: 3}
}

func smokerParams(age int) risk.Parameters {
	return risk.Parameters{
		Age:              age,
		Sex:              risk.SexMale,
		Region:           risk.RegionModerate,
		Smoking:          risk.Smoker,
		SystolicBP:       145,
		TotalCholesterol: 6.2,
		CholesterolUnit:  risk.UnitMmolPerL,
	}
}

func TestAssessmentHistoryRoundtrip(t *testing.T) {
	svc := assessment.NewService(assessmentConfig(), assessrepo.NewMemoryRepository(), newTestLogger())
	ctx := context.Background()

	first, err := svc.Assess(ctx, smokerParams(52), 7)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	second, err := svc.Assess(ctx, smokerParams(58), 7)
	require.NoError(t, err)

	records, err := svc.History(ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, second.ID, records[0].ID)
	require.Equal(t, first.ID, records[1].ID)
}

func TestSimilarProfilesRankByDistance(t *testing.T) {
	svc := assessment.NewService(assessmentConfig(), assessrepo.NewMemoryRepository(), newTestLogger())
	ctx := context.Background()

	query, err := svc.Assess(ctx, smokerParams(52), 7)
	require.NoError(t, err)

	near, err := svc.Assess(ctx, smokerParams(53), 7)
	require.NoError(t, err)

	farParams := risk.Parameters{
		Age:              75,
		Sex:              risk.SexFemale,
		Region:           risk.RegionLow,
		Smoking:          risk.NonSmoker,
		SystolicBP:       118,
		TotalCholesterol: 4.6,
		CholesterolUnit:  risk.UnitMmolPerL,
	}
	far, err := svc.Assess(ctx, farParams, 7)
	require.NoError(t, err)

	matches, err := svc.Similar(ctx, query.ID, 7)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, near.ID, matches[0].Record.ID)
	require.Equal(t, far.ID, matches[1].Record.ID)
	require.Less(t, matches[0].Distance, matches[1].Distance)
}

func TestAnonymousAssessmentLeavesNoHistory(t *testing.T) {
	repo := assessrepo.NewMemoryRepository()
	svc := assessment.NewService(assessmentConfig(), repo, newTestLogger())
	ctx := context.Background()

	resp, err := svc.Assess(ctx, smokerParams(52), 0)
	require.NoError(t, err)
	require.Empty(t, resp.ID)

	records, err := repo.ListByClinician(ctx, 0, 10)
	require.NoError(t, err)
	require.Empty(t, records)
}
