package unit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/heartcheck/internal/domain/report"
	"github.com/yanqian/heartcheck/internal/domain/risk"
	"github.com/yanqian/heartcheck/internal/infra/reportstore"
	"github.com/yanqian/heartcheck/internal/infra/sharestore"
)

func reportRequest() report.Request {
	params := risk.Parameters{
		Age:              61,
		Sex:              risk.SexFemale,
		Region:           risk.RegionHigh,
		Smoking:          risk.NonSmoker,
		SystolicBP:       132,
		TotalCholesterol: 5.4,
		CholesterolUnit:  risk.UnitMmolPerL,
	}
	return report.Request{Parameters: params, Result: risk.Calculate(params)}
}

func TestExportStoresRetrievableArtifact(t *testing.T) {
	storage := reportstore.NewMemoryStorage()
	svc := report.NewService(report.Config{ShareTTL: time.Hour}, storage, sharestore.NewMemoryStore(), newTestLogger())
	ctx := context.Background()

	result, err := svc.Export(ctx, reportRequest())
	require.NoError(t, err)
	require.NotEmpty(t, result.Key)
	require.Greater(t, result.Size, int64(0))

	stored, err := storage.Get(ctx, result.Key)
	require.NoError(t, err)
	require.Contains(t, string(stored), "RECOMMENDATIONS")
}

func TestShareTokenExpires(t *testing.T) {
	shares := sharestore.NewMemoryStore()
	svc := report.NewService(report.Config{ShareTTL: time.Millisecond}, reportstore.NewMemoryStorage(), shares, newTestLogger())
	ctx := context.Background()

	link, err := svc.Share(ctx, reportRequest())
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = svc.Resolve(ctx, link.Token)
	require.Error(t, err)
}
