package report

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

func sampleRequest() Request {
	hdl := 1.2
	params := risk.Parameters{
		Age:              62,
		Sex:              risk.SexFemale,
		Region:           risk.RegionHigh,
		Smoking:          risk.Smoker,
		SystolicBP:       145,
		TotalCholesterol: 6.1,
		CholesterolUnit:  risk.UnitMmolPerL,
		HDLCholesterol:   &hdl,
		Diabetes:         true,
	}
	return Request{Parameters: params, Result: risk.Calculate(params)}
}

func newServiceUnderTest(storage ObjectStorage, shares ShareStore) *service {
	return &service{
		cfg:     Config{ShareTTL: time.Hour},
		storage: storage,
		shares:  shares,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		newID:   func() string { return "rep-1" },
	}
}

func TestRenderSnapshotsInputAndResult(t *testing.T) {
	req := sampleRequest()
	svc := newServiceUnderTest(&stubStorage{}, &stubShares{})

	rendered := svc.Render(req.Parameters, req.Result)
	require.Equal(t, req.Parameters, rendered.Parameters)
	require.Equal(t, req.Result, rendered.Result)

	require.Contains(t, rendered.Text, "CARDIOVASCULAR RISK REPORT")
	require.Contains(t, rendered.Text, "Age: 62")
	require.Contains(t, rendered.Text, "Smoking status: smoker")
	require.Contains(t, rendered.Text, "HDL cholesterol: 1.20 mmol/L")
	require.Contains(t, rendered.Text, "Diabetes: yes")
	require.Contains(t, rendered.Text, "Methodology: SCORE2")
	require.Contains(t, rendered.Text, req.Result.Interpretation)
	for _, advice := range req.Result.Recommendations {
		require.Contains(t, rendered.Text, advice)
	}
	require.Contains(t, rendered.Text, "not medical advice")
	require.Contains(t, rendered.Text, "European Heart Journal, 2021")
}

func TestExportStoresArtifact(t *testing.T) {
	storage := &stubStorage{}
	svc := newServiceUnderTest(storage, &stubShares{})

	result, err := svc.Export(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Equal(t, "reports/2026-03-01/rep-1.txt", result.Key)
	require.Equal(t, "text/plain; charset=utf-8", storage.lastMime)
	require.Positive(t, result.Size)
}

func TestExportSurfacesStorageFailure(t *testing.T) {
	svc := newServiceUnderTest(&stubStorage{err: errors.New("bucket down")}, &stubShares{})

	_, err := svc.Export(context.Background(), sampleRequest())
	require.True(t, apperrors.IsCode(err, "export_error"))
}

func TestShareAndResolve(t *testing.T) {
	shares := &stubShares{entries: map[string]string{}}
	svc := newServiceUnderTest(&stubStorage{}, shares)

	link, err := svc.Share(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Equal(t, "rep-1", link.Token)
	require.Equal(t, time.Hour, shares.lastTTL)

	text, err := svc.Resolve(context.Background(), link.Token)
	require.NoError(t, err)
	require.Contains(t, text, "CARDIOVASCULAR RISK REPORT")
}

func TestResolveUnknownToken(t *testing.T) {
	svc := newServiceUnderTest(&stubStorage{}, &stubShares{entries: map[string]string{}})

	_, err := svc.Resolve(context.Background(), "missing")
	require.True(t, apperrors.IsCode(err, "not_found"))

	_, err = svc.Resolve(context.Background(), "  ")
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

type stubStorage struct {
	err      error
	lastKey  string
	lastMime string
	lastData []byte
}

func (s *stubStorage) Put(_ context.Context, key string, data []byte, mimeType string) (StoredObject, error) {
	if s.err != nil {
		return StoredObject{}, s.err
	}
	s.lastKey = key
	s.lastMime = mimeType
	s.lastData = data
	return StoredObject{Key: key, Size: int64(len(data)), MimeType: mimeType, ETag: "etag"}, nil
}

func (s *stubStorage) Get(_ context.Context, key string) ([]byte, error) {
	if key == s.lastKey {
		return s.lastData, nil
	}
	return nil, errors.New("not found")
}

func (s *stubStorage) Delete(_ context.Context, key string) error { return nil }

type stubShares struct {
	entries map[string]string
	lastTTL time.Duration
}

func (s *stubShares) Save(_ context.Context, token, payload string, ttl time.Duration) error {
	if s.entries == nil {
		s.entries = map[string]string{}
	}
	s.entries[token] = payload
	s.lastTTL = ttl
	return nil
}

func (s *stubShares) Get(_ context.Context, token string) (string, bool, error) {
	payload, ok := s.entries[token]
	return payload, ok, nil
}
