package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/heartcheck/internal/domain/risk"
	apperrors "github.com/yanqian/heartcheck/pkg/errors"
	"github.com/yanqian/heartcheck/pkg/util"
)

const (
	disclaimer = "This report is an educational estimate, not medical advice. Discuss the results with a qualified clinician."
	citation   = "Derived from the SCORE2 risk prediction algorithms (SCORE2 working group and ESC Cardiovascular Risk Collaboration, European Heart Journal, 2021)."
)

// Service renders, exports, and shares assessment reports. It is pure
// presentation: computed fields pass through untouched.
type Service interface {
	Render(params risk.Parameters, result risk.Assessment) Report
	Export(ctx context.Context, req Request) (ExportResult, error)
	Share(ctx context.Context, req Request) (ShareLink, error)
	Resolve(ctx context.Context, token string) (string, error)
}

type service struct {
	cfg     Config
	storage ObjectStorage
	shares  ShareStore
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// NewService wires up the report domain.
func NewService(cfg Config, storage ObjectStorage, shares ShareStore, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg,
		storage: storage,
		shares:  shares,
		logger:  logger.With("component", "report.service"),
		now:     util.NowUTC,
		newID:   func() string { return uuid.NewString() },
	}
}

func (s *service) Render(params risk.Parameters, result risk.Assessment) Report {
	generated := s.now().UTC()
	return Report{
		ID:          s.newID(),
		GeneratedAt: generated,
		Parameters:  params,
		Result:      result,
		Text:        renderText(params, result, generated),
	}
}

func (s *service) Export(ctx context.Context, req Request) (ExportResult, error) {
	rendered := s.Render(req.Parameters, req.Result)
	key := fmt.Sprintf("reports/%s/%s.txt", rendered.GeneratedAt.Format("2006-01-02"), rendered.ID)

	stored, err := s.storage.Put(ctx, key, []byte(rendered.Text), "text/plain; charset=utf-8")
	if err != nil {
		return ExportResult{}, apperrors.Wrap("export_error", "failed to store report", err)
	}
	s.logger.Info("report exported", "key", stored.Key, "size", stored.Size)
	return ExportResult{Key: stored.Key, Size: stored.Size, ETag: stored.ETag}, nil
}

func (s *service) Share(ctx context.Context, req Request) (ShareLink, error) {
	rendered := s.Render(req.Parameters, req.Result)
	token := s.newID()

	if err := s.shares.Save(ctx, token, rendered.Text, s.cfg.ShareTTL); err != nil {
		return ShareLink{}, apperrors.Wrap("share_error", "failed to store share token", err)
	}
	return ShareLink{Token: token, ExpiresAt: s.now().UTC().Add(s.cfg.ShareTTL)}, nil
}

func (s *service) Resolve(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", apperrors.Wrap("invalid_input", "share token is required", nil)
	}
	text, found, err := s.shares.Get(ctx, token)
	if err != nil {
		return "", apperrors.Wrap("share_error", "failed to look up share token", err)
	}
	if !found {
		return "", apperrors.Wrap("not_found", "shared report not found or expired", nil)
	}
	return text, nil
}

func renderText(p risk.Parameters, r risk.Assessment, generated time.Time) string {
	var b strings.Builder

	b.WriteString("CARDIOVASCULAR RISK REPORT\n")
	b.WriteString("Generated: " + generated.Format("2006-01-02 15:04 MST") + "\n\n")

	b.WriteString("PATIENT PROFILE\n")
	fmt.Fprintf(&b, "  Age: %d\n", p.Age)
	fmt.Fprintf(&b, "  Sex: %s\n", p.Sex)
	fmt.Fprintf(&b, "  Risk region: %s\n", p.Region)
	fmt.Fprintf(&b, "  Smoking status: %s\n", p.Smoking)
	fmt.Fprintf(&b, "  Systolic blood pressure: %.0f mmHg\n", p.SystolicBP)
	fmt.Fprintf(&b, "  Total cholesterol: %.2f %s\n", p.TotalCholesterol, p.CholesterolUnit)
	if p.HDLCholesterol != nil {
		fmt.Fprintf(&b, "  HDL cholesterol: %.2f %s\n", *p.HDLCholesterol, p.CholesterolUnit)
	}
	fmt.Fprintf(&b, "  Diabetes: %s\n", yesNo(p.Diabetes))
	if p.BMI != nil {
		fmt.Fprintf(&b, "  BMI: %.1f\n", *p.BMI)
	}

	b.WriteString("\nRESULT\n")
	fmt.Fprintf(&b, "  10-year risk: %.1f%% (%s)\n", r.RiskPercentage, r.Category)
	fmt.Fprintf(&b, "  Estimated heart age: %d\n", r.HeartAge)
	fmt.Fprintf(&b, "  Methodology: %s\n", r.Algorithm)
	fmt.Fprintf(&b, "  %s\n", r.Interpretation)

	if len(r.Recommendations) > 0 {
		b.WriteString("\nRECOMMENDATIONS\n")
		for _, advice := range r.Recommendations {
			b.WriteString("  - " + advice + "\n")
		}
	}

	b.WriteString("\n" + disclaimer + "\n")
	b.WriteString(citation + "\n")
	return b.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
