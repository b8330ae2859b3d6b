package report

import (
	"context"
	"time"

	"github.com/yanqian/heartcheck/internal/domain/risk"
)

// Report is the rendered artifact: a literal snapshot of the inputs plus the
// engine output. Rendering never recomputes or alters a field.
type Report struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Parameters  risk.Parameters `json:"parameters"`
	Result      risk.Assessment `json:"result"`
	Text        string          `json:"text"`
}

// Request is the payload for the report endpoints.
type Request struct {
	Parameters risk.Parameters `json:"parameters"`
	Result     risk.Assessment `json:"result"`
}

// ExportResult identifies the stored artifact.
type ExportResult struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
	ETag string `json:"etag,omitempty"`
}

// ShareLink resolves to the rendered text until it expires.
type ShareLink struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StoredObject describes a persisted artifact.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// ObjectStorage persists exported report artifacts.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ShareStore keeps share tokens with a TTL.
type ShareStore interface {
	Save(ctx context.Context, token, payload string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, bool, error)
}

// Config drives report behavior.
type Config struct {
	ShareTTL time.Duration
}
