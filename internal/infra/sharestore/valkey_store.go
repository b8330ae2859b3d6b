package sharestore

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/heartcheck/internal/domain/report"
)

// ValkeyStore keeps share tokens in a Valkey-compatible database so links
// survive restarts and expire server-side.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "share"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Save stores the payload under the token with a TTL.
func (s *ValkeyStore) Save(ctx context.Context, token, payload string, ttl time.Duration) error {
	builder := s.client.B().Set().Key(s.tokenKey(token)).Value(payload)
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

// Get resolves a token to its payload.
func (s *ValkeyStore) Get(ctx context.Context, token string) (string, bool, error) {
	cmd := s.client.B().Get().Key(s.tokenKey(token)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return payload, true, nil
}

func (s *ValkeyStore) tokenKey(token string) string {
	return fmt.Sprintf("%s:token:%s", s.prefix, token)
}

var _ report.ShareStore = (*ValkeyStore)(nil)
