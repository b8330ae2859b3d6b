package assessrepo

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/yanqian/heartcheck/internal/domain/assessment"
)

// MemoryRepository keeps assessment history in memory for tests/dev.
type MemoryRepository struct {
	mu       sync.RWMutex
	records  map[string]assessment.Record
	features map[string][]float32
	order    []string
}

// NewMemoryRepository constructs the in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records:  make(map[string]assessment.Record),
		features: make(map[string][]float32),
	}
}

// Insert stores the record and its feature vector.
func (r *MemoryRepository) Insert(_ context.Context, record assessment.Record, features []float32) (assessment.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	r.records[record.ID] = record
	r.features[record.ID] = append([]float32(nil), features...)
	r.order = append(r.order, record.ID)
	return record, nil
}

// GetByID fetches a single record.
func (r *MemoryRepository) GetByID(_ context.Context, id string) (assessment.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	return record, ok, nil
}

// ListByClinician returns the newest records first.
func (r *MemoryRepository) ListByClinician(_ context.Context, clinicianID int64, limit int) ([]assessment.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []assessment.Record
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		record := r.records[r.order[i]]
		if record.ClinicianID == clinicianID {
			out = append(out, record)
		}
	}
	return out, nil
}

// FindSimilar ranks stored records by Euclidean distance to the query vector.
func (r *MemoryRepository) FindSimilar(_ context.Context, features []float32, excludeID string, limit int) ([]assessment.SimilarMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var matches []assessment.SimilarMatch
	for id, stored := range r.features {
		if id == excludeID {
			continue
		}
		matches = append(matches, assessment.SimilarMatch{
			Record:   r.records[id],
			Distance: euclidean(features, stored),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func euclidean(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

var _ assessment.Repository = (*MemoryRepository)(nil)
