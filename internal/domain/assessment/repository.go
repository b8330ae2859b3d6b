package assessment

import "context"

// Repository abstracts assessment history persistence. The feature vector is
// a normalized projection of the parameters used for similarity search.
type Repository interface {
	Insert(ctx context.Context, record Record, features []float32) (Record, error)
	GetByID(ctx context.Context, id string) (Record, bool, error)
	ListByClinician(ctx context.Context, clinicianID int64, limit int) ([]Record, error)
	FindSimilar(ctx context.Context, features []float32, excludeID string, limit int) ([]SimilarMatch, error)
}
