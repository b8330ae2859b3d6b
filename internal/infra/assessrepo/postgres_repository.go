package assessrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/heartcheck/internal/domain/assessment"
	"github.com/yanqian/heartcheck/internal/domain/risk"
)

// PostgresRepository implements assessment.Repository using pgx. Parameters
// and results are stored as JSONB; the feature vector is a pgvector column.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert stores the record and its feature vector.
func (r *PostgresRepository) Insert(ctx context.Context, record assessment.Record, features []float32) (assessment.Record, error) {
	paramsJSON, err := json.Marshal(record.Parameters)
	if err != nil {
		return assessment.Record{}, err
	}
	resultJSON, err := json.Marshal(record.Result)
	if err != nil {
		return assessment.Record{}, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO assessments (id, clinician_id, parameters, result, features)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, clinician_id, parameters, result, created_at
	`, record.ID, record.ClinicianID, paramsJSON, resultJSON, pgvector.NewVector(features))
	return scanRecord(row)
}

// GetByID fetches a single record.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (assessment.Record, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, clinician_id, parameters, result, created_at
		FROM assessments
		WHERE id = $1
		LIMIT 1
	`, id)
	if err != nil {
		return assessment.Record{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return assessment.Record{}, false, rows.Err()
	}
	record, err := scanRecord(rows)
	if err != nil {
		return assessment.Record{}, false, err
	}
	return record, true, rows.Err()
}

// ListByClinician returns the newest records first.
func (r *PostgresRepository) ListByClinician(ctx context.Context, clinicianID int64, limit int) ([]assessment.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, clinician_id, parameters, result, created_at
		FROM assessments
		WHERE clinician_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, clinicianID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []assessment.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// FindSimilar returns the closest pgvector matches excluding one record.
func (r *PostgresRepository) FindSimilar(ctx context.Context, features []float32, excludeID string, limit int) ([]assessment.SimilarMatch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, clinician_id, parameters, result, created_at, features <-> $1 AS distance
		FROM assessments
		WHERE id <> $2
		ORDER BY features <-> $1
		LIMIT $3
	`, pgvector.NewVector(features), excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []assessment.SimilarMatch
	for rows.Next() {
		var distance float64
		record, err := scanRecord(rows, &distance)
		if err != nil {
			return nil, err
		}
		out = append(out, assessment.SimilarMatch{Record: record, Distance: distance})
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, extras ...any) (assessment.Record, error) {
	var (
		record     assessment.Record
		paramsJSON []byte
		resultJSON []byte
		created    time.Time
	)
	args := []any{&record.ID, &record.ClinicianID, &paramsJSON, &resultJSON, &created}
	args = append(args, extras...)
	if err := row.Scan(args...); err != nil {
		return assessment.Record{}, err
	}
	var params risk.Parameters
	if err := json.Unmarshal(paramsJSON, &params); err != nil {
		return assessment.Record{}, err
	}
	var result risk.Assessment
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return assessment.Record{}, err
	}
	record.Parameters = params
	record.Result = result
	record.CreatedAt = created.UTC()
	return record, nil
}

var _ assessment.Repository = (*PostgresRepository)(nil)
