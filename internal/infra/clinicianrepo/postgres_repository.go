package clinicianrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/heartcheck/internal/domain/auth"
)

// PostgresRepository persists clinicians in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new clinician row.
func (r *PostgresRepository) Create(ctx context.Context, email, displayName, passwordHash string) (auth.Clinician, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO clinicians (email, display_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, display_name, password_hash, created_at
	`, email, displayName, passwordHash)
	clinician, err := scanClinician(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return auth.Clinician{}, auth.ErrEmailExists
		}
		return auth.Clinician{}, err
	}
	return clinician, nil
}

// GetByEmail fetches a clinician by email.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (auth.Clinician, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM clinicians
		WHERE email = $1
		LIMIT 1
	`, email)
	clinician, err := scanClinician(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Clinician{}, false, nil
	}
	if err != nil {
		return auth.Clinician{}, false, err
	}
	return clinician, true, nil
}

// GetByID fetches by primary key.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (auth.Clinician, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM clinicians
		WHERE id = $1
		LIMIT 1
	`, id)
	clinician, err := scanClinician(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Clinician{}, false, nil
	}
	if err != nil {
		return auth.Clinician{}, false, err
	}
	return clinician, true, nil
}

// GetIdentity fetches an identity by provider and subject.
func (r *PostgresRepository) GetIdentity(ctx context.Context, provider, providerSubject string) (auth.Identity, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, clinician_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
		FROM clinician_identities
		WHERE provider = $1 AND provider_subject = $2
		LIMIT 1
	`, provider, providerSubject)
	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Identity{}, false, nil
	}
	if err != nil {
		return auth.Identity{}, false, err
	}
	return identity, true, nil
}

// GetIdentityByClinician fetches an identity by owner and provider.
func (r *PostgresRepository) GetIdentityByClinician(ctx context.Context, clinicianID int64, provider string) (auth.Identity, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, clinician_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
		FROM clinician_identities
		WHERE clinician_id = $1 AND provider = $2
		LIMIT 1
	`, clinicianID, provider)
	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Identity{}, false, nil
	}
	if err != nil {
		return auth.Identity{}, false, err
	}
	return identity, true, nil
}

// UpsertIdentity inserts or updates the provider linkage.
func (r *PostgresRepository) UpsertIdentity(ctx context.Context, identity auth.Identity) (auth.Identity, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO clinician_identities (clinician_id, provider, provider_subject, provider_email, refresh_token)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, provider_subject) DO UPDATE SET
			provider_email = CASE WHEN EXCLUDED.provider_email <> '' THEN EXCLUDED.provider_email ELSE clinician_identities.provider_email END,
			refresh_token = CASE WHEN EXCLUDED.refresh_token <> '' THEN EXCLUDED.refresh_token ELSE clinician_identities.refresh_token END,
			updated_at = now()
		RETURNING id, clinician_id, provider, provider_subject, provider_email, refresh_token, created_at, updated_at
	`, identity.ClinicianID, identity.Provider, identity.ProviderSubject, identity.ProviderEmail, identity.RefreshToken)
	return scanIdentity(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClinician(row rowScanner) (auth.Clinician, error) {
	var clinician auth.Clinician
	var created time.Time
	if err := row.Scan(&clinician.ID, &clinician.Email, &clinician.DisplayName, &clinician.PasswordHash, &created); err != nil {
		return auth.Clinician{}, err
	}
	clinician.CreatedAt = created.UTC()
	return clinician, nil
}

func scanIdentity(row rowScanner) (auth.Identity, error) {
	var identity auth.Identity
	var created, updated time.Time
	if err := row.Scan(&identity.ID, &identity.ClinicianID, &identity.Provider, &identity.ProviderSubject, &identity.ProviderEmail, &identity.RefreshToken, &created, &updated); err != nil {
		return auth.Identity{}, err
	}
	identity.CreatedAt = created.UTC()
	identity.UpdatedAt = updated.UTC()
	return identity, nil
}

var _ auth.Repository = (*PostgresRepository)(nil)
