package auth

import "context"

// Repository abstracts clinician persistence.
type Repository interface {
	Create(ctx context.Context, email, displayName, passwordHash string) (Clinician, error)
	GetByEmail(ctx context.Context, email string) (Clinician, bool, error)
	GetByID(ctx context.Context, id int64) (Clinician, bool, error)
	GetIdentity(ctx context.Context, provider, providerSubject string) (Identity, bool, error)
	GetIdentityByClinician(ctx context.Context, clinicianID int64, provider string) (Identity, bool, error)
	UpsertIdentity(ctx context.Context, identity Identity) (Identity, error)
}
