package clinicianrepo

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/yanqian/heartcheck/internal/domain/auth"
)

// MemoryRepository provides an in-memory clinician store for tests/dev.
type MemoryRepository struct {
	mu         sync.RWMutex
	clinicians map[int64]auth.Clinician
	emailIndex map[string]int64
	identities map[string]auth.Identity
	ownerIndex map[string]auth.Identity
	seq        int64
	identityID int64
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		clinicians: make(map[int64]auth.Clinician),
		emailIndex: make(map[string]int64),
		identities: make(map[string]auth.Identity),
		ownerIndex: make(map[string]auth.Identity),
	}
}

// Create stores the clinician record.
func (r *MemoryRepository) Create(_ context.Context, email, displayName, passwordHash string) (auth.Clinician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.emailIndex[email]; exists {
		return auth.Clinician{}, auth.ErrEmailExists
	}
	r.seq++
	clinician := auth.Clinician{
		ID:           r.seq,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.clinicians[clinician.ID] = clinician
	r.emailIndex[email] = clinician.ID
	return clinician, nil
}

// GetByEmail returns a clinician by email.
func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (auth.Clinician, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.emailIndex[email]; ok {
		return r.clinicians[id], true, nil
	}
	return auth.Clinician{}, false, nil
}

// GetByID fetches by ID.
func (r *MemoryRepository) GetByID(_ context.Context, id int64) (auth.Clinician, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clinician, ok := r.clinicians[id]
	return clinician, ok, nil
}

// GetIdentity returns an identity by provider and subject.
func (r *MemoryRepository) GetIdentity(_ context.Context, provider, providerSubject string) (auth.Identity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.identities[identityKey(provider, providerSubject)]
	return identity, ok, nil
}

// GetIdentityByClinician returns an identity by clinician and provider.
func (r *MemoryRepository) GetIdentityByClinician(_ context.Context, clinicianID int64, provider string) (auth.Identity, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.ownerIndex[ownerIdentityKey(provider, clinicianID)]
	return identity, ok, nil
}

// UpsertIdentity stores or updates the identity mapping.
func (r *MemoryRepository) UpsertIdentity(_ context.Context, identity auth.Identity) (auth.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if identity.ClinicianID == 0 {
		return auth.Identity{}, errors.New("clinicianID is required")
	}
	key := identityKey(identity.Provider, identity.ProviderSubject)
	existing, ok := r.identities[key]
	if ok {
		if identity.RefreshToken != "" {
			existing.RefreshToken = identity.RefreshToken
		}
		if identity.ProviderEmail != "" {
			existing.ProviderEmail = identity.ProviderEmail
		}
		existing.UpdatedAt = time.Now().UTC()
		r.identities[key] = existing
		r.ownerIndex[ownerIdentityKey(existing.Provider, existing.ClinicianID)] = existing
		return existing, nil
	}
	r.identityID++
	identity.ID = r.identityID
	now := time.Now().UTC()
	identity.CreatedAt = now
	identity.UpdatedAt = now
	r.identities[key] = identity
	r.ownerIndex[ownerIdentityKey(identity.Provider, identity.ClinicianID)] = identity
	return identity, nil
}

var _ auth.Repository = (*MemoryRepository)(nil)

func identityKey(provider, subject string) string {
	return provider + ":" + subject
}

func ownerIdentityKey(provider string, clinicianID int64) string {
	return provider + ":" + strconv.FormatInt(clinicianID, 10)
}
