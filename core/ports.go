package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// CREDENTIAL STORE PORT (persisted login state)
// ============================================

// CredentialStore persists the single Credentials record for a
// dashboard profile. Load returns ErrNoCredentials when nothing is
// stored.
type CredentialStore interface {
	Load(ctx context.Context) (*Credentials, error)
	Save(ctx context.Context, creds *Credentials) error
	Clear(ctx context.Context) error
}

// ============================================
// TIER CACHE PORT
// ============================================

// TierCache caches TierData snapshots keyed by user id. Get returns
// ErrCacheNotFound on a miss.
type TierCache interface {
	Get(userID string) (*TierData, error)
	Set(userID string, d *TierData) error
	Delete(userID string) error
	Clear() error
}

// TierCacheWithStats extends TierCache with statistics tracking
type TierCacheWithStats interface {
	TierCache
	Stats() CacheStats
}

// CacheConfig configures cache behavior
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats are simple counters for cache behavior.
// These are intended for diagnostics and monitoring.
type CacheStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// ============================================
// BACKEND PORT (Neural Broker tier API)
// ============================================

// BackendClient talks to the Neural Broker backend. Implementations
// must bound every call (the reference client uses a 30s timeout) and
// propagate failures to the caller; retention and fallback policy
// belong to the TierMonitor, not the client.
type BackendClient interface {
	// FetchTier retrieves the current tier record for a user.
	FetchTier(ctx context.Context, userID string) (*TierData, error)

	// UpdateTier asks the backend to overwrite the stored tier and
	// reseed credits. Administrative/simulation path.
	UpdateTier(ctx context.Context, userID string, newTier Tier, credits int) error

	// ValidateFeature performs server-side feature validation.
	ValidateFeature(ctx context.Context, userID, feature string) (bool, error)

	// Login exchanges credentials for an access token.
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}
