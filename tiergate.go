// Package tiergate is the session and tier/feature-gating core of the
// Neural Broker dashboard: authentication state restored from a
// credential store, and a polled view of the user's subscription tier
// driving per-feature lock/unlock decisions.
package tiergate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/neuralbroker/tiergate/core"
	"github.com/neuralbroker/tiergate/pkg/crypto"
	"github.com/neuralbroker/tiergate/services"
)

// interfaces
type (
	CredentialStore = core.CredentialStore
	TierCache       = core.TierCache
	BackendClient   = core.BackendClient
)

// HTTPAdapter registers a framework-specific surface over a Gate.
type HTTPAdapter interface {
	RegisterRoutes(g *Gate) error
}

// structs
type (
	Credentials   = core.Credentials
	Session       = core.Session
	Tier          = core.Tier
	TierData      = core.TierData
	FeatureLimit  = core.FeatureLimit
	FeatureAccess = core.FeatureAccess
	CacheConfig   = core.CacheConfig
	CacheStats    = core.CacheStats
	LoginResult   = core.LoginResult

	SessionService = services.SessionService
	TierMonitor    = services.TierMonitor
	TierListener   = services.TierListener
)

const (
	TierFree       = core.TierFree
	TierBasic      = core.TierBasic
	TierPremium    = core.TierPremium
	TierEnterprise = core.TierEnterprise

	UnlimitedCredits = core.UnlimitedCredits
)

const (
	defaultBasePath  = "/api/gate"
	defaultSecretLen = 32
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryTierCache     = core.NewInMemoryTierCache
	NewMemoryCredentialStore = core.NewMemoryCredentialStore
	FallbackTierData         = core.FallbackTierData
	DefaultFeatureTable      = core.DefaultFeatureTable
	StarterCredits           = core.StarterCredits
	NormalizeTier            = core.NormalizeTier
)

var (
	ErrNoCredentials  = core.ErrNoCredentials
	ErrNotInitialized = core.ErrNotInitialized
	ErrTokenRequired  = core.ErrTokenRequired
	ErrInvalidToken   = core.ErrInvalidToken
)

var (
	ErrUserIDRequired   = core.ErrUserIDRequired
	ErrMonitorActive    = core.ErrMonitorActive
	ErrMonitorNotActive = core.ErrMonitorNotActive
	ErrMonitorClosed    = core.ErrMonitorClosed
	ErrCacheNotFound    = core.ErrCacheNotFound
)

var (
	ErrEmailRequired    = core.ErrEmailRequired
	ErrPasswordRequired = core.ErrPasswordRequired
)

var (
	ErrBackendRequired = core.ErrBackendRequired
	ErrSecretRequired  = core.ErrSecretRequired
	ErrSecretTooShort  = core.ErrSecretTooShort
)

type Config struct {
	Secret string

	Backend core.BackendClient

	// Optional config
	Credentials  core.CredentialStore
	Cache        core.TierCache
	DisableCache bool
	PollInterval time.Duration
	BasePath     string
	Logger       *zap.Logger
	HTTP         HTTPAdapter
}

// Gate owns the session state and tier monitor for one dashboard
// deployment. Construct it explicitly and inject it; there is no
// hidden module-level instance, so tests can isolate their own.
type Gate struct {
	Session  *services.SessionService
	Tier     *services.TierMonitor
	Backend  core.BackendClient
	BasePath string
	ID       string

	log *zap.Logger
}

func New(config Config) (*Gate, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, defaultSecretLen)
	}
	if config.Backend == nil {
		return nil, ErrBackendRequired
	}

	// Set Defaults

	credentials := config.Credentials
	if credentials == nil {
		credentials = core.NewMemoryCredentialStore()
	}

	cache := config.Cache
	if cache == nil && !config.DisableCache {
		cache = core.NewInMemoryTierCache(CacheConfig{
			TTL:     5 * time.Minute,
			MaxSize: 500,
		})
	}

	interval := config.PollInterval
	if interval == 0 {
		interval = services.DefaultPollInterval
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	id := instanceID()
	logger = logger.With(zap.String("gate_id", id))

	gate := &Gate{
		Session:  services.NewSessionService(credentials, logger),
		Tier:     services.NewTierMonitor(config.Backend, cache, interval, logger),
		Backend:  config.Backend,
		BasePath: basePath,
		ID:       id,
		log:      logger,
	}

	if config.HTTP != nil {
		if err := config.HTTP.RegisterRoutes(gate); err != nil {
			return nil, err
		}
	}

	return gate, nil
}

// Bootstrap runs the application-start flow: resolve the persisted
// session, then start tier monitoring when it is authenticated.
func (g *Gate) Bootstrap(ctx context.Context) error {
	if err := g.Session.Initialize(ctx); err != nil {
		return err
	}
	if !g.Session.IsAuthenticated() {
		return nil
	}
	if _, err := g.Tier.Start(ctx, g.Session.UserID()); err != nil {
		return err
	}
	return nil
}

// SignIn exchanges credentials with the backend, persists the session,
// and (re)starts tier monitoring for the new user id.
func (g *Gate) SignIn(ctx context.Context, email, password string) (core.Session, error) {
	result, err := g.Backend.Login(ctx, email, password)
	if err != nil {
		return core.Session{}, err
	}
	if err := g.Session.Login(ctx, result.Token, result.UserID); err != nil {
		return core.Session{}, err
	}

	g.Tier.Cleanup()
	if _, err := g.Tier.Start(ctx, result.UserID); err != nil {
		return core.Session{}, err
	}

	return g.Session.Snapshot(), nil
}

// SignOut stops tier monitoring before clearing the session so no
// timer keeps fetching for a stale user id.
func (g *Gate) SignOut(ctx context.Context) error {
	g.Tier.Cleanup()
	return g.Session.Logout(ctx)
}

func instanceID() string {
	id, err := crypto.GenerateID(8)
	if err != nil {
		return "gate"
	}
	return id
}
