package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/neuralbroker/tiergate/core"
	"github.com/neuralbroker/tiergate/pkg/crypto"
)

// SessionService is the single source of truth for whether the current
// dashboard session is authenticated. State is derived from a
// CredentialStore: authenticated iff a non-empty token is stored.
type SessionService struct {
	mu    sync.RWMutex
	store core.CredentialStore
	log   *zap.Logger

	loading       bool
	initialized   bool
	authenticated bool
	token         string
	tokenHash     string
	userID        string
	loggedInAt    time.Time
}

func NewSessionService(store core.CredentialStore, log *zap.Logger) *SessionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionService{
		store:   store,
		log:     log,
		loading: true,
	}
}

// Initialize reads persisted credentials and resolves the transient
// loading state. A missing or empty token is not an error: the session
// simply starts unauthenticated. Must complete before protected access
// checks are trusted.
func (s *SessionService) Initialize(ctx context.Context) error {
	creds, err := s.store.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.initialized = true

	if err != nil {
		s.resetLocked()
		if err == core.ErrNoCredentials {
			return nil
		}
		s.log.Warn("credential load failed, starting unauthenticated", zap.Error(err))
		return nil
	}
	if creds.Token == "" {
		s.resetLocked()
		return nil
	}

	s.applyLocked(creds.Token, creds.UserID)
	s.log.Debug("session restored from credential store", zap.String("user_id", creds.UserID))
	return nil
}

// Login persists the token and user id and marks the session
// authenticated. The token is not validated against the backend here;
// the caller must have obtained it from a successful login exchange.
func (s *SessionService) Login(ctx context.Context, token, userID string) error {
	if token == "" {
		return core.ErrTokenRequired
	}

	creds := &core.Credentials{Token: token, UserID: userID}
	if err := s.store.Save(ctx, creds); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}

	s.mu.Lock()
	s.loading = false
	s.initialized = true
	s.applyLocked(token, userID)
	s.mu.Unlock()

	s.log.Info("session authenticated", zap.String("user_id", userID))
	return nil
}

// Logout clears persisted credentials and the in-memory state. The
// caller is responsible for stopping tier monitoring for the session.
func (s *SessionService) Logout(ctx context.Context) error {
	err := s.store.Clear(ctx)

	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	s.log.Info("session logged out")
	return nil
}

// IsAuthenticated reports the authenticated flag. False while the
// initial credential load is still in flight.
func (s *SessionService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Loading reports whether Initialize has not yet completed.
func (s *SessionService) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *SessionService) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// VerifyToken compares a presented bearer token against the session's
// token in constant time. False whenever the session is
// unauthenticated.
func (s *SessionService) VerifyToken(presented string) bool {
	s.mu.RLock()
	hash := s.tokenHash
	authenticated := s.authenticated
	s.mu.RUnlock()

	if !authenticated || presented == "" {
		return false
	}
	ok, err := crypto.VerifyToken(presented, hash)
	return err == nil && ok
}

// Snapshot returns the current session state for display surfaces.
func (s *SessionService) Snapshot() core.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Session{
		Authenticated: s.authenticated,
		UserID:        s.userID,
		Token:         s.token,
		LoggedInAt:    s.loggedInAt,
	}
}

func (s *SessionService) applyLocked(token, userID string) {
	s.authenticated = true
	s.token = token
	s.tokenHash = crypto.HashToken(token)
	s.userID = userID
	s.loggedInAt = time.Now()
}

func (s *SessionService) resetLocked() {
	s.authenticated = false
	s.token = ""
	s.tokenHash = ""
	s.userID = ""
	s.loggedInAt = time.Time{}
}
