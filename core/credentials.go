package core

import (
	"context"
	"sync"
)

// MemoryCredentialStore keeps credentials in process memory only.
// Suitable for tests and short-lived tools; nothing survives restart.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds *Credentials
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Load(ctx context.Context) (*Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.creds == nil {
		return nil, ErrNoCredentials
	}
	out := *s.creds
	return &out, nil
}

func (s *MemoryCredentialStore) Save(ctx context.Context, creds *Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *creds
	s.creds = &c
	return nil
}

func (s *MemoryCredentialStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = nil
	return nil
}
