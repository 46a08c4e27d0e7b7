package services

import (
	"context"
	"sync"

	"github.com/neuralbroker/tiergate/core"
)

// FakeBackend is a test-only fake implementing core.BackendClient.
// It serves a configurable tier record and exposes error fields for
// behavior injection.
type FakeBackend struct {
	mu sync.Mutex

	tierData    *core.TierData
	fetchErr    error
	updateErr   error
	validateErr error
	loginErr    error

	granted     bool
	loginResult *core.LoginResult

	fetchCalls    int
	updateCalls   int
	validateCalls int

	lastUpdateTier    core.Tier
	lastUpdateCredits int
}

var _ core.BackendClient = (*FakeBackend)(nil)

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{granted: true}
}

func (f *FakeBackend) SetTierData(d *core.TierData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tierData = d
}

func (f *FakeBackend) SetFetchErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

func (f *FakeBackend) SetValidate(granted bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.granted = granted
	f.validateErr = err
}

func (f *FakeBackend) FetchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

func (f *FakeBackend) FetchTier(ctx context.Context, userID string) (*core.TierData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.tierData == nil {
		return core.FallbackTierData(), nil
	}
	return f.tierData.Clone(), nil
}

func (f *FakeBackend) UpdateTier(ctx context.Context, userID string, newTier core.Tier, credits int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.lastUpdateTier = newTier
	f.lastUpdateCredits = credits
	if f.tierData != nil {
		d := f.tierData.Clone()
		d.Tier = newTier
		d.CreditsRemaining = credits
		f.tierData = d
	}
	return nil
}

func (f *FakeBackend) ValidateFeature(ctx context.Context, userID, feature string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.validateCalls++
	if f.validateErr != nil {
		return false, f.validateErr
	}
	return f.granted, nil
}

func (f *FakeBackend) Login(ctx context.Context, email, password string) (*core.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if email == "" {
		return nil, core.ErrEmailRequired
	}
	if password == "" {
		return nil, core.ErrPasswordRequired
	}
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.loginResult != nil {
		return f.loginResult, nil
	}
	return &core.LoginResult{Token: "fake-token", UserID: "fake-user"}, nil
}

// FakeCredentialStore is a test-only fake implementing
// core.CredentialStore with injectable errors.
type FakeCredentialStore struct {
	mu       sync.Mutex
	creds    *core.Credentials
	loadErr  error
	saveErr  error
	clearErr error
}

var _ core.CredentialStore = (*FakeCredentialStore)(nil)

func NewFakeCredentialStore() *FakeCredentialStore {
	return &FakeCredentialStore{}
}

func (f *FakeCredentialStore) Seed(creds *core.Credentials) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = creds
}

func (f *FakeCredentialStore) Stored() *core.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds
}

func (f *FakeCredentialStore) Load(ctx context.Context) (*core.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.creds == nil {
		return nil, core.ErrNoCredentials
	}
	out := *f.creds
	return &out, nil
}

func (f *FakeCredentialStore) Save(ctx context.Context, creds *core.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	c := *creds
	f.creds = &c
	return nil
}

func (f *FakeCredentialStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clearErr != nil {
		return f.clearErr
	}
	f.creds = nil
	return nil
}
