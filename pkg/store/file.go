// Package store provides persistent credential stores.
package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/neuralbroker/tiergate/core"
	"github.com/neuralbroker/tiergate/pkg/crypto"
)

// FileStore persists the credential record as a JSON file, the
// desktop/CLI analog of the dashboard's browser storage. The token is
// sealed under a key derived from the configured secret; the user id
// stays readable for diagnostics.
type FileStore struct {
	mu     sync.Mutex
	path   string
	secret string
}

var _ core.CredentialStore = (*FileStore)(nil)

var ErrPathRequired = errors.New("credential file path is required")

type fileRecord struct {
	Salt     string `json:"salt"`
	UserID   string `json:"userId"`
	TokenBox string `json:"authToken"`
}

func NewFileStore(path, secret string) (*FileStore, error) {
	if path == "" {
		return nil, ErrPathRequired
	}
	if secret == "" {
		return nil, core.ErrSecretRequired
	}
	return &FileStore{path: path, secret: secret}, nil
}

func (s *FileStore) Load(ctx context.Context) (*core.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var record fileRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(record.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt encoding: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(record.TokenBox)
	if err != nil {
		return nil, fmt.Errorf("invalid token encoding: %w", err)
	}

	token, err := crypto.NewSealer(s.secret, salt).Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal token: %w", err)
	}

	return &core.Credentials{Token: string(token), UserID: record.UserID}, nil
}

func (s *FileStore) Save(ctx context.Context, creds *core.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}
	sealed, err := crypto.NewSealer(s.secret, salt).Seal([]byte(creds.Token))
	if err != nil {
		return fmt.Errorf("failed to seal token: %w", err)
	}

	record := fileRecord{
		Salt:     base64.StdEncoding.EncodeToString(salt),
		UserID:   creds.UserID,
		TokenBox: base64.StdEncoding.EncodeToString(sealed),
	}
	encoded, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	// Write-then-rename so a crash never leaves a half-written file.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace credential file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}
