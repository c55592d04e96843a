package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"starlight-postoffice/internal/domain"
)

// FileStore keeps each session as <dir>/<identity>.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("repository: session directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("repository: create session directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Load(_ context.Context, identity string) (*domain.Session, error) {
	raw, err := os.ReadFile(f.path(identity))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repository: read session: %w", err)
	}
	return decodeSession(raw, identity)
}

// Save writes to a temporary file and renames it over the old record.
func (f *FileStore) Save(_ context.Context, s *domain.Session) error {
	if s == nil || s.Identity == "" {
		return errors.New("repository: Save: session identity is required")
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("repository: Save marshal: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".session-*")
	if err != nil {
		return fmt.Errorf("repository: Save temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("repository: Save write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("repository: Save close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(s.Identity)); err != nil {
		return fmt.Errorf("repository: Save rename: %w", err)
	}
	return nil
}

func (f *FileStore) Delete(_ context.Context, identity string) error {
	err := os.Remove(f.path(identity))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("repository: Delete: %w", err)
	}
	return nil
}

// path keeps safe identities readable and hashes anything else.
func (f *FileStore) path(identity string) string {
	name := identity
	if !safeName(identity) {
		sum := sha256.Sum256([]byte(identity))
		name = hex.EncodeToString(sum[:16])
	}
	return filepath.Join(f.dir, name+".json")
}

func safeName(s string) bool {
	if s == "" || len(s) > 128 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
