// Package repository persists visitor sessions, one record per identity.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"starlight-postoffice/internal/domain"
)

var (
	// ErrNotFound means no session is stored for the identity.
	ErrNotFound = errors.New("repository: session not found")
	// ErrCorrupt means a stored session could not be decoded.
	ErrCorrupt = errors.New("repository: session record corrupt")
)

// SessionStore is the persistence contract consumed by the orchestrator.
type SessionStore interface {
	Load(ctx context.Context, identity string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, identity string) error
}

var (
	_ SessionStore = (*Client)(nil)
	_ SessionStore = (*FileStore)(nil)
)

func decodeSession(raw []byte, identity string) (*domain.Session, error) {
	var s domain.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !s.Phase.Valid() {
		return nil, fmt.Errorf("%w: unknown phase %q", ErrCorrupt, s.Phase)
	}
	if s.Identity != identity {
		return nil, fmt.Errorf("%w: identity mismatch", ErrCorrupt)
	}
	if s.Turns == nil {
		s.Turns = []domain.Turn{}
	}
	if s.UsedStories == nil {
		s.UsedStories = []string{}
	}
	if s.LastEmotion == "" {
		s.LastEmotion = domain.EmotionNeutral
	}
	return &s, nil
}
