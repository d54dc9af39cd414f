package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/setlistify/internal/shared"
	"golang.org/x/oauth2"
)

// TokenStore keeps one OAuth token per session id.
//
// Load returns an error wrapping [shared.ErrNotAuthenticated] when no token is stored.
type TokenStore interface {
	Load(ctx context.Context, sessionID string) (*oauth2.Token, error)
	Save(ctx context.Context, sessionID string, token *oauth2.Token) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is a [TokenStore] backed by a map.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]oauth2.Token
}

var _ TokenStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]oauth2.Token)}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tok, ok := m.tokens[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: no token for session %s", shared.ErrNotAuthenticated, sessionID)
	}
	return &tok, nil
}

func (m *MemoryStore) Save(ctx context.Context, sessionID string, token *oauth2.Token) error {
	if sessionID == "" || token == nil {
		return fmt.Errorf("%w: session id and token are required", shared.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[sessionID] = *token
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, sessionID)
	return nil
}
