package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sparksblog/sparks/model"
)

// ErrTokenNotFound is returned for unknown, expired or already consumed
// tokens of either kind.
var ErrTokenNotFound = errors.New("token not found or expired")

// Store persists the two token kinds the auth flow needs: one-time sign-in
// link tokens and session tokens. Backed by Redis in production, by memory
// in tests and single-node development.
type Store interface {
	// SaveLinkToken stores a one-time sign-in token for email, valid for ttl.
	SaveLinkToken(ctx context.Context, token string, email string, ttl time.Duration) error

	// TakeLinkToken consumes a one-time token and returns the email it was
	// issued for. A token can be taken exactly once.
	TakeLinkToken(ctx context.Context, token string) (string, error)

	SaveSession(ctx context.Context, token string, session *model.Session, ttl time.Duration) error
	Session(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type memoryEntry struct {
	email     string
	session   *model.Session
	expiresAt time.Time
}

// MemoryStore is an in-memory Store. Entries expire lazily on read.
type MemoryStore struct {
	mu       sync.Mutex
	links    map[string]memoryEntry
	sessions map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:    map[string]memoryEntry{},
		sessions: map[string]memoryEntry{},
	}
}

func (m *MemoryStore) SaveLinkToken(ctx context.Context, token string, email string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[token] = memoryEntry{email: email, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryStore) TakeLinkToken(ctx context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.links[token]
	delete(m.links, token)
	if !ok || time.Now().After(entry.expiresAt) {
		return "", ErrTokenNotFound
	}
	return entry.email, nil
}

func (m *MemoryStore) SaveSession(ctx context.Context, token string, session *model.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = memoryEntry{session: session, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryStore) Session(ctx context.Context, token string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[token]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(m.sessions, token)
		return nil, ErrTokenNotFound
	}
	return entry.session, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}
