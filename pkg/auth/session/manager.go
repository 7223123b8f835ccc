// Package session tracks which access tokens are still signed in. A token
// is accepted only while km:session:access:<jti> exists, so logout takes
// effect before the JWT itself expires. km:session:user:<id> indexes the
// access ids of each user so all of them can be ended at once.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var errBlankAccessID = errors.New("access id is required")

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error
	SetMembers(ctx context.Context, key string) ([]string, error)
	AccessSessionKey(accessID string) string
	UserSessionsKey(userID string) string
}

// AccessSessionChecker is what the auth middleware needs.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type Manager struct {
	store store
	ttl   time.Duration
}

// NewManager keeps sessions alive exactly as long as the access token they
// back, so the two expire together.
func NewManager(s store, lifetime time.Duration) (*Manager, error) {
	if s == nil {
		return nil, errors.New("session store is required")
	}
	if lifetime <= 0 {
		return nil, errors.New("session lifetime must be positive")
	}
	return &Manager{store: s, ttl: lifetime}, nil
}

func (m *Manager) key(accessID string) (string, error) {
	accessID = strings.TrimSpace(accessID)
	if accessID == "" {
		return "", errBlankAccessID
	}
	return m.store.AccessSessionKey(accessID), nil
}

// Open records that accessID belongs to userID.
func (m *Manager) Open(ctx context.Context, accessID string, userID uuid.UUID) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, key, userID.String(), m.ttl); err != nil {
		return err
	}
	return m.store.AddToSet(ctx, m.store.UserSessionsKey(userID.String()), m.ttl, strings.TrimSpace(accessID))
}

// Revoke ends the session. Revoking an unknown session is not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	key, err := m.key(accessID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// RevokeUser ends every session userID has open.
func (m *Manager) RevokeUser(ctx context.Context, userID uuid.UUID) error {
	index := m.store.UserSessionsKey(userID.String())
	accessIDs, err := m.store.SetMembers(ctx, index)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(accessIDs)+1)
	for _, id := range accessIDs {
		keys = append(keys, m.store.AccessSessionKey(id))
	}
	return m.store.Del(ctx, append(keys, index)...)
}

func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	key, err := m.key(accessID)
	if err != nil {
		return false, err
	}
	return m.store.Exists(ctx, key)
}

// NewAccessID returns a fresh identifier for the token jti.
func NewAccessID() string {
	return uuid.NewString()
}
