package session

import (
	"context"
	"fmt"
	"time"

	"civic_reporter/internal/model"
	"civic_reporter/internal/utils"
	"civic_reporter/internal/xerrors"

	"github.com/oklog/ulid/v2"
)

// Manager issues, resolves and revokes bearer tokens backed by a Store.
// The token only carries the session id; the store is the source of truth.
type Manager struct {
	store   Store
	tokens  *utils.JWTUtil
	timeout time.Duration
}

func NewManager(store Store, tokens *utils.JWTUtil, timeout time.Duration) *Manager {
	return &Manager{
		store:   store,
		tokens:  tokens,
		timeout: timeout,
	}
}

// NewID returns a fresh session id.
func NewID() string {
	return ulid.Make().String()
}

// Issue persists s and returns a signed token for it.
func (m *Manager) Issue(ctx context.Context, s *model.Session) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.store.Save(ctx, s); err != nil {
		return "", storeError("failed to save session", err)
	}

	token, err := m.tokens.GenerateToken(s.ID, string(s.Role))
	if err != nil {
		_ = m.store.Delete(ctx, s.ID)
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// Resolve returns the live session behind token, or nil when the token is
// invalid, expired, revoked or disagrees with the stored role.
func (m *Manager) Resolve(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, nil
	}
	claims, err := m.tokens.ValidateToken(token)
	if err != nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	s, err := m.store.Load(ctx, claims.SessionID())
	if err != nil {
		return nil, storeError("failed to load session", err)
	}
	if s == nil || string(s.Role) != claims.Role {
		return nil, nil
	}
	return s, nil
}

// Revoke deletes the session behind token. Unknown or malformed tokens are a
// no-op.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := m.tokens.ValidateToken(token)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.store.Delete(ctx, claims.SessionID()); err != nil {
		return storeError("failed to delete session", err)
	}
	return nil
}

func storeError(op string, err error) error {
	if xerrors.KindOf(err) == xerrors.KindTimeout {
		return fmt.Errorf("%s: %w", op, xerrors.Wrap(xerrors.ErrTimeout, err))
	}
	return fmt.Errorf("%s: %w", op, xerrors.Wrap(xerrors.ErrBackendUnavailable, err))
}
