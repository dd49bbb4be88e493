package session

import (
	"context"
	"fmt"
	"time"

	pkgauth "github.com/angelmondragon/invoicedesk/pkg/auth"
	"github.com/angelmondragon/invoicedesk/pkg/config"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
)

type stateStore interface {
	Get(ctx context.Context, sessionID string) (*State, error)
}

// Manager binds session state to the JWT handed to browsers. The token's jti
// is the session id, so a token is only as good as the state behind it.
type Manager struct {
	store stateStore
	cfg   config.JWTConfig
	now   func() time.Time
}

func NewManager(store *Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &Manager{store: store, cfg: cfg, now: time.Now}, nil
}

// Mint issues a session token for the state.
func (m *Manager) Mint(state *State) (string, error) {
	if state == nil || state.ID == "" {
		return "", fmt.Errorf("session state is required")
	}
	return pkgauth.MintSessionToken(m.cfg, m.now(), pkgauth.SessionTokenPayload{
		SessionID: state.ID,
		UserID:    state.UserID(),
		Role:      state.Role(),
	})
}

// Resolve validates the token and loads the state it points at.
func (m *Manager) Resolve(ctx context.Context, token string) (*State, error) {
	claims, err := pkgauth.ParseSessionToken(m.cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	state, err := m.store.Get(ctx, claims.SessionID())
	if err != nil {
		return nil, err
	}
	if claims.UserID != state.UserID() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "token does not match session")
	}
	return state, nil
}
