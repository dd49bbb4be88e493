package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/invoicedesk/pkg/config"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	redisclient "github.com/angelmondragon/invoicedesk/pkg/redis"
	"github.com/google/uuid"
)

type stateBackend interface {
	StoreSession(ctx context.Context, sessionID string, payload []byte, ttl time.Duration) error
	LoadSession(ctx context.Context, sessionID string) ([]byte, error)
	RevokeSession(ctx context.Context, sessionID string) error
}

// Store keeps session state in Redis as JSON with a sliding TTL.
type Store struct {
	backend stateBackend
	ttl     time.Duration
	now     func() time.Time
}

// NewStore constructs a session store backed by Redis.
func NewStore(client *redisclient.Client, cfg config.SessionConfig) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newStore(client, cfg.StateTTL)
}

func newStore(backend stateBackend, ttl time.Duration) (*Store, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("session state ttl must be positive")
	}
	return &Store{backend: backend, ttl: ttl, now: time.Now}, nil
}

// Create starts an empty session and persists it.
func (s *Store) Create(ctx context.Context) (*State, error) {
	state := &State{ID: uuid.NewString(), CreatedAt: s.now().UTC()}
	if err := s.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Get loads the session. Missing or expired sessions are Unauthorized.
func (s *Store) Get(ctx context.Context, sessionID string) (*State, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	raw, err := s.backend.LoadSession(ctx, sessionID)
	if err != nil {
		if redisclient.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode session")
	}
	state.ID = sessionID
	return &state, nil
}

// Save writes the state and restarts its TTL.
func (s *Store) Save(ctx context.Context, state *State) error {
	if state == nil || strings.TrimSpace(state.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "session id is required")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session")
	}
	if err := s.backend.StoreSession(ctx, state.ID, payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return nil
}

// Delete removes the state; deleting an unknown session is not an error.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.backend.RevokeSession(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete session")
	}
	return nil
}

// Logout tears the state down both in Redis and in memory.
func (s *Store) Logout(ctx context.Context, state *State) error {
	if state == nil {
		return nil
	}
	if err := s.Delete(ctx, state.ID); err != nil {
		return err
	}
	state.User = nil
	state.BackendToken = ""
	state.PendingPasswordUserID = 0
	return nil
}
