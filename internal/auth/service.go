package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/angelmondragon/invoicedesk/internal/session"
	"github.com/angelmondragon/invoicedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/angelmondragon/invoicedesk/pkg/inventoryapi"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
)

type backendAuth interface {
	Login(ctx context.Context, email, password string) (string, error)
	FirstLogin(ctx context.Context, email string) (int64, error)
	UpdatePassword(ctx context.Context, userID int64, password string) error
	Me(ctx context.Context, token string) (*inventoryapi.User, error)
}

type stateStore interface {
	Create(ctx context.Context) (*session.State, error)
	Save(ctx context.Context, state *session.State) error
	Logout(ctx context.Context, state *session.State) error
}

type tokenMinter interface {
	Mint(state *session.State) (string, error)
}

type workspaceDropper interface {
	Drop(sessionID string)
}

// Service signs staff in against the inventory backend and manages their
// terminal sessions.
type Service interface {
	Login(ctx context.Context, email, password string) (*Result, error)
	FirstLogin(ctx context.Context, email string) (*Result, error)
	CompletePassword(ctx context.Context, state *session.State, password string) error
	Logout(ctx context.Context, state *session.State) error
}

// Result is a freshly created session and the token that addresses it.
type Result struct {
	Token string         `json:"token"`
	State *session.State `json:"-"`
}

type service struct {
	api        backendAuth
	store      stateStore
	tokens     tokenMinter
	workspaces workspaceDropper
	logg       *logger.Logger
}

func NewService(api backendAuth, store stateStore, tokens tokenMinter, workspaces workspaceDropper, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("inventory api client required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token minter required")
	}
	if workspaces == nil {
		return nil, fmt.Errorf("workspace registry required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{api: api, store: store, tokens: tokens, workspaces: workspaces, logg: logg}, nil
}

// Login exchanges credentials for a backend token, loads the user behind it
// and opens a new session.
func (s *service) Login(ctx context.Context, email, password string) (*Result, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	backendToken, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, credentialsError(err)
	}

	profile, err := s.api.Me(ctx, backendToken)
	if err != nil {
		return nil, err
	}
	role, err := enums.ParseUserRole(profile.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "account role is not allowed to use the terminal")
	}

	state, err := s.store.Create(ctx)
	if err != nil {
		return nil, err
	}
	state.SetUser(&session.User{ID: profile.ID, Email: profile.Email, Fullname: profile.Fullname, Role: role}, backendToken)
	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}

	token, err := s.tokens.Mint(state)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}

	ctx = s.logg.WithSessionID(s.logg.WithUserID(ctx, profile.ID), state.ID)
	s.logg.Info(s.logg.WithActorRole(ctx, role.String()), "auth.login.succeeded")
	return &Result{Token: token, State: state}, nil
}

// FirstLogin opens an anonymous session that remembers which account still
// has to choose a password.
func (s *service) FirstLogin(ctx context.Context, email string) (*Result, error) {
	userID, err := s.api.FirstLogin(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, credentialsError(err)
	}

	state, err := s.store.Create(ctx)
	if err != nil {
		return nil, err
	}
	state.SetPendingPasswordUserID(userID)
	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}

	token, err := s.tokens.Mint(state)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"pending_user_id": userID, "session_id": state.ID}), "auth.first_login.pending")
	return &Result{Token: token, State: state}, nil
}

// CompletePassword sets the pending user's password. The user signs in
// normally afterwards.
func (s *service) CompletePassword(ctx context.Context, state *session.State, password string) error {
	if state == nil || state.PendingPasswordUserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "no password change is pending for this session")
	}
	if err := s.api.UpdatePassword(ctx, state.PendingPasswordUserID, password); err != nil {
		return err
	}
	userID := state.PendingPasswordUserID
	state.ClearPendingPassword()
	if err := s.store.Save(ctx, state); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "user_id", userID), "auth.password.set")
	return nil
}

// Logout forgets the session state and its cart.
func (s *service) Logout(ctx context.Context, state *session.State) error {
	if state == nil {
		return nil
	}
	id := state.ID
	if err := s.store.Logout(ctx, state); err != nil {
		return err
	}
	s.workspaces.Drop(id)
	s.logg.Info(s.logg.WithSessionID(ctx, id), "auth.logout")
	return nil
}

// credentialsError turns the backend's 400 for bad credentials into an
// Unauthorized carrying the backend message.
func credentialsError(err error) error {
	apiErr := inventoryapi.AsAPIError(err)
	if apiErr == nil || apiErr.Status != http.StatusBadRequest {
		return err
	}
	message := apiErr.Message
	if message == "" {
		message = "invalid credentials"
	}
	return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, message)
}
