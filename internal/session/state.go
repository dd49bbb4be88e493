package session

import (
	"context"
	"time"

	"github.com/angelmondragon/invoicedesk/pkg/enums"
)

// User is the signed-in staff member as reported by the inventory backend.
type User struct {
	ID       int64          `json:"id"`
	Email    string         `json:"email"`
	Fullname string         `json:"fullname"`
	Role     enums.UserRole `json:"role"`
}

// State is everything a terminal session remembers between requests.
type State struct {
	ID                    string    `json:"id"`
	User                  *User     `json:"user,omitempty"`
	PendingPasswordUserID int64     `json:"pending_password_user_id,omitempty"`
	BackendToken          string    `json:"backend_token,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// SetUser records the authenticated user and the backend token acting for them.
func (s *State) SetUser(user *User, backendToken string) {
	s.User = user
	s.BackendToken = backendToken
	s.PendingPasswordUserID = 0
}

// SetPendingPasswordUserID remembers which account still has to choose a password.
func (s *State) SetPendingPasswordUserID(userID int64) {
	s.PendingPasswordUserID = userID
}

func (s *State) ClearPendingPassword() {
	s.PendingPasswordUserID = 0
}

// Authenticated reports whether the state carries a user and a backend token.
func (s *State) Authenticated() bool {
	return s != nil && s.User != nil && s.BackendToken != ""
}

// Role returns the user's role or "" when nobody is signed in.
func (s *State) Role() enums.UserRole {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s *State) UserID() int64 {
	if s == nil || s.User == nil {
		return 0
	}
	return s.User.ID
}

type ctxKey struct{}

// WithState stores the session state on the context.
func WithState(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, state)
}

// FromContext returns the session state stored by WithState.
func FromContext(ctx context.Context) (*State, bool) {
	state, ok := ctx.Value(ctxKey{}).(*State)
	return state, ok && state != nil
}
