package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/invoicedesk/api/responses"
	"github.com/angelmondragon/invoicedesk/internal/session"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
)

// SessionResolver turns a session token into the state it addresses.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*session.State, error)
}

// Auth validates a bearer session token and seeds the request context with
// the session state. Sessions still waiting for a first password pass too;
// RequireUser keeps them out of the terminal routes.
func Auth(resolver SessionResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			state, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if pkgerrors.As(err) == nil {
					err = pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := session.WithState(r.Context(), state)
			ctx = WithSessionID(ctx, state.ID)
			ctx = WithUserID(ctx, state.UserID())
			ctx = context.WithValue(ctx, ctxRole, string(state.Role()))

			if logg != nil {
				ctx = logg.WithSessionID(ctx, state.ID)
				if state.Authenticated() {
					ctx = logg.WithUserID(ctx, state.UserID())
					ctx = logg.WithActorRole(ctx, string(state.Role()))
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects sessions that have not completed a login.
func RequireUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state, ok := session.FromContext(r.Context())
			if !ok || !state.Authenticated() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
