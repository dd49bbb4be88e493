package controllers

import (
	"net/http"

	"github.com/angelmondragon/invoicedesk/api/responses"
	"github.com/angelmondragon/invoicedesk/api/validators"
	"github.com/angelmondragon/invoicedesk/internal/auth"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
)

const sessionTokenHeader = "X-Session-Token"

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type firstLoginBody struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordBody struct {
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type tokenResponse struct {
	Token                 string `json:"token"`
	PendingPasswordUserID int64  `json:"pending_password_user_id,omitempty"`
}

// AuthLogin signs a staff member in and returns the session token.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body loginBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(sessionTokenHeader, result.Token)
		responses.WriteSuccess(w, tokenResponse{Token: result.Token})
	}
}

// AuthFirstLogin starts the set-your-password flow for a new account.
func AuthFirstLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body firstLoginBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.FirstLogin(r.Context(), body.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set(sessionTokenHeader, result.Token)
		responses.WriteSuccess(w, tokenResponse{Token: result.Token, PendingPasswordUserID: result.State.PendingPasswordUserID})
	}
}

// AuthSetPassword completes the first-login flow for the session.
func AuthSetPassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := currentState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body passwordBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.CompletePassword(r.Context(), state, body.Password); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "password_set"})
	}
}

func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := currentState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Logout(r.Context(), state); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// AuthMe returns the signed-in user.
func AuthMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state.User)
	}
}
