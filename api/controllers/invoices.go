package controllers

import (
	"net/http"

	"github.com/angelmondragon/invoicedesk/api/responses"
	"github.com/angelmondragon/invoicedesk/api/validators"
	"github.com/angelmondragon/invoicedesk/internal/invoices"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
)

// submitInvoiceBody leaves client_id to the service, which reports an empty
// cart before a missing client.
type submitInvoiceBody struct {
	ClientID   int64  `json:"client_id"`
	ClientName string `json:"client_name" validate:"max=200"`
}

// InvoiceClients is the client selection gate: it only lists clients once
// the cart has lines.
func InvoiceClients(svc invoices.Service, spaces Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		clients, err := svc.RequestClientSelection(r.Context(), spaces.Get(state.ID).Cart, state.BackendToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, clients)
	}
}

// InvoiceSubmit sends the session's cart to the backend as an invoice.
func InvoiceSubmit(svc invoices.Service, spaces Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body submitInvoiceBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), spaces.Get(state.ID).Cart, invoices.SubmitInput{
			Token:      state.BackendToken,
			ClientID:   body.ClientID,
			ClientName: validators.SanitizeString(body.ClientName, 200),
			IssuedBy:   state.UserID(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func InvoiceList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parseListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), state.BackendToken, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
