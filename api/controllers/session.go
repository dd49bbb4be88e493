package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/invoicedesk/api/validators"
	"github.com/angelmondragon/invoicedesk/internal/session"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/angelmondragon/invoicedesk/pkg/inventoryapi"
	"github.com/go-chi/chi/v5"
)

// currentState returns the signed-in session placed on the context by the
// auth middleware.
func currentState(ctx context.Context) (*session.State, error) {
	state, ok := session.FromContext(ctx)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	return state, nil
}

func signedInState(ctx context.Context) (*session.State, error) {
	state, err := currentState(ctx)
	if err != nil {
		return nil, err
	}
	if !state.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	return state, nil
}

func parseItemID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "itemId"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid item id").WithDetails(map[string]any{"item_id": raw})
	}
	return id, nil
}

func parseListParams(r *http.Request) (inventoryapi.ListParams, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
	if err != nil {
		return inventoryapi.ListParams{}, err
	}
	return inventoryapi.ListParams{
		Page:    page,
		Keyword: validators.SanitizeString(r.URL.Query().Get("keyword"), 100),
	}, nil
}

func parseDateRange(r *http.Request) (inventoryapi.DateRange, error) {
	start, err := validators.ParseQueryDate(r, "start_date")
	if err != nil {
		return inventoryapi.DateRange{}, err
	}
	end, err := validators.ParseQueryDate(r, "end_date")
	if err != nil {
		return inventoryapi.DateRange{}, err
	}
	return inventoryapi.DateRange{Start: start, End: end}, nil
}
