package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/invoicedesk/api/responses"
	"github.com/angelmondragon/invoicedesk/api/validators"
	"github.com/angelmondragon/invoicedesk/internal/catalog"
	"github.com/angelmondragon/invoicedesk/internal/workspace"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
)

// Workspaces is the per-session cart and catalog registry.
type Workspaces interface {
	Get(sessionID string) *workspace.Workspace
	Catalog(ctx context.Context, sessionID, token string) (*catalog.Snapshot, error)
	RefreshCatalog(ctx context.Context, sessionID, token string) (*catalog.Snapshot, error)
	Item(ctx context.Context, sessionID, token string, itemID int64) (catalog.Item, error)
}

type catalogResponse struct {
	Items    []catalog.Item `json:"items"`
	Count    int            `json:"count"`
	LoadedAt time.Time      `json:"loaded_at"`
}

// CatalogList returns the session's catalog snapshot, optionally filtered by
// keyword against item name and code.
func CatalogList(spaces Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := spaces.Catalog(r.Context(), state.ID, state.BackendToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		keyword := strings.ToLower(validators.SanitizeString(r.URL.Query().Get("keyword"), 100))
		responses.WriteSuccess(w, toCatalogResponse(snap, keyword))
	}
}

// CatalogRefresh re-fetches the snapshot from the inventory backend.
func CatalogRefresh(spaces Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, err := spaces.RefreshCatalog(r.Context(), state.ID, state.BackendToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCatalogResponse(snap, ""))
	}
}

func toCatalogResponse(snap *catalog.Snapshot, keyword string) catalogResponse {
	items := snap.Items()
	if keyword != "" {
		filtered := items[:0]
		for _, item := range items {
			if strings.Contains(strings.ToLower(item.Name), keyword) || strings.Contains(strings.ToLower(item.Code), keyword) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}
	return catalogResponse{Items: items, Count: len(items), LoadedAt: snap.LoadedAt()}
}
