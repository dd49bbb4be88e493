package workspace

import (
	"context"
	"fmt"
	"sync"

	"github.com/angelmondragon/invoicedesk/internal/cart"
	"github.com/angelmondragon/invoicedesk/internal/catalog"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
)

type catalogLoader interface {
	Load(ctx context.Context, token string) (*catalog.Snapshot, error)
}

// Workspace is the in-memory invoice-creation state of one session.
type Workspace struct {
	Cart *cart.Cart

	mu       sync.Mutex
	snapshot *catalog.Snapshot
}

// Snapshot returns the loaded catalog, or nil before the first load.
func (w *Workspace) Snapshot() *catalog.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot
}

// Registry maps session ids to their workspaces.
type Registry struct {
	loader catalogLoader
	logg   *logger.Logger

	mu     sync.Mutex
	spaces map[string]*Workspace
}

func NewRegistry(loader catalogLoader, logg *logger.Logger) (*Registry, error) {
	if loader == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Registry{loader: loader, logg: logg, spaces: map[string]*Workspace{}}, nil
}

// Get returns the session's workspace, creating an empty one on first use.
func (r *Registry) Get(sessionID string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.spaces[sessionID]
	if !ok {
		ws = &Workspace{Cart: cart.New()}
		r.spaces[sessionID] = ws
	}
	return ws
}

// Catalog returns the session's snapshot, loading it on first use.
func (r *Registry) Catalog(ctx context.Context, sessionID, token string) (*catalog.Snapshot, error) {
	ws := r.Get(sessionID)
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if ws.snapshot != nil {
		return ws.snapshot, nil
	}
	return r.load(ctx, ws, token)
}

// RefreshCatalog re-fetches the snapshot. The cart keeps the names and prices
// its lines were added with.
func (r *Registry) RefreshCatalog(ctx context.Context, sessionID, token string) (*catalog.Snapshot, error) {
	ws := r.Get(sessionID)
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return r.load(ctx, ws, token)
}

// Item resolves an item id against the session's snapshot.
func (r *Registry) Item(ctx context.Context, sessionID, token string, itemID int64) (catalog.Item, error) {
	snap, err := r.Catalog(ctx, sessionID, token)
	if err != nil {
		return catalog.Item{}, err
	}
	item, ok := snap.Lookup(itemID)
	if !ok {
		return catalog.Item{}, pkgerrors.New(pkgerrors.CodeNotFound, "item not found in catalog").
			WithDetails(map[string]any{"item_id": itemID})
	}
	return item, nil
}

// Drop discards the session's workspace.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.spaces, sessionID)
}

// Len reports how many sessions hold a workspace.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}

func (r *Registry) load(ctx context.Context, ws *Workspace, token string) (*catalog.Snapshot, error) {
	snap, err := r.loader.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	ws.snapshot = snap
	r.logg.Info(r.logg.WithField(ctx, "items", snap.Len()), "catalog.loaded")
	return snap, nil
}
