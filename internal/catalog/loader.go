package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/invoicedesk/pkg/inventoryapi"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
)

type inventoryLister interface {
	ListInventory(ctx context.Context, token string, params inventoryapi.ListParams) (*inventoryapi.Page[inventoryapi.InventoryItem], error)
}

// Loader builds snapshots by walking every page of the backend inventory list.
type Loader struct {
	api      inventoryLister
	maxPages int
	logg     *logger.Logger
	now      func() time.Time
}

// NewLoader constructs a Loader. maxPages bounds the walk for runaway pagination.
func NewLoader(api inventoryLister, maxPages int, logg *logger.Logger) (*Loader, error) {
	if api == nil {
		return nil, fmt.Errorf("inventory lister required")
	}
	if maxPages <= 0 {
		return nil, fmt.Errorf("max pages must be positive")
	}
	return &Loader{api: api, maxPages: maxPages, logg: logg, now: time.Now}, nil
}

// Load fetches the full catalog visible to token.
func (l *Loader) Load(ctx context.Context, token string) (*Snapshot, error) {
	var items []Item
	for page := 1; ; page++ {
		result, err := l.api.ListInventory(ctx, token, inventoryapi.ListParams{Page: page})
		if err != nil {
			return nil, fmt.Errorf("load catalog page %d: %w", page, err)
		}
		for _, raw := range result.Results {
			items = append(items, fromInventory(raw))
		}
		if !result.HasNext() {
			break
		}
		if page >= l.maxPages {
			if l.logg != nil {
				ctx = l.logg.WithFields(ctx, map[string]any{"pages": page, "items": len(items), "backend_count": result.Count})
				l.logg.Warn(ctx, "catalog.load.truncated")
			}
			break
		}
	}
	return NewSnapshot(items, l.now()), nil
}

func fromInventory(raw inventoryapi.InventoryItem) Item {
	item := Item{
		ID:        raw.ID,
		Code:      raw.Code,
		Name:      raw.Name,
		Photo:     raw.Photo,
		UnitPrice: raw.Price,
		Remaining: raw.Remaining,
	}
	if raw.Group != nil {
		item.GroupName = raw.Group.Name
	}
	if item.Remaining < 0 {
		item.Remaining = 0
	}
	return item
}
