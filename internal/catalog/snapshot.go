package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is one sellable inventory row as it looked when the snapshot was taken.
type Item struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	GroupName string          `json:"group_name,omitempty"`
	Photo     string          `json:"photo,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Remaining int             `json:"remaining"`
}

// Snapshot is an immutable, ordered view of the catalog. It is replaced
// wholesale on refresh and never mutated in place.
type Snapshot struct {
	items    []Item
	index    map[int64]int
	loadedAt time.Time
}

// NewSnapshot copies items into a snapshot. Duplicate ids keep their first occurrence.
func NewSnapshot(items []Item, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		items:    make([]Item, 0, len(items)),
		index:    make(map[int64]int, len(items)),
		loadedAt: loadedAt,
	}
	for _, item := range items {
		if _, seen := s.index[item.ID]; seen {
			continue
		}
		s.index[item.ID] = len(s.items)
		s.items = append(s.items, item)
	}
	return s
}

// Lookup returns the item with the given id.
func (s *Snapshot) Lookup(id int64) (Item, bool) {
	if s == nil {
		return Item{}, false
	}
	pos, ok := s.index[id]
	if !ok {
		return Item{}, false
	}
	return s.items[pos], true
}

// Items returns the items in backend order.
func (s *Snapshot) Items() []Item {
	if s == nil {
		return nil
	}
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

func (s *Snapshot) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}
