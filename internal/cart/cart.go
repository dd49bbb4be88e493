package cart

import (
	"sync"

	"github.com/angelmondragon/invoicedesk/internal/catalog"
	"github.com/angelmondragon/invoicedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/shopspring/decimal"
)

// Line is one cart row. Name and price are captured when the item is first added.
type Line struct {
	ItemID      int64           `json:"item_id"`
	DisplayName string          `json:"display_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the lines of one invoice being built. It is safe for concurrent
// use; every mutation is rejected while a submission is in flight.
type Cart struct {
	mu            sync.Mutex
	lines         []Line
	pendingAdd    map[int64]int
	pendingRemove map[int64]int
	submitting    bool
}

func New() *Cart {
	return &Cart{
		pendingAdd:    make(map[int64]int),
		pendingRemove: make(map[int64]int),
	}
}

// AddItem adds qty units of item, merging into an existing line.
func (c *Cart) AddItem(item catalog.Item, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkIdle(); err != nil {
		return err
	}
	return c.add(item, qty)
}

// RemoveItem takes qty units off the line for itemID, dropping the line when
// qty reaches or exceeds its quantity. A non-positive qty removes one unit.
func (c *Cart) RemoveItem(itemID int64, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkIdle(); err != nil {
		return err
	}
	return c.remove(itemID, qty)
}

// SetPendingQty records the quantity the next add or remove of itemID should use.
// Stock is not checked until the pending action runs.
func (c *Cart) SetPendingQty(op enums.PendingOp, itemID int64, qty int) error {
	if qty <= 0 {
		return invalidQuantity(qty)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkIdle(); err != nil {
		return err
	}
	pending, err := c.pendingFor(op)
	if err != nil {
		return err
	}
	pending[itemID] = qty
	return nil
}

// PendingQty reports the stored pending quantity for op and itemID.
func (c *Cart) PendingQty(op enums.PendingOp, itemID int64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pending, err := c.pendingFor(op)
	if err != nil {
		return 0, false
	}
	qty, ok := pending[itemID]
	return qty, ok
}

// AddPending adds item using its pending add quantity, or 1 when none is set.
// The pending entry is consumed only when the add succeeds.
func (c *Cart) AddPending(item catalog.Item) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkIdle(); err != nil {
		return err
	}
	qty, ok := c.pendingAdd[item.ID]
	if !ok {
		qty = 1
	}
	if err := c.add(item, qty); err != nil {
		return err
	}
	delete(c.pendingAdd, item.ID)
	return nil
}

// RemovePending removes using the pending remove quantity, or 1 when none is set.
func (c *Cart) RemovePending(itemID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkIdle(); err != nil {
		return err
	}
	qty, ok := c.pendingRemove[itemID]
	if !ok {
		qty = 1
	}
	if err := c.remove(itemID, qty); err != nil {
		return err
	}
	delete(c.pendingRemove, itemID)
	return nil
}

// Clear empties the lines and both pending maps.
func (c *Cart) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkIdle(); err != nil {
		return err
	}
	c.reset()
	return nil
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Total is ComputeTotal over the current lines.
func (c *Cart) Total() decimal.Decimal {
	return ComputeTotal(c.Lines())
}

// Submitting reports whether a submission currently holds the cart.
func (c *Cart) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// BeginSubmission locks the cart and returns the lines to send. It fails with
// CartEmpty for an empty cart and SubmissionInProgress if already locked.
func (c *Cart) BeginSubmission() ([]Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkIdle(); err != nil {
		return nil, err
	}
	if len(c.lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeCartEmpty, "cart is empty")
	}
	c.submitting = true
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out, nil
}

// FinishSubmission releases the lock. A successful submission clears the
// cart; a failed one leaves it exactly as it was.
func (c *Cart) FinishSubmission(succeeded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if succeeded {
		c.reset()
	}
	c.submitting = false
}

func (c *Cart) add(item catalog.Item, qty int) error {
	if qty < 1 {
		return invalidQuantity(qty)
	}
	pos := c.indexOf(item.ID)
	existing := 0
	if pos >= 0 {
		existing = c.lines[pos].Quantity
	}
	// existing+qty can overflow int; compare against the headroom instead.
	if qty > item.Remaining-existing {
		return pkgerrors.New(pkgerrors.CodeStockExceeded, "requested quantity exceeds available stock").
			WithDetails(map[string]any{
				"item_id":   item.ID,
				"in_cart":   existing,
				"requested": qty,
				"remaining": item.Remaining,
			})
	}
	if pos >= 0 {
		c.lines[pos].Quantity = existing + qty
		return nil
	}
	c.lines = append(c.lines, Line{
		ItemID:      item.ID,
		DisplayName: item.Name,
		UnitPrice:   item.UnitPrice,
		Quantity:    qty,
	})
	return nil
}

func (c *Cart) remove(itemID int64, qty int) error {
	pos := c.indexOf(itemID)
	if pos < 0 {
		return pkgerrors.New(pkgerrors.CodeLineNotFound, "item is not in the cart").
			WithDetails(map[string]any{"item_id": itemID})
	}
	if qty < 1 {
		qty = 1
	}
	if qty >= c.lines[pos].Quantity {
		c.lines = append(c.lines[:pos], c.lines[pos+1:]...)
		return nil
	}
	c.lines[pos].Quantity -= qty
	return nil
}

func (c *Cart) indexOf(itemID int64) int {
	for i := range c.lines {
		if c.lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) pendingFor(op enums.PendingOp) (map[int64]int, error) {
	switch op {
	case enums.PendingOpAdd:
		return c.pendingAdd, nil
	case enums.PendingOpRemove:
		return c.pendingRemove, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown pending operation").
			WithDetails(map[string]any{"op": string(op)})
	}
}

func (c *Cart) checkIdle() error {
	if c.submitting {
		return pkgerrors.New(pkgerrors.CodeSubmissionInProgress, "an invoice submission is already in progress")
	}
	return nil
}

func (c *Cart) reset() {
	c.lines = nil
	c.pendingAdd = make(map[int64]int)
	c.pendingRemove = make(map[int64]int)
}

func invalidQuantity(qty int) error {
	return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be a positive whole number").
		WithDetails(map[string]any{"quantity": qty})
}
