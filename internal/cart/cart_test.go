package cart

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/angelmondragon/invoicedesk/internal/catalog"
	"github.com/angelmondragon/invoicedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widget() catalog.Item {
	return catalog.Item{ID: 1, Name: "Widget", UnitPrice: decimal.NewFromInt(10), Remaining: 5}
}

func item(id int64, price string, remaining int) catalog.Item {
	return catalog.Item{ID: id, Name: "item", UnitPrice: decimal.RequireFromString(price), Remaining: remaining}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, pkgerrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func TestWidgetScenario(t *testing.T) {
	c := New()
	w := widget()

	require.NoError(t, c.AddItem(w, 3))
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, 3, c.Lines()[0].Quantity)
	assert.True(t, c.Total().Equal(decimal.NewFromInt(30)))

	requireCode(t, c.AddItem(w, 3), pkgerrors.CodeStockExceeded)
	assert.Equal(t, 3, c.Lines()[0].Quantity)
	assert.True(t, c.Total().Equal(decimal.NewFromInt(30)))

	require.NoError(t, c.RemoveItem(1, 2))
	assert.Equal(t, 1, c.Lines()[0].Quantity)
	assert.True(t, c.Total().Equal(decimal.NewFromInt(10)))

	require.NoError(t, c.RemoveItem(1, 1))
	assert.Empty(t, c.Lines())
	assert.True(t, c.Total().IsZero())
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	c := New()
	requireCode(t, c.AddItem(widget(), 0), pkgerrors.CodeInvalidQuantity)
	requireCode(t, c.AddItem(widget(), -2), pkgerrors.CodeInvalidQuantity)
	assert.True(t, c.IsEmpty())
}

func TestAddItemRejectsQuantityThatWouldOverflow(t *testing.T) {
	c := New()
	w := widget()
	require.NoError(t, c.AddItem(w, 3))

	huge, err := ParseQuantity("9223372036854775807")
	require.NoError(t, err)
	requireCode(t, c.AddItem(w, huge), pkgerrors.CodeStockExceeded)
	requireCode(t, c.AddItem(w, math.MaxInt), pkgerrors.CodeStockExceeded)

	require.Len(t, c.Lines(), 1)
	assert.Equal(t, 3, c.Lines()[0].Quantity)
	assert.True(t, c.Total().Equal(decimal.NewFromInt(30)))

	fresh := New()
	requireCode(t, fresh.AddItem(w, math.MaxInt), pkgerrors.CodeStockExceeded)
	assert.True(t, fresh.IsEmpty())
}

func TestAddItemKeepsNameAndPriceFromFirstAdd(t *testing.T) {
	c := New()
	w := widget()
	require.NoError(t, c.AddItem(w, 1))

	w.Name = "Renamed"
	w.UnitPrice = decimal.NewFromInt(99)
	require.NoError(t, c.AddItem(w, 1))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Widget", lines[0].DisplayName)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestLinesKeepInsertionOrder(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(item(3, "1", 9), 1))
	require.NoError(t, c.AddItem(item(1, "1", 9), 1))
	require.NoError(t, c.AddItem(item(2, "1", 9), 1))
	require.NoError(t, c.AddItem(item(3, "1", 9), 1))

	var ids []int64
	for _, line := range c.Lines() {
		ids = append(ids, line.ItemID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}

func TestAddItemAccumulatesAcceptedQuantities(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		remaining := rng.Intn(20) + 1
		it := item(1, "2.5", remaining)
		c := New()
		accepted := 0
		for step := 0; step < 10; step++ {
			qty := rng.Intn(6) + 1
			err := c.AddItem(it, qty)
			if accepted+qty > remaining {
				requireCode(t, err, pkgerrors.CodeStockExceeded)
			} else {
				require.NoError(t, err)
				accepted += qty
			}
			lines := c.Lines()
			if accepted == 0 {
				require.Empty(t, lines)
				continue
			}
			require.Len(t, lines, 1)
			require.Equal(t, accepted, lines[0].Quantity)
			require.LessOrEqual(t, lines[0].Quantity, remaining)
		}
	}
}

func TestRemoveItemClampsAndDeletes(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(item(1, "1", 10), 4))
	require.NoError(t, c.RemoveItem(1, 9))
	assert.True(t, c.IsEmpty(), "removing more than present deletes the line")

	require.NoError(t, c.AddItem(item(1, "1", 10), 4))
	require.NoError(t, c.RemoveItem(1, 1))
	require.NoError(t, c.RemoveItem(1, 3))
	assert.True(t, c.IsEmpty(), "removing exactly what is left deletes the line")
}

func TestRemoveItemDefaultsToOne(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(item(1, "1", 10), 4))
	require.NoError(t, c.RemoveItem(1, 0))
	require.NoError(t, c.RemoveItem(1, -5))
	assert.Equal(t, 2, c.Lines()[0].Quantity)
}

func TestRemoveItemMissingLine(t *testing.T) {
	c := New()
	requireCode(t, c.RemoveItem(42, 1), pkgerrors.CodeLineNotFound)
	requireCode(t, c.RemovePending(42), pkgerrors.CodeLineNotFound)
}

func TestPendingQuantitiesAreIndependentPerOperation(t *testing.T) {
	c := New()
	it := item(1, "3", 10)

	require.NoError(t, c.SetPendingQty(enums.PendingOpAdd, 1, 5))
	require.NoError(t, c.SetPendingQty(enums.PendingOpRemove, 1, 2))

	addQty, ok := c.PendingQty(enums.PendingOpAdd, 1)
	require.True(t, ok)
	assert.Equal(t, 5, addQty)

	require.NoError(t, c.AddPending(it))
	assert.Equal(t, 5, c.Lines()[0].Quantity)
	_, ok = c.PendingQty(enums.PendingOpAdd, 1)
	assert.False(t, ok, "add entry is consumed")

	removeQty, ok := c.PendingQty(enums.PendingOpRemove, 1)
	require.True(t, ok, "remove entry survives an add")
	assert.Equal(t, 2, removeQty)

	require.NoError(t, c.RemovePending(1))
	assert.Equal(t, 3, c.Lines()[0].Quantity)

	require.NoError(t, c.RemovePending(1))
	assert.Equal(t, 2, c.Lines()[0].Quantity, "defaults to one once consumed")
}

func TestAddPendingDefaultsToOneAndKeepsEntryOnFailure(t *testing.T) {
	c := New()
	it := item(1, "3", 2)

	require.NoError(t, c.AddPending(it))
	assert.Equal(t, 1, c.Lines()[0].Quantity)

	require.NoError(t, c.SetPendingQty(enums.PendingOpAdd, 1, 4))
	requireCode(t, c.AddPending(it), pkgerrors.CodeStockExceeded)
	qty, ok := c.PendingQty(enums.PendingOpAdd, 1)
	require.True(t, ok)
	assert.Equal(t, 4, qty)
	assert.Equal(t, 1, c.Lines()[0].Quantity)
}

func TestSetPendingQtyValidation(t *testing.T) {
	c := New()
	requireCode(t, c.SetPendingQty(enums.PendingOpAdd, 1, 0), pkgerrors.CodeInvalidQuantity)
	requireCode(t, c.SetPendingQty(enums.PendingOp("swap"), 1, 1), pkgerrors.CodeValidation)
	require.NoError(t, c.SetPendingQty(enums.PendingOpAdd, 1, 500), "stock is not checked at set time")
}

func TestClearEmptiesLinesAndPending(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(item(1, "1.10", 10), 3))
	require.NoError(t, c.AddItem(item(2, "4.05", 10), 1))
	require.NoError(t, c.SetPendingQty(enums.PendingOpAdd, 1, 2))
	require.NoError(t, c.SetPendingQty(enums.PendingOpRemove, 2, 1))

	require.NoError(t, c.Clear())

	assert.Empty(t, c.Lines())
	assert.True(t, c.Total().IsZero())
	_, ok := c.PendingQty(enums.PendingOpAdd, 1)
	assert.False(t, ok)
	_, ok = c.PendingQty(enums.PendingOpRemove, 2)
	assert.False(t, ok)
}

func TestSubmissionLocksMutations(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(widget(), 2))

	lines, err := c.BeginSubmission()
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, c.Submitting())

	requireCode(t, c.AddItem(widget(), 1), pkgerrors.CodeSubmissionInProgress)
	requireCode(t, c.RemoveItem(1, 1), pkgerrors.CodeSubmissionInProgress)
	requireCode(t, c.SetPendingQty(enums.PendingOpAdd, 1, 1), pkgerrors.CodeSubmissionInProgress)
	requireCode(t, c.AddPending(widget()), pkgerrors.CodeSubmissionInProgress)
	requireCode(t, c.RemovePending(1), pkgerrors.CodeSubmissionInProgress)
	requireCode(t, c.Clear(), pkgerrors.CodeSubmissionInProgress)
	_, err = c.BeginSubmission()
	requireCode(t, err, pkgerrors.CodeSubmissionInProgress)

	c.FinishSubmission(false)
	assert.False(t, c.Submitting())
	assert.Equal(t, lines, c.Lines(), "failed submission keeps the cart")

	_, err = c.BeginSubmission()
	require.NoError(t, err)
	c.FinishSubmission(true)
	assert.True(t, c.IsEmpty())
}

func TestBeginSubmissionOnEmptyCart(t *testing.T) {
	c := New()
	_, err := c.BeginSubmission()
	requireCode(t, err, pkgerrors.CodeCartEmpty)
	assert.False(t, c.Submitting())
}

func TestConcurrentAddsNeverExceedStock(t *testing.T) {
	c := New()
	it := item(1, "1", 50)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.AddItem(it, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.Lines()[0].Quantity)
}
