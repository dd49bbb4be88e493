package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/invoicedesk/api/responses"
	"github.com/angelmondragon/invoicedesk/api/validators"
	"github.com/angelmondragon/invoicedesk/internal/cart"
	"github.com/angelmondragon/invoicedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
	"github.com/shopspring/decimal"
)

type cartLineView struct {
	ItemID    int64           `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	Lines      []cartLineView  `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	Submitting bool            `json:"submitting"`
}

func toCartView(c *cart.Cart) cartView {
	lines := c.Lines()
	view := cartView{
		Lines:      make([]cartLineView, 0, len(lines)),
		Total:      cart.ComputeTotal(lines),
		Submitting: c.Submitting(),
	}
	for _, line := range lines {
		view.Lines = append(view.Lines, cartLineView{
			ItemID:    line.ItemID,
			Name:      line.DisplayName,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal(),
		})
	}
	return view
}

// quantityText is what the operator typed into a quantity box. Browsers send
// it either as a JSON string or a bare number; both reach ParseQuantity as text.
type quantityText string

func (q *quantityText) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = quantityText(s)
		return nil
	}
	if string(data) == "null" {
		return nil
	}
	*q = quantityText(data)
	return nil
}

type addItemBody struct {
	ItemID   int64         `json:"item_id" validate:"required,gt=0"`
	Quantity *quantityText `json:"quantity"`
}

type removeItemBody struct {
	Quantity *quantityText `json:"quantity"`
}

type pendingBody struct {
	Op       string       `json:"op" validate:"required,oneof=add remove"`
	Quantity quantityText `json:"quantity" validate:"required"`
}

// optionalQuantity parses quantity text; an absent field means fallback.
func optionalQuantity(text *quantityText, fallback int) (int, error) {
	if text == nil {
		return fallback, nil
	}
	return cart.ParseQuantity(string(*text))
}

func CartGet(spaces Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(spaces.Get(state.ID).Cart))
	}
}

// CartClear empties the cart and every pending quantity.
func CartClear(spaces Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c := spaces.Get(state.ID).Cart
		if err := c.Clear(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(c))
	}
}

// CartAddItem adds a catalog item; quantity defaults to 1 when omitted.
func CartAddItem(spaces Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addItemBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qty, err := optionalQuantity(body.Quantity, 1)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := spaces.Item(r.Context(), state.ID, state.BackendToken, body.ItemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c := spaces.Get(state.ID).Cart
		if err := c.AddItem(item, qty); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(c))
	}
}

// CartRemoveItem decrements or deletes a line; an omitted quantity removes one.
func CartRemoveItem(spaces Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body removeItemBody
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		qty, err := optionalQuantity(body.Quantity, 0)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c := spaces.Get(state.ID).Cart
		if err := c.RemoveItem(itemID, qty); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(c))
	}
}

// CartSetPending stores the quantity the next add or remove click will use.
func CartSetPending(spaces Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body pendingBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		op, err := enums.ParsePendingOp(body.Op)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid op"))
			return
		}
		qty, err := cart.ParseQuantity(string(body.Quantity))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := spaces.Get(state.ID).Cart.SetPendingQty(op, itemID, qty); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"item_id": itemID, "op": op, "quantity": qty})
	}
}

// CartAddPending adds the item using its pending add quantity.
func CartAddPending(spaces Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := spaces.Item(r.Context(), state.ID, state.BackendToken, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c := spaces.Get(state.ID).Cart
		if err := c.AddPending(item); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(c))
	}
}

// CartRemovePending removes using the item's pending remove quantity.
func CartRemovePending(spaces Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := parseItemID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c := spaces.Get(state.ID).Cart
		if err := c.RemovePending(itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCartView(c))
	}
}
