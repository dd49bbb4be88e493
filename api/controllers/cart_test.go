package controllers

import (
	"net/http"
	"testing"

	"github.com/angelmondragon/invoicedesk/pkg/enums"
	"github.com/shopspring/decimal"
)

func TestCartAddItemDefaultsToOne(t *testing.T) {
	spaces := newTestWorkspaces(t)
	state := signedIn(enums.UserRoleSale)

	resp := serve(CartAddItem(spaces, nil), newRequest(http.MethodPost, "/api/v1/cart/items", `{"item_id":1}`, state, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var view cartView
	decodeData(t, resp, &view)
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 1 {
		t.Fatalf("unexpected lines %+v", view.Lines)
	}
	if !view.Total.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("unexpected total %s", view.Total)
	}
}

func TestCartAddItemAcceptsNumericAndTextQuantity(t *testing.T) {
	spaces := newTestWorkspaces(t)
	state := signedIn(enums.UserRoleSale)

	for _, body := range []string{`{"item_id":1,"quantity":2}`, `{"item_id":1,"quantity":" 3 "}`} {
		resp := serve(CartAddItem(spaces, nil), newRequest(http.MethodPost, "/api/v1/cart/items", body, state, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("body %s: expected 200 got %d: %s", body, resp.Code, resp.Body.String())
		}
	}

	lines := spaces.Get(state.ID).Cart.Lines()
	if len(lines) != 1 || lines[0].Quantity != 5 {
		t.Fatalf("expected one merged line of 5, got %+v", lines)
	}
}

func TestCartAddItemRejections(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"text quantity", `{"item_id":1,"quantity":"abc"}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"zero quantity", `{"item_id":1,"quantity":"0"}`, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"over stock", `{"item_id":2,"quantity":4}`, http.StatusConflict, "STOCK_EXCEEDED"},
		{"unknown item", `{"item_id":99}`, http.StatusNotFound, "NOT_FOUND"},
		{"missing item", `{"quantity":1}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spaces := newTestWorkspaces(t)
			resp := serve(CartAddItem(spaces, nil), newRequest(http.MethodPost, "/api/v1/cart/items", tc.body, signedIn(enums.UserRoleSale), nil))
			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, resp.Code, resp.Body.String())
			}
			if code := errorCode(t, resp); code != tc.code {
				t.Fatalf("expected %s got %s", tc.code, code)
			}
			if !spaces.Get("sess-1").Cart.IsEmpty() {
				t.Fatal("rejected add must leave the cart unchanged")
			}
		})
	}
}

func TestCartRemoveItemWithoutBodyRemovesOne(t *testing.T) {
	spaces := newTestWorkspaces(t)
	state := signedIn(enums.UserRoleSale)
	serve(CartAddItem(spaces, nil), newRequest(http.MethodPost, "/api/v1/cart/items", `{"item_id":1,"quantity":2}`, state, nil))

	params := map[string]string{"itemId": "1"}
	resp := serve(CartRemoveItem(spaces, nil), newRequest(http.MethodDelete, "/api/v1/cart/items/1", "", state, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if lines := spaces.Get(state.ID).Cart.Lines(); len(lines) != 1 || lines[0].Quantity != 1 {
		t.Fatalf("expected one unit left, got %+v", lines)
	}

	resp = serve(CartRemoveItem(spaces, nil), newRequest(http.MethodDelete, "/api/v1/cart/items/1", `{"quantity":"5"}`, state, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !spaces.Get(state.ID).Cart.IsEmpty() {
		t.Fatal("removing more than the line holds should drop it")
	}

	resp = serve(CartRemoveItem(spaces, nil), newRequest(http.MethodDelete, "/api/v1/cart/items/1", "", state, params))
	if code := errorCode(t, resp); code != "LINE_NOT_FOUND" {
		t.Fatalf("expected LINE_NOT_FOUND got %s", code)
	}
}

func TestCartRemoveItemBadID(t *testing.T) {
	spaces := newTestWorkspaces(t)
	resp := serve(CartRemoveItem(spaces, nil), newRequest(http.MethodDelete, "/api/v1/cart/items/x", "", signedIn(enums.UserRoleSale), map[string]string{"itemId": "x"}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartPendingQuantityFlow(t *testing.T) {
	spaces := newTestWorkspaces(t)
	state := signedIn(enums.UserRoleSale)
	params := map[string]string{"itemId": "1"}

	resp := serve(CartSetPending(spaces, nil), newRequest(http.MethodPut, "/api/v1/cart/items/1/pending", `{"op":"add","quantity":"3"}`, state, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("set pending: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	resp = serve(CartAddPending(spaces, nil), newRequest(http.MethodPost, "/api/v1/cart/items/1/add", "", state, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("add pending: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	var view cartView
	decodeData(t, resp, &view)
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 3 {
		t.Fatalf("expected pending quantity 3 to be added, got %+v", view.Lines)
	}
	if !view.Total.Equal(decimal.RequireFromString("7.50")) {
		t.Fatalf("unexpected total %s", view.Total)
	}

	resp = serve(CartSetPending(spaces, nil), newRequest(http.MethodPut, "/api/v1/cart/items/1/pending", `{"op":"remove","quantity":"2"}`, state, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("set remove pending: expected 200 got %d", resp.Code)
	}
	resp = serve(CartRemovePending(spaces, nil), newRequest(http.MethodPost, "/api/v1/cart/items/1/remove", "", state, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("remove pending: expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if lines := spaces.Get(state.ID).Cart.Lines(); len(lines) != 1 || lines[0].Quantity != 1 {
		t.Fatalf("expected 1 unit left, got %+v", lines)
	}
}

func TestCartSetPendingRejectsUnknownOp(t *testing.T) {
	spaces := newTestWorkspaces(t)
	resp := serve(CartSetPending(spaces, nil), newRequest(http.MethodPut, "/api/v1/cart/items/1/pending", `{"op":"double","quantity":"3"}`, signedIn(enums.UserRoleSale), map[string]string{"itemId": "1"}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClear(t *testing.T) {
	spaces := newTestWorkspaces(t)
	state := signedIn(enums.UserRoleSale)
	serve(CartAddItem(spaces, nil), newRequest(http.MethodPost, "/api/v1/cart/items", `{"item_id":2}`, state, nil))

	resp := serve(CartClear(spaces, nil), newRequest(http.MethodDelete, "/api/v1/cart", "", state, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var view cartView
	decodeData(t, resp, &view)
	if len(view.Lines) != 0 || !view.Total.IsZero() {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}

func TestCartRequiresSignedInSession(t *testing.T) {
	spaces := newTestWorkspaces(t)

	resp := serve(CartGet(spaces, nil), newRequest(http.MethodGet, "/api/v1/cart", "", nil, nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session got %d", resp.Code)
	}

	pending := signedIn(enums.UserRoleSale)
	pending.User = nil
	pending.SetPendingPasswordUserID(4)
	resp = serve(CartGet(spaces, nil), newRequest(http.MethodGet, "/api/v1/cart", "", pending, nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for first-login session got %d", resp.Code)
	}
}

func TestCatalogListFiltersByKeyword(t *testing.T) {
	spaces := newTestWorkspaces(t)
	resp := serve(CatalogList(spaces, nil), newRequest(http.MethodGet, "/api/v1/catalog?keyword=g-2", "", signedIn(enums.UserRoleSale), nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body catalogResponse
	decodeData(t, resp, &body)
	if body.Count != 1 || body.Items[0].ID != 2 {
		t.Fatalf("unexpected filter result %+v", body)
	}
}
