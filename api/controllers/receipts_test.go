package controllers

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/invoicedesk/internal/receipts"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubArchive struct {
	receipt    *receipts.Receipt
	lastParams receipts.ListParams
}

func (s *stubArchive) Get(ctx context.Context, id uuid.UUID) (*receipts.Receipt, error) {
	if s.receipt == nil || s.receipt.ID != id {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
	}
	return s.receipt, nil
}

func (s *stubArchive) List(ctx context.Context, params receipts.ListParams) (*receipts.ListResult, error) {
	s.lastParams = params
	out := &receipts.ListResult{}
	if s.receipt != nil {
		out.Receipts = append(out.Receipts, *s.receipt)
	}
	return out, nil
}

func sampleReceipt() *receipts.Receipt {
	return &receipts.Receipt{
		ID:         uuid.New(),
		ClientID:   7,
		ClientName: "Acme",
		Terminal:   "TERMINAL #1",
		IssuedAt:   time.Date(2022, 10, 9, 10, 30, 0, 0, time.UTC),
		Lines: []receipts.Line{{
			ItemID: 1, Name: "Widget", Quantity: 2,
			UnitPrice: decimal.RequireFromString("2.50"), Amount: decimal.RequireFromString("5.00"),
		}},
		Total: decimal.RequireFromString("5.00"),
	}
}

func TestReceiptGetFormats(t *testing.T) {
	archive := &stubArchive{receipt: sampleReceipt()}
	id := archive.receipt.ID.String()
	params := map[string]string{"receiptId": id}

	resp := serve(ReceiptGet(archive, nil), newRequest(http.MethodGet, "/api/v1/receipts/"+id, "", nil, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("json: expected 200 got %d", resp.Code)
	}
	var got receipts.Receipt
	decodeData(t, resp, &got)
	if got.ID != archive.receipt.ID || got.ClientName != "Acme" {
		t.Fatalf("unexpected receipt %+v", got)
	}

	resp = serve(ReceiptGet(archive, nil), newRequest(http.MethodGet, "/api/v1/receipts/"+id+"?format=text", "", nil, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("text: expected 200 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(resp.Body.String(), "INVOICE") || !strings.Contains(resp.Body.String(), "Widget") {
		t.Fatalf("unexpected text body:\n%s", resp.Body.String())
	}

	resp = serve(ReceiptGet(archive, nil), newRequest(http.MethodGet, "/api/v1/receipts/"+id+"?format=pdf", "", nil, params))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("pdf: expected 400 got %d", resp.Code)
	}
}

func TestReceiptGetErrors(t *testing.T) {
	archive := &stubArchive{receipt: sampleReceipt()}

	resp := serve(ReceiptGet(archive, nil), newRequest(http.MethodGet, "/api/v1/receipts/abc", "", nil, map[string]string{"receiptId": "abc"}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id got %d", resp.Code)
	}

	missing := uuid.NewString()
	resp = serve(ReceiptGet(archive, nil), newRequest(http.MethodGet, "/api/v1/receipts/"+missing, "", nil, map[string]string{"receiptId": missing}))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestReceiptListPassesPaging(t *testing.T) {
	archive := &stubArchive{receipt: sampleReceipt()}
	resp := serve(ReceiptList(archive, nil), newRequest(http.MethodGet, "/api/v1/receipts?limit=5&cursor=abc", "", nil, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if archive.lastParams.Limit != 5 || archive.lastParams.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", archive.lastParams)
	}

	resp = serve(ReceiptList(archive, nil), newRequest(http.MethodGet, "/api/v1/receipts?limit=1000", "", nil, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit got %d", resp.Code)
	}
}
