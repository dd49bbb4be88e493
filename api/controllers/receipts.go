package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/invoicedesk/api/responses"
	"github.com/angelmondragon/invoicedesk/api/validators"
	"github.com/angelmondragon/invoicedesk/internal/receipts"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ReceiptArchive is the read side of the receipt printer.
type ReceiptArchive interface {
	Get(ctx context.Context, id uuid.UUID) (*receipts.Receipt, error)
	List(ctx context.Context, params receipts.ListParams) (*receipts.ListResult, error)
}

func ReceiptList(archive ReceiptArchive, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", receipts.DefaultPageSize, 1, receipts.MaxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := archive.List(r.Context(), receipts.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ReceiptGet returns one receipt as JSON, or as printable text with ?format=text.
func ReceiptGet(archive ReceiptArchive, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "receiptId")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid receipt id"))
			return
		}
		receipt, err := archive.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch format := strings.ToLower(r.URL.Query().Get("format")); format {
		case "", "json":
			responses.WriteSuccess(w, receipt)
		case "text":
			responses.WriteText(w, http.StatusOK, receipts.Render(*receipt))
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "format must be json or text").
				WithDetails(map[string]any{"format": format}))
		}
	}
}
