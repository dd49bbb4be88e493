package receipts

import (
	"context"
	"fmt"

	"github.com/angelmondragon/invoicedesk/pkg/db"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
	"github.com/google/uuid"
)

// ListResult is one page of archived receipts.
type ListResult struct {
	Receipts   []Receipt `json:"receipts"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// Archive is the receipt printer: printing a receipt stores it so it can be
// fetched and rendered later.
type Archive struct {
	repo Repository
	logg *logger.Logger
}

func NewArchive(repo Repository, logg *logger.Logger) (*Archive, error) {
	if repo == nil {
		return nil, fmt.Errorf("receipts repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Archive{repo: repo, logg: logg}, nil
}

// Print archives the receipt. Printing the same submission twice is a no-op.
func (a *Archive) Print(ctx context.Context, receipt Receipt) error {
	if len(receipt.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "receipt has no lines")
	}
	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}
	ctx = a.logg.WithFields(ctx, map[string]any{
		"receipt_id":    receipt.ID.String(),
		"submission_id": receipt.SubmissionID.String(),
	})

	if err := a.repo.Create(ctx, toModel(receipt)); err != nil {
		if db.IsUniqueViolation(err, "") {
			a.logg.Warn(ctx, "receipt.print.duplicate")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "archive receipt")
	}
	a.logg.Info(ctx, "receipt.printed")
	return nil
}

func (a *Archive) Get(ctx context.Context, id uuid.UUID) (*Receipt, error) {
	m, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load receipt")
	}
	if m == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
	}
	r := fromModel(m)
	return &r, nil
}

// List pages through archived receipts newest first.
func (a *Archive) List(ctx context.Context, params ListParams) (*ListResult, error) {
	cursor, err := parseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	size := params.pageSize()
	// One extra row tells whether another page follows.
	rows, err := a.repo.ListRecent(ctx, size+1, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list receipts")
	}

	result := &ListResult{Receipts: make([]Receipt, 0, len(rows))}
	if len(rows) > size {
		last := rows[size-1]
		result.NextCursor = PageCursor{IssuedAt: last.IssuedAt, ID: last.ID}.Token()
		rows = rows[:size]
	}
	for i := range rows {
		result.Receipts = append(result.Receipts, fromModel(&rows[i]))
	}
	return result, nil
}
