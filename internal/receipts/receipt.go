package receipts

import (
	"time"

	"github.com/angelmondragon/invoicedesk/internal/cart"
	"github.com/angelmondragon/invoicedesk/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one printed receipt row.
type Line struct {
	ItemID    int64           `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// Receipt is the printable record of a successful submission.
type Receipt struct {
	ID           uuid.UUID       `json:"id"`
	SubmissionID uuid.UUID       `json:"submission_id"`
	ClientID     int64           `json:"client_id"`
	ClientName   string          `json:"client_name,omitempty"`
	Terminal     string          `json:"terminal"`
	IssuedBy     int64           `json:"issued_by,omitempty"`
	IssuedAt     time.Time       `json:"issued_at"`
	Lines        []Line          `json:"lines"`
	Total        decimal.Decimal `json:"total"`
}

// Header carries everything about a receipt except its lines.
type Header struct {
	SubmissionID uuid.UUID
	ClientID     int64
	ClientName   string
	Terminal     string
	IssuedBy     int64
	IssuedAt     time.Time
}

// FromCart snapshots cart lines into a receipt. The lines are copied so later
// cart mutations never reach the receipt.
func FromCart(h Header, lines []cart.Line) Receipt {
	out := Receipt{
		ID:           uuid.New(),
		SubmissionID: h.SubmissionID,
		ClientID:     h.ClientID,
		ClientName:   h.ClientName,
		Terminal:     h.Terminal,
		IssuedBy:     h.IssuedBy,
		IssuedAt:     h.IssuedAt,
		Lines:        make([]Line, 0, len(lines)),
		Total:        cart.ComputeTotal(lines),
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, Line{
			ItemID:    l.ItemID,
			Name:      l.DisplayName,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Amount:    l.Subtotal(),
		})
	}
	return out
}

func toModel(r Receipt) *models.Receipt {
	m := &models.Receipt{
		ID:           r.ID,
		SubmissionID: r.SubmissionID,
		ClientID:     r.ClientID,
		ClientName:   r.ClientName,
		Terminal:     r.Terminal,
		IssuedBy:     r.IssuedBy,
		Total:        r.Total,
		IssuedAt:     r.IssuedAt.UTC(),
		Lines:        make([]models.ReceiptLine, 0, len(r.Lines)),
	}
	for i, l := range r.Lines {
		m.Lines = append(m.Lines, models.ReceiptLine{
			ID:        uuid.New(),
			ReceiptID: r.ID,
			Position:  i,
			ItemID:    l.ItemID,
			ItemName:  l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.Amount,
		})
	}
	return m
}

func fromModel(m *models.Receipt) Receipt {
	r := Receipt{
		ID:           m.ID,
		SubmissionID: m.SubmissionID,
		ClientID:     m.ClientID,
		ClientName:   m.ClientName,
		Terminal:     m.Terminal,
		IssuedBy:     m.IssuedBy,
		IssuedAt:     m.IssuedAt,
		Total:        m.Total,
		Lines:        make([]Line, 0, len(m.Lines)),
	}
	for _, l := range m.Lines {
		r.Lines = append(r.Lines, Line{
			ItemID:    l.ItemID,
			Name:      l.ItemName,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Amount:    l.LineTotal,
		})
	}
	return r
}
