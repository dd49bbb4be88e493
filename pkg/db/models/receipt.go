package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt archives one successfully submitted invoice as it was printed.
type Receipt struct {
	ID           uuid.UUID       `gorm:"column:id;type:varchar(36);primaryKey"`
	SubmissionID uuid.UUID       `gorm:"column:submission_id;type:varchar(36);not null;uniqueIndex:idx_receipts_submission_id"`
	ClientID     int64           `gorm:"column:client_id;not null"`
	ClientName   string          `gorm:"column:client_name;not null;default:''"`
	Terminal     string          `gorm:"column:terminal;not null"`
	IssuedBy     int64           `gorm:"column:issued_by;not null;default:0"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(14,2);not null"`
	IssuedAt     time.Time       `gorm:"column:issued_at;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	Lines        []ReceiptLine   `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE"`
}

// ReceiptLine is one printed row of a Receipt, ordered by Position.
type ReceiptLine struct {
	ID        uuid.UUID       `gorm:"column:id;type:varchar(36);primaryKey"`
	ReceiptID uuid.UUID       `gorm:"column:receipt_id;type:varchar(36);not null"`
	Position  int             `gorm:"column:position;not null"`
	ItemID    int64           `gorm:"column:item_id;not null"`
	ItemName  string          `gorm:"column:item_name;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:numeric(14,2);not null"`
}
