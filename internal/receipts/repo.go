package receipts

import (
	"context"

	"github.com/angelmondragon/invoicedesk/internal/repo"
	"github.com/angelmondragon/invoicedesk/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists archived receipts.
type Repository interface {
	Create(ctx context.Context, receipt *models.Receipt) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error)
	ListRecent(ctx context.Context, limit int, cursor *PageCursor) ([]models.Receipt, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a receipts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

// Create inserts the receipt and its lines in one transaction.
func (r *repository) Create(ctx context.Context, receipt *models.Receipt) error {
	return r.InTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(receipt).Error
	})
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Receipt, error) {
	var receipt models.Receipt
	found, err := repo.FindOne(r.DB(ctx).Preload("Lines", orderLines).Where("id = ?", id), &receipt)
	if err != nil || !found {
		return nil, err
	}
	return &receipt, nil
}

// ListRecent returns receipts newest first, starting after cursor when given.
func (r *repository) ListRecent(ctx context.Context, limit int, cursor *PageCursor) ([]models.Receipt, error) {
	query := r.DB(ctx).
		Preload("Lines", orderLines).
		Order("issued_at DESC").
		Order("id DESC").
		Limit(limit)
	if cursor != nil {
		query = query.Where("(issued_at < ?) OR (issued_at = ? AND id < ?)", cursor.IssuedAt, cursor.IssuedAt, cursor.ID)
	}
	var out []models.Receipt
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func orderLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
