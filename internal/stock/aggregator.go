package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"gorm.io/gorm"
)

// Aggregator computes the current available stock of an ingredient from its
// active batches. Pure read; expired and finished batches never count.
type Aggregator struct {
	db *gorm.DB
}

func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// StockOf returns the sum of remaining quantity (base units) over the
// ingredient's active batches. Zero batches means zero stock.
func (a *Aggregator) StockOf(ctx context.Context, ingredientID uuid.UUID) (float64, error) {
	var total float64
	err := a.db.WithContext(ctx).
		Model(&database.IngredientBatch{}).
		Where("ingredient_id = ? AND status = ?", ingredientID, database.BatchActive).
		Select("COALESCE(SUM(remaining_quantity), 0)").
		Scan(&total).Error
	return total, err
}
