package waste

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/internal/batch"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"gorm.io/gorm"
)

var (
	ErrWasteNotFound        = errors.New("waste record not found")
	ErrQuantityExceedsStock = errors.New("quantity exceeds remaining stock")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrInvalidReason        = errors.New("invalid waste reason")
)

// Service is the waste ledger: stock write-offs against a batch, reversible
// by deletion. The ledger never triggers the availability cascade itself;
// callers invoke it after a successful write so bulk operations can defer
// the cascade to one pass.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	IngredientBatchID uuid.UUID
	Quantity          float64
	Reason            string
	OtherReason       string
	StaffID           *uuid.UUID
}

// Create writes off stock from a batch atomically. Returns the waste record
// and the affected ingredient id for the caller's cascade. Nothing is
// mutated when the quantity exceeds the batch's remaining stock.
func (s *Service) Create(ctx context.Context, storeID uuid.UUID, in CreateInput) (*database.Waste, uuid.UUID, error) {
	if !validReason(in.Reason) {
		return nil, uuid.Nil, ErrInvalidReason
	}
	if in.Quantity <= 0 {
		return nil, uuid.Nil, ErrInvalidQuantity
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, uuid.Nil, tx.Error
	}

	var b database.IngredientBatch
	err := tx.Where("id = ? AND store_id = ?", in.IngredientBatchID, storeID).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return nil, uuid.Nil, batch.ErrBatchNotFound
	}
	if err != nil {
		tx.Rollback()
		return nil, uuid.Nil, err
	}

	if in.Quantity > b.RemainingQuantity {
		tx.Rollback()
		return nil, uuid.Nil, ErrQuantityExceedsStock
	}

	b.RemainingQuantity -= in.Quantity
	if b.RemainingQuantity == 0 && b.Status == database.BatchActive {
		b.Status = database.BatchFinished
	}
	if err := tx.Save(&b).Error; err != nil {
		tx.Rollback()
		return nil, uuid.Nil, err
	}

	w := database.Waste{
		StoreID:           storeID,
		IngredientBatchID: b.ID,
		Quantity:          in.Quantity,
		Reason:            in.Reason,
		OtherReason:       in.OtherReason,
		StaffID:           in.StaffID,
		Date:              time.Now(),
	}
	if err := tx.Create(&w).Error; err != nil {
		tx.Rollback()
		return nil, uuid.Nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, uuid.Nil, err
	}
	return &w, b.IngredientID, nil
}

// Delete reverses a write-off: the batch's remaining quantity is restored
// exactly and the waste record removed. A finished batch whose stock becomes
// positive again returns to active; an expired batch stays expired. Returns
// the affected ingredient id (uuid.Nil when the batch no longer exists).
func (s *Service) Delete(ctx context.Context, storeID, id uuid.UUID) (uuid.UUID, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return uuid.Nil, tx.Error
	}

	var w database.Waste
	err := tx.Where("id = ? AND store_id = ?", id, storeID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return uuid.Nil, ErrWasteNotFound
	}
	if err != nil {
		tx.Rollback()
		return uuid.Nil, err
	}

	ingredientID := uuid.Nil
	var b database.IngredientBatch
	err = tx.Where("id = ?", w.IngredientBatchID).First(&b).Error
	if err == nil {
		b.RemainingQuantity += w.Quantity
		if b.RemainingQuantity > b.Quantity {
			b.RemainingQuantity = b.Quantity
		}
		if b.Status == database.BatchFinished && b.RemainingQuantity > 0 {
			b.Status = database.BatchActive
		}
		if err := tx.Save(&b).Error; err != nil {
			tx.Rollback()
			return uuid.Nil, err
		}
		ingredientID = b.IngredientID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		tx.Rollback()
		return uuid.Nil, err
	}

	if err := tx.Delete(&w).Error; err != nil {
		tx.Rollback()
		return uuid.Nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return uuid.Nil, err
	}
	return ingredientID, nil
}

// Get loads one waste record with its batch and ingredient
func (s *Service) Get(ctx context.Context, storeID, id uuid.UUID) (*database.Waste, error) {
	var w database.Waste
	err := s.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		Preload("IngredientBatch").
		Preload("IngredientBatch.Ingredient").
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWasteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

type ListFilter struct {
	From    *time.Time
	To      *time.Time
	Reason  string
	StaffID *uuid.UUID
	Page    int
	Limit   int
}

// List returns waste records with optional date/reason/staff filters and
// page/limit pagination.
func (s *Service) List(ctx context.Context, storeID uuid.UUID, f ListFilter) ([]database.Waste, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}

	q := s.db.WithContext(ctx).Where("store_id = ?", storeID)
	if f.From != nil {
		q = q.Where("date >= ?", f.From)
	}
	if f.To != nil {
		q = q.Where("date <= ?", f.To)
	}
	if f.Reason != "" {
		q = q.Where("reason = ?", f.Reason)
	}
	if f.StaffID != nil {
		q = q.Where("staff_id = ?", f.StaffID)
	}

	var wastes []database.Waste
	err := q.
		Preload("IngredientBatch").
		Preload("IngredientBatch.Ingredient").
		Order("date DESC").
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&wastes).Error
	return wastes, err
}

func validReason(reason string) bool {
	switch reason {
	case database.WasteReasonExpired, database.WasteReasonSpoiled,
		database.WasteReasonDamaged, database.WasteReasonOther:
		return true
	}
	return false
}
