package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/internal/cascade"
	"github.com/openfoodstore/inventory-backend/internal/unit"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrBatchNotFound        = errors.New("batch not found")
	ErrIngredientNotFound   = errors.New("ingredient not found")
	ErrInvalidUnit          = errors.New("invalid unit")
	ErrMissingRequiredField = errors.New("missing or invalid required field")
)

// Service is the batch ledger: creation, update and quantity bookkeeping of
// ingredient batches, normalized to base units.
type Service struct {
	db     *gorm.DB
	engine *cascade.Engine
	log    *zap.Logger
}

func NewService(db *gorm.DB, engine *cascade.Engine, log *zap.Logger) *Service {
	return &Service{db: db, engine: engine, log: log}
}

type CreateInput struct {
	IngredientID    uuid.UUID
	Quantity        float64
	CostPerUnit     float64
	UnitID          uuid.UUID
	ExpiryDate      *time.Time
	SupplierName    string
	StorageLocation string
}

// Create receives stock. The quantity and per-unit cost are normalized to
// the unit type's base unit; total cost keeps the nominal amount paid.
// Triggers the availability cascade for the affected ingredient; a cascade
// failure never fails the request, the reconciliation sweep repairs it.
func (s *Service) Create(ctx context.Context, storeID uuid.UUID, in CreateInput) (*database.IngredientBatch, error) {
	if in.IngredientID == uuid.Nil || in.UnitID == uuid.Nil || in.Quantity <= 0 || in.CostPerUnit < 0 {
		return nil, ErrMissingRequiredField
	}

	var ing database.Ingredient
	err := s.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", in.IngredientID, storeID).
		First(&ing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrIngredientNotFound
	}
	if err != nil {
		return nil, err
	}

	var u database.Unit
	err = s.db.WithContext(ctx).
		Where("id = ? AND store_id = ? AND is_active = ?", in.UnitID, storeID, true).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidUnit
	}
	if err != nil {
		return nil, err
	}

	quantityBase := unit.ConvertToBase(in.Quantity, &u)
	costPerUnitBase := unit.ConvertCostToBase(in.CostPerUnit, &u)

	b := database.IngredientBatch{
		StoreID:           storeID,
		IngredientID:      in.IngredientID,
		BatchCode:         newBatchCode(),
		InputUnitID:       u.ID,
		Quantity:          quantityBase,
		RemainingQuantity: quantityBase,
		CostPerUnit:       costPerUnitBase,
		TotalCost:         in.Quantity * in.CostPerUnit,
		ReceivedDate:      time.Now(),
		ExpiryDate:        in.ExpiryDate,
		Status:            database.BatchActive,
		SupplierName:      in.SupplierName,
		StorageLocation:   in.StorageLocation,
	}

	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		return nil, err
	}

	s.notifyCascade(ctx, b.IngredientID)
	return &b, nil
}

type UpdateInput struct {
	Quantity        *float64
	CostPerUnit     *float64
	ExpiryDate      *time.Time
	SupplierName    *string
	StorageLocation *string
}

// Update patches a batch. Quantity and cost are in base units here (admin
// corrections); total cost is recomputed from the resolved values on every
// update to keep the derived field consistent. Remaining quantity is clamped
// when the quantity is edited below it. Triggers the cascade.
func (s *Service) Update(ctx context.Context, storeID, id uuid.UUID, in UpdateInput) (*database.IngredientBatch, error) {
	b, err := s.get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}

	if in.Quantity != nil {
		if *in.Quantity <= 0 {
			return nil, ErrMissingRequiredField
		}
		b.Quantity = *in.Quantity
		if b.RemainingQuantity > b.Quantity {
			b.RemainingQuantity = b.Quantity
		}
	}
	if in.CostPerUnit != nil {
		if *in.CostPerUnit < 0 {
			return nil, ErrMissingRequiredField
		}
		b.CostPerUnit = *in.CostPerUnit
	}
	if in.ExpiryDate != nil {
		b.ExpiryDate = in.ExpiryDate
	}
	if in.SupplierName != nil {
		b.SupplierName = *in.SupplierName
	}
	if in.StorageLocation != nil {
		b.StorageLocation = *in.StorageLocation
	}

	b.TotalCost = b.Quantity * b.CostPerUnit

	if err := s.db.WithContext(ctx).Save(b).Error; err != nil {
		return nil, err
	}

	s.notifyCascade(ctx, b.IngredientID)
	return b, nil
}

// Delete removes a batch and cascades, so dependent statuses do not go
// stale until the next reconciliation sweep.
func (s *Service) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	b, err := s.get(ctx, storeID, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(b).Error; err != nil {
		return err
	}

	s.notifyCascade(ctx, b.IngredientID)
	return nil
}

// ListByIngredient returns the ingredient's batches, newest first
func (s *Service) ListByIngredient(ctx context.Context, storeID, ingredientID uuid.UUID) ([]database.IngredientBatch, error) {
	var batches []database.IngredientBatch
	err := s.db.WithContext(ctx).
		Where("store_id = ? AND ingredient_id = ?", storeID, ingredientID).
		Preload("Ingredient").
		Order("received_date DESC").
		Find(&batches).Error
	return batches, err
}

// ListByStore returns every batch of a store, newest first
func (s *Service) ListByStore(ctx context.Context, storeID uuid.UUID) ([]database.IngredientBatch, error) {
	var batches []database.IngredientBatch
	err := s.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Preload("Ingredient").
		Order("received_date DESC").
		Find(&batches).Error
	return batches, err
}

func (s *Service) get(ctx context.Context, storeID, id uuid.UUID) (*database.IngredientBatch, error) {
	var b database.IngredientBatch
	err := s.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Service) notifyCascade(ctx context.Context, ingredientID uuid.UUID) {
	if err := s.engine.OnIngredientChanged(ctx, ingredientID); err != nil {
		s.log.Error("availability cascade failed",
			zap.String("ingredient_id", ingredientID.String()),
			zap.Error(err))
	}
}

const batchCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newBatchCode() string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = batchCodeCharset[rand.Intn(len(batchCodeCharset))]
	}
	return fmt.Sprintf("BATCH-%d-%s", time.Now().UnixMilli(), suffix)
}
