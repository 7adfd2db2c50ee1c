package unit

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"gorm.io/gorm"
)

var (
	ErrUnitNotFound          = errors.New("unit not found")
	ErrDuplicateUnit         = errors.New("unit already exists")
	ErrBaseUnitNotFound      = errors.New("base unit not found")
	ErrBaseUnitAlreadyExists = errors.New("base unit already registered for this type")
	ErrTypeMismatch          = errors.New("unit type does not match base unit type")
	ErrInvalidRatio          = errors.New("ratio must be greater than zero")
	ErrInvalidType           = errors.New("unit type must be weight, volume or count")
	ErrUnitInUse             = errors.New("unit is referenced by ingredients or batches")
)

// Service is the per-store unit registry with conversion arithmetic
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type CreateInput struct {
	Name         string
	Type         string
	BaseUnitName *string
	Ratio        float64
}

// Create registers a unit. Omitting BaseUnitName makes this unit the base
// unit of its (store, type) pair; there can only be one.
func (s *Service) Create(ctx context.Context, storeID uuid.UUID, in CreateInput) (*database.Unit, error) {
	name := strings.ToLower(strings.TrimSpace(in.Name))
	if !validType(in.Type) {
		return nil, ErrInvalidType
	}

	var existing database.Unit
	err := s.db.WithContext(ctx).
		Where("store_id = ? AND name = ?", storeID, name).
		First(&existing).Error
	if err == nil {
		return nil, ErrDuplicateUnit
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	u := database.Unit{
		StoreID:  storeID,
		Name:     name,
		Type:     in.Type,
		Ratio:    1,
		IsActive: true,
	}

	if in.BaseUnitName == nil {
		var base database.Unit
		err := s.db.WithContext(ctx).
			Where("store_id = ? AND type = ? AND base_unit_name IS NULL", storeID, in.Type).
			First(&base).Error
		if err == nil {
			return nil, ErrBaseUnitAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	} else {
		baseName := strings.ToLower(strings.TrimSpace(*in.BaseUnitName))
		var base database.Unit
		err := s.db.WithContext(ctx).
			Where("store_id = ? AND name = ? AND base_unit_name IS NULL", storeID, baseName).
			First(&base).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBaseUnitNotFound
		}
		if err != nil {
			return nil, err
		}
		if base.Type != in.Type {
			return nil, ErrTypeMismatch
		}
		if in.Ratio <= 0 {
			return nil, ErrInvalidRatio
		}
		u.BaseUnitName = &baseName
		u.Ratio = in.Ratio
	}

	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Get loads one unit scoped by store
func (s *Service) Get(ctx context.Context, storeID, id uuid.UUID) (*database.Unit, error) {
	var u database.Unit
	err := s.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnitNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all units for a store
func (s *Service) List(ctx context.Context, storeID uuid.UUID) ([]database.Unit, error) {
	var units []database.Unit
	err := s.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("type ASC, name ASC").
		Find(&units).Error
	return units, err
}

type UpdateInput struct {
	Name     *string
	IsActive *bool
}

// Update renames or toggles a unit. Type and conversion ratio are immutable
// once batches may have been normalized with them.
func (s *Service) Update(ctx context.Context, storeID, id uuid.UUID, in UpdateInput) (*database.Unit, error) {
	u, err := s.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.ToLower(strings.TrimSpace(*in.Name))
		if name != u.Name {
			var dup database.Unit
			err := s.db.WithContext(ctx).
				Where("store_id = ? AND name = ?", storeID, name).
				First(&dup).Error
			if err == nil {
				return nil, ErrDuplicateUnit
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			u.Name = name
		}
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// Deactivate soft-deletes a unit. Refused while anything references it.
func (s *Service) Deactivate(ctx context.Context, storeID, id uuid.UUID) error {
	u, err := s.Get(ctx, storeID, id)
	if err != nil {
		return err
	}

	var refs int64
	if err := s.db.WithContext(ctx).Model(&database.Ingredient{}).
		Where("unit_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs == 0 {
		if err := s.db.WithContext(ctx).Model(&database.IngredientBatch{}).
			Where("input_unit_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
	}
	if refs > 0 {
		return ErrUnitInUse
	}

	u.IsActive = false
	return s.db.WithContext(ctx).Save(u).Error
}

// ConvertToBase converts a quantity expressed in the given unit into the
// type's base unit.
func ConvertToBase(quantity float64, u *database.Unit) float64 {
	return quantity * u.Ratio
}

// ConvertCostToBase converts a per-unit cost into a per-base-unit cost.
func ConvertCostToBase(costPerUnit float64, u *database.Unit) float64 {
	return costPerUnit / u.Ratio
}

func validType(t string) bool {
	switch t {
	case database.UnitTypeWeight, database.UnitTypeVolume, database.UnitTypeCount:
		return true
	}
	return false
}
