package batch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/internal/cascade"
	"github.com/openfoodstore/inventory-backend/internal/stock"
	"github.com/openfoodstore/inventory-backend/internal/testutil"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(db *gorm.DB) *Service {
	engine := cascade.NewEngine(db, stock.NewAggregator(db), zap.NewNop())
	return NewService(db, engine, zap.NewNop())
}

func TestCreateNormalizesToBaseUnit(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	_, g := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, g.ID, "flour")
	svc := newService(db)

	// 5000 g at 0.05 per g, normalized to 5 kg at 50 per kg
	b, err := svc.Create(context.Background(), store.ID, CreateInput{
		IngredientID: flour.ID,
		Quantity:     5000,
		CostPerUnit:  0.05,
		UnitID:       g.ID,
		SupplierName: "Mill Co",
	})
	require.NoError(t, err)

	assert.InDelta(t, 5.0, b.Quantity, 1e-9)
	assert.InDelta(t, 5.0, b.RemainingQuantity, 1e-9)
	assert.InDelta(t, 50.0, b.CostPerUnit, 1e-9)
	assert.InDelta(t, 250.0, b.TotalCost, 1e-9)
	assert.Equal(t, database.BatchActive, b.Status)
	assert.NotEmpty(t, b.BatchCode)
	assert.Equal(t, "Mill Co", b.SupplierName)

	// the receipt cascades to the ingredient
	var ing database.Ingredient
	require.NoError(t, db.First(&ing, "id = ?", flour.ID).Error)
	assert.Equal(t, database.IngredientActive, ing.Status)
}

func TestCreateValidation(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	svc := newService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, store.ID, CreateInput{
		IngredientID: flour.ID,
		Quantity:     0,
		UnitID:       kg.ID,
	})
	assert.ErrorIs(t, err, ErrMissingRequiredField)

	_, err = svc.Create(ctx, store.ID, CreateInput{
		IngredientID: uuid.New(),
		Quantity:     1,
		UnitID:       kg.ID,
	})
	assert.ErrorIs(t, err, ErrIngredientNotFound)

	_, err = svc.Create(ctx, store.ID, CreateInput{
		IngredientID: flour.ID,
		Quantity:     1,
		UnitID:       uuid.New(),
	})
	assert.ErrorIs(t, err, ErrInvalidUnit)

	// inactive units are not accepted for receipts
	require.NoError(t, db.Model(&database.Unit{}).
		Where("id = ?", kg.ID).Update("is_active", false).Error)
	_, err = svc.Create(ctx, store.ID, CreateInput{
		IngredientID: flour.ID,
		Quantity:     1,
		UnitID:       kg.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidUnit)
}

func TestUpdateClampsRemainingAndRecomputesCost(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	svc := newService(db)
	ctx := context.Background()

	b, err := svc.Create(ctx, store.ID, CreateInput{
		IngredientID: flour.ID,
		Quantity:     10,
		CostPerUnit:  2,
		UnitID:       kg.ID,
	})
	require.NoError(t, err)

	q := 4.0
	updated, err := svc.Update(ctx, store.ID, b.ID, UpdateInput{Quantity: &q})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, updated.Quantity, 1e-9)
	assert.InDelta(t, 4.0, updated.RemainingQuantity, 1e-9)
	assert.InDelta(t, 8.0, updated.TotalCost, 1e-9)

	_, err = svc.Update(ctx, store.ID, uuid.New(), UpdateInput{Quantity: &q})
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestDeleteCascades(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	svc := newService(db)
	ctx := context.Background()

	b, err := svc.Create(ctx, store.ID, CreateInput{
		IngredientID: flour.ID,
		Quantity:     3,
		CostPerUnit:  1,
		UnitID:       kg.ID,
	})
	require.NoError(t, err)

	var ing database.Ingredient
	require.NoError(t, db.First(&ing, "id = ?", flour.ID).Error)
	require.Equal(t, database.IngredientActive, ing.Status)

	require.NoError(t, svc.Delete(ctx, store.ID, b.ID))

	require.NoError(t, db.First(&ing, "id = ?", flour.ID).Error)
	assert.Equal(t, database.IngredientOutOfStock, ing.Status)
}

func TestListScopedByStore(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	other := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	svc := newService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, store.ID, CreateInput{
		IngredientID: flour.ID,
		Quantity:     1,
		CostPerUnit:  1,
		UnitID:       kg.ID,
		ExpiryDate:   timePtr(time.Now().Add(48 * time.Hour)),
	})
	require.NoError(t, err)

	mine, err := svc.ListByStore(ctx, store.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.ListByStore(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	byIng, err := svc.ListByIngredient(ctx, store.ID, flour.ID)
	require.NoError(t, err)
	assert.Len(t, byIng, 1)
}

func timePtr(t time.Time) *time.Time { return &t }
