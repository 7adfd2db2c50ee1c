package unit

import (
	"context"
	"testing"

	"github.com/openfoodstore/inventory-backend/internal/testutil"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestCreateBaseUnit(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	svc := NewService(db)

	u, err := svc.Create(context.Background(), store.ID, CreateInput{
		Name: " KG ",
		Type: database.UnitTypeWeight,
	})
	require.NoError(t, err)
	assert.Equal(t, "kg", u.Name)
	assert.Nil(t, u.BaseUnitName)
	assert.Equal(t, 1.0, u.Ratio)
	assert.True(t, u.IsActive)
}

func TestCreateDerivedUnit(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, store.ID, CreateInput{Name: "kg", Type: database.UnitTypeWeight})
	require.NoError(t, err)

	g, err := svc.Create(ctx, store.ID, CreateInput{
		Name:         "g",
		Type:         database.UnitTypeWeight,
		BaseUnitName: strPtr("kg"),
		Ratio:        0.001,
	})
	require.NoError(t, err)
	require.NotNil(t, g.BaseUnitName)
	assert.Equal(t, "kg", *g.BaseUnitName)
	assert.Equal(t, 0.001, g.Ratio)
}

func TestCreateValidation(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, store.ID, CreateInput{Name: "kg", Type: database.UnitTypeWeight})
	require.NoError(t, err)
	_, err = svc.Create(ctx, store.ID, CreateInput{Name: "l", Type: database.UnitTypeVolume})
	require.NoError(t, err)

	// duplicate name within the store
	_, err = svc.Create(ctx, store.ID, CreateInput{Name: "kg", Type: database.UnitTypeWeight})
	assert.ErrorIs(t, err, ErrDuplicateUnit)

	// a (store, type) pair gets exactly one base unit
	_, err = svc.Create(ctx, store.ID, CreateInput{Name: "lb", Type: database.UnitTypeWeight})
	assert.ErrorIs(t, err, ErrBaseUnitAlreadyExists)

	// base unit of a different type
	_, err = svc.Create(ctx, store.ID, CreateInput{
		Name:         "g",
		Type:         database.UnitTypeWeight,
		BaseUnitName: strPtr("l"),
		Ratio:        0.001,
	})
	assert.ErrorIs(t, err, ErrTypeMismatch)

	// unknown base unit
	_, err = svc.Create(ctx, store.ID, CreateInput{
		Name:         "oz",
		Type:         database.UnitTypeWeight,
		BaseUnitName: strPtr("stone"),
		Ratio:        0.028,
	})
	assert.ErrorIs(t, err, ErrBaseUnitNotFound)

	// non-positive ratio
	_, err = svc.Create(ctx, store.ID, CreateInput{
		Name:         "g",
		Type:         database.UnitTypeWeight,
		BaseUnitName: strPtr("kg"),
		Ratio:        0,
	})
	assert.ErrorIs(t, err, ErrInvalidRatio)

	_, err = svc.Create(ctx, store.ID, CreateInput{Name: "each", Type: "bogus"})
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestDeactivateRefusedWhileReferenced(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	svc := NewService(db)

	err := svc.Deactivate(context.Background(), store.ID, kg.ID)
	assert.ErrorIs(t, err, ErrUnitInUse)
}

func TestConversion(t *testing.T) {
	base := "kg"
	g := &database.Unit{Name: "g", Type: database.UnitTypeWeight, BaseUnitName: &base, Ratio: 0.001}

	// 5000 g at 0.05 per g is 5 kg at 50 per kg
	assert.InDelta(t, 5.0, ConvertToBase(5000, g), 1e-9)
	assert.InDelta(t, 50.0, ConvertCostToBase(0.05, g), 1e-9)

	// cost is conserved across the conversion
	assert.InDelta(t, 5000*0.05, ConvertToBase(5000, g)*ConvertCostToBase(0.05, g), 1e-9)

	kg := &database.Unit{Name: "kg", Type: database.UnitTypeWeight, Ratio: 1}
	assert.InDelta(t, 7.5, ConvertToBase(7.5, kg), 1e-9)
	assert.InDelta(t, 12.0, ConvertCostToBase(12, kg), 1e-9)
}
