package waste

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/internal/batch"
	"github.com/openfoodstore/inventory-backend/internal/testutil"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedBatch(t *testing.T, db *gorm.DB, storeID, ingredientID, unitID uuid.UUID, remaining float64) database.IngredientBatch {
	t.Helper()
	b := database.IngredientBatch{
		StoreID:           storeID,
		IngredientID:      ingredientID,
		BatchCode:         "B-" + uuid.NewString(),
		InputUnitID:       unitID,
		Quantity:          remaining,
		RemainingQuantity: remaining,
		CostPerUnit:       1,
		Status:            database.BatchActive,
		ReceivedDate:      time.Now(),
	}
	require.NoError(t, db.Create(&b).Error)
	return b
}

func reloadBatch(t *testing.T, db *gorm.DB, id uuid.UUID) database.IngredientBatch {
	t.Helper()
	var b database.IngredientBatch
	require.NoError(t, db.First(&b, "id = ?", id).Error)
	return b
}

func TestCreateDecrementsBatch(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	b := seedBatch(t, db, store.ID, flour.ID, kg.ID, 5)
	svc := NewService(db)

	w, ingredientID, err := svc.Create(context.Background(), store.ID, CreateInput{
		IngredientBatchID: b.ID,
		Quantity:          2,
		Reason:            database.WasteReasonSpoiled,
	})
	require.NoError(t, err)
	assert.Equal(t, flour.ID, ingredientID)
	assert.Equal(t, 2.0, w.Quantity)

	got := reloadBatch(t, db, b.ID)
	assert.InDelta(t, 3.0, got.RemainingQuantity, 1e-9)
	assert.Equal(t, database.BatchActive, got.Status)
}

func TestCreateFinishesDrainedBatch(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	b := seedBatch(t, db, store.ID, flour.ID, kg.ID, 5)
	svc := NewService(db)

	_, _, err := svc.Create(context.Background(), store.ID, CreateInput{
		IngredientBatchID: b.ID,
		Quantity:          5,
		Reason:            database.WasteReasonDamaged,
	})
	require.NoError(t, err)

	got := reloadBatch(t, db, b.ID)
	assert.Equal(t, 0.0, got.RemainingQuantity)
	assert.Equal(t, database.BatchFinished, got.Status)
}

func TestCreateRejectsExcessWithoutMutation(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	b := seedBatch(t, db, store.ID, flour.ID, kg.ID, 5)
	svc := NewService(db)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, store.ID, CreateInput{
		IngredientBatchID: b.ID,
		Quantity:          6,
		Reason:            database.WasteReasonSpoiled,
	})
	assert.ErrorIs(t, err, ErrQuantityExceedsStock)

	got := reloadBatch(t, db, b.ID)
	assert.InDelta(t, 5.0, got.RemainingQuantity, 1e-9)

	var count int64
	require.NoError(t, db.Model(&database.Waste{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateValidation(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	b := seedBatch(t, db, store.ID, flour.ID, kg.ID, 5)
	svc := NewService(db)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, store.ID, CreateInput{
		IngredientBatchID: b.ID,
		Quantity:          1,
		Reason:            "misplaced",
	})
	assert.ErrorIs(t, err, ErrInvalidReason)

	_, _, err = svc.Create(ctx, store.ID, CreateInput{
		IngredientBatchID: b.ID,
		Quantity:          0,
		Reason:            database.WasteReasonOther,
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, _, err = svc.Create(ctx, store.ID, CreateInput{
		IngredientBatchID: uuid.New(),
		Quantity:          1,
		Reason:            database.WasteReasonOther,
	})
	assert.ErrorIs(t, err, batch.ErrBatchNotFound)
}

func TestDeleteRestoresStock(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	b := seedBatch(t, db, store.ID, flour.ID, kg.ID, 5)
	svc := NewService(db)
	ctx := context.Background()

	w, _, err := svc.Create(ctx, store.ID, CreateInput{
		IngredientBatchID: b.ID,
		Quantity:          5,
		Reason:            database.WasteReasonSpoiled,
	})
	require.NoError(t, err)
	require.Equal(t, database.BatchFinished, reloadBatch(t, db, b.ID).Status)

	ingredientID, err := svc.Delete(ctx, store.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, flour.ID, ingredientID)

	// exact restoration, and a drained batch comes back to life
	got := reloadBatch(t, db, b.ID)
	assert.InDelta(t, 5.0, got.RemainingQuantity, 1e-9)
	assert.Equal(t, database.BatchActive, got.Status)

	_, err = svc.Delete(ctx, store.ID, w.ID)
	assert.ErrorIs(t, err, ErrWasteNotFound)
}

func TestDeleteKeepsExpiredBatchExpired(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	b := seedBatch(t, db, store.ID, flour.ID, kg.ID, 5)
	svc := NewService(db)
	ctx := context.Background()

	w, _, err := svc.Create(ctx, store.ID, CreateInput{
		IngredientBatchID: b.ID,
		Quantity:          2,
		Reason:            database.WasteReasonSpoiled,
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&database.IngredientBatch{}).
		Where("id = ?", b.ID).
		Update("status", database.BatchExpired).Error)

	_, err = svc.Delete(ctx, store.ID, w.ID)
	require.NoError(t, err)

	got := reloadBatch(t, db, b.ID)
	assert.InDelta(t, 5.0, got.RemainingQuantity, 1e-9)
	assert.Equal(t, database.BatchExpired, got.Status)
}

func TestListFilters(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	b := seedBatch(t, db, store.ID, flour.ID, kg.ID, 100)
	svc := NewService(db)
	ctx := context.Background()

	for _, reason := range []string{
		database.WasteReasonSpoiled,
		database.WasteReasonSpoiled,
		database.WasteReasonDamaged,
	} {
		_, _, err := svc.Create(ctx, store.ID, CreateInput{
			IngredientBatchID: b.ID,
			Quantity:          1,
			Reason:            reason,
		})
		require.NoError(t, err)
	}

	spoiled, err := svc.List(ctx, store.ID, ListFilter{Reason: database.WasteReasonSpoiled})
	require.NoError(t, err)
	assert.Len(t, spoiled, 2)

	all, err := svc.List(ctx, store.ID, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	paged, err := svc.List(ctx, store.ID, ListFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestListHonorsOneSidedDateRange(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	b := seedBatch(t, db, store.ID, flour.ID, kg.ID, 10)
	svc := NewService(db)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, store.ID, CreateInput{
		IngredientBatchID: b.ID,
		Quantity:          1,
		Reason:            database.WasteReasonSpoiled,
	})
	require.NoError(t, err)

	anHourAgo := time.Now().Add(-time.Hour)

	fromOnly, err := svc.List(ctx, store.ID, ListFilter{From: &anHourAgo})
	require.NoError(t, err)
	assert.Len(t, fromOnly, 1)

	toOnly, err := svc.List(ctx, store.ID, ListFilter{To: &anHourAgo})
	require.NoError(t, err)
	assert.Empty(t, toOnly)
}
