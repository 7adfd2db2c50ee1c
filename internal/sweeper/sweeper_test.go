package sweeper

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

func newSweeper(db *gorm.DB, now time.Time) *Sweeper {
	agg := stock.NewAggregator(db)
	engine := cascade.NewEngine(db, agg, zap.NewNop())
	return New(db, engine, agg, nil, zap.NewNop()).
		WithClock(func() time.Time { return now })
}

func seedBatch(t *testing.T, db *gorm.DB, storeID, ingredientID, unitID uuid.UUID, remaining float64, expiry *time.Time) database.IngredientBatch {
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
		ExpiryDate:        expiry,
	}
	require.NoError(t, db.Create(&b).Error)
	return b
}

func TestExpirePassMovesBatchIntoWaste(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	milk := testutil.SeedIngredient(t, db, store.ID, kg.ID, "milk")

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	nextWeek := now.Add(7 * 24 * time.Hour)

	stale := seedBatch(t, db, store.ID, milk.ID, kg.ID, 4, &yesterday)
	fresh := seedBatch(t, db, store.ID, milk.ID, kg.ID, 6, &nextWeek)

	sw := newSweeper(db, now)
	sw.Run(context.Background())

	var gotStale database.IngredientBatch
	require.NoError(t, db.First(&gotStale, "id = ?", stale.ID).Error)
	assert.Equal(t, database.BatchExpired, gotStale.Status)
	assert.Equal(t, 0.0, gotStale.RemainingQuantity)

	var gotFresh database.IngredientBatch
	require.NoError(t, db.First(&gotFresh, "id = ?", fresh.ID).Error)
	assert.Equal(t, database.BatchActive, gotFresh.Status)
	assert.InDelta(t, 6.0, gotFresh.RemainingQuantity, 1e-9)

	var wastes []database.Waste
	require.NoError(t, db.Find(&wastes).Error)
	require.Len(t, wastes, 1)
	assert.Equal(t, stale.ID, wastes[0].IngredientBatchID)
	assert.Equal(t, database.WasteReasonExpired, wastes[0].Reason)
	assert.InDelta(t, 4.0, wastes[0].Quantity, 1e-9)

	// the fresh batch keeps the ingredient in stock
	var ing database.Ingredient
	require.NoError(t, db.First(&ing, "id = ?", milk.ID).Error)
	assert.Equal(t, database.IngredientActive, ing.Status)
}

func TestExpirePassIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	milk := testutil.SeedIngredient(t, db, store.ID, kg.ID, "milk")

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	seedBatch(t, db, store.ID, milk.ID, kg.ID, 4, &yesterday)

	sw := newSweeper(db, now)
	sw.Run(context.Background())
	sw.Run(context.Background())

	var count int64
	require.NoError(t, db.Model(&database.Waste{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var ing database.Ingredient
	require.NoError(t, db.First(&ing, "id = ?", milk.ID).Error)
	assert.Equal(t, database.IngredientOutOfStock, ing.Status)
}

func TestReconcilePassRepairsDrift(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	seedBatch(t, db, store.ID, flour.ID, kg.ID, 10, nil)

	d := database.Dish{StoreID: store.ID, Name: "bread", Price: 4, Status: database.ConsumerOutOfStock}
	require.NoError(t, db.Create(&d).Error)
	require.NoError(t, db.Create(&database.DishIngredient{DishID: d.ID, IngredientID: flour.ID, Quantity: 2}).Error)

	// simulate a missed cascade: stock exists but the statuses say otherwise
	require.NoError(t, db.Model(&database.Ingredient{}).
		Where("id = ?", flour.ID).
		Update("status", database.IngredientOutOfStock).Error)

	sw := newSweeper(db, time.Now())
	sw.Run(context.Background())

	var ing database.Ingredient
	require.NoError(t, db.First(&ing, "id = ?", flour.ID).Error)
	assert.Equal(t, database.IngredientActive, ing.Status)

	var gotDish database.Dish
	require.NoError(t, db.First(&gotDish, "id = ?", d.ID).Error)
	assert.Equal(t, database.ConsumerAvailable, gotDish.Status)
}

func TestReconcilePassKeepsInactiveSticky(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	flour := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	seedBatch(t, db, store.ID, flour.ID, kg.ID, 10, nil)

	require.NoError(t, db.Model(&database.Ingredient{}).
		Where("id = ?", flour.ID).
		Update("status", database.IngredientInactive).Error)

	sw := newSweeper(db, time.Now())
	sw.Run(context.Background())

	var ing database.Ingredient
	require.NoError(t, db.First(&ing, "id = ?", flour.ID).Error)
	assert.Equal(t, database.IngredientInactive, ing.Status)
}

func TestReconcilePassCursorSpansRuns(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		testutil.SeedIngredient(t, db, store.ID, kg.ID, name)
	}

	sw := newSweeper(db, time.Now())
	sw.pageSize = 2
	sw.reconcileBudget = 2

	ctx := context.Background()
	sw.Run(ctx)
	require.True(t, sw.cursorSet)
	first := sw.cursor

	sw.Run(ctx)
	require.True(t, sw.cursorSet)
	assert.NotEqual(t, first, sw.cursor)

	// the next run drains the catalog and resets the cursor for a new cycle
	sw.Run(ctx)
	assert.False(t, sw.cursorSet)
}
