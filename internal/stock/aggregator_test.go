package stock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/internal/testutil"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedBatch(t *testing.T, db *gorm.DB, storeID, ingredientID, unitID uuid.UUID, remaining float64, status string) {
	t.Helper()
	b := database.IngredientBatch{
		StoreID:           storeID,
		IngredientID:      ingredientID,
		BatchCode:         "B-" + uuid.NewString(),
		InputUnitID:       unitID,
		Quantity:          remaining,
		RemainingQuantity: remaining,
		Status:            status,
		ReceivedDate:      time.Now(),
	}
	require.NoError(t, db.Create(&b).Error)
}

func TestStockOfSumsActiveBatchesOnly(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	ing := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")

	seedBatch(t, db, store.ID, ing.ID, kg.ID, 5, database.BatchActive)
	seedBatch(t, db, store.ID, ing.ID, kg.ID, 2, database.BatchActive)
	seedBatch(t, db, store.ID, ing.ID, kg.ID, 9, database.BatchExpired)
	seedBatch(t, db, store.ID, ing.ID, kg.ID, 0, database.BatchFinished)

	total, err := NewAggregator(db).StockOf(context.Background(), ing.ID)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, total, 1e-9)
}

func TestStockOfNoBatches(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	ing := testutil.SeedIngredient(t, db, store.ID, kg.ID, "salt")

	total, err := NewAggregator(db).StockOf(context.Background(), ing.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}
