package ingredient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/internal/cascade"
	"github.com/openfoodstore/inventory-backend/internal/stock"
	"github.com/openfoodstore/inventory-backend/internal/testutil"
	"github.com/openfoodstore/inventory-backend/pkg/activitylog"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newRouter(db *gorm.DB, storeID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	app := gin.New()
	app.Use(func(c *gin.Context) {
		c.Set("store_id", storeID.String())
	})
	engine := cascade.NewEngine(db, stock.NewAggregator(db), zap.NewNop())
	h := NewHandler(db, engine, activitylog.NewLogger(db), zap.NewNop())
	app.PUT("/ingredients/:id", h.Update)
	return app
}

func TestUpdateRenameKeepsReorderLevel(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	ing := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")
	require.NoError(t, db.Model(&ing).Updates(map[string]interface{}{
		"description":   "plain white flour",
		"reorder_level": 3.5,
	}).Error)

	app := newRouter(db, store.ID)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/ingredients/"+ing.ID.String(),
		strings.NewReader(`{"name":"bread flour"}`))
	req.Header.Set("Content-Type", "application/json")
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got database.Ingredient
	require.NoError(t, db.First(&got, "id = ?", ing.ID).Error)
	assert.Equal(t, "bread flour", got.Name)
	assert.Equal(t, "plain white flour", got.Description)
	assert.InDelta(t, 3.5, got.ReorderLevel, 1e-9)
}

func TestUpdatePatchesSuppliedFields(t *testing.T) {
	db := testutil.OpenDB(t)
	store := testutil.SeedStore(t, db)
	kg, _ := testutil.SeedUnitPair(t, db, store.ID)
	ing := testutil.SeedIngredient(t, db, store.ID, kg.ID, "flour")

	app := newRouter(db, store.ID)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/ingredients/"+ing.ID.String(),
		strings.NewReader(`{"reorder_level":10,"description":""}`))
	req.Header.Set("Content-Type", "application/json")
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got database.Ingredient
	require.NoError(t, db.First(&got, "id = ?", ing.ID).Error)
	assert.Equal(t, "flour", got.Name)
	assert.Equal(t, "", got.Description)
	assert.InDelta(t, 10.0, got.ReorderLevel, 1e-9)
}
