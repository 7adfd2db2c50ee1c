package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a migrated in-memory database for a single test
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// a single connection keeps every session on the same in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// SeedStore creates a store with an owner account
func SeedStore(t *testing.T, db *gorm.DB) database.Store {
	t.Helper()

	store := database.Store{Name: "Test Store", Email: "owner@example.com"}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("seed store: %v", err)
	}
	owner := database.User{
		StoreID:  store.ID,
		Name:     "Owner",
		Email:    uuid.NewString() + "@example.com",
		Password: "x",
		Role:     database.RoleOwner,
	}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}
	return store
}

// SeedUnitPair creates a weight base unit (kg) plus a derived unit (g) for
// the store and returns them in that order.
func SeedUnitPair(t *testing.T, db *gorm.DB, storeID uuid.UUID) (database.Unit, database.Unit) {
	t.Helper()

	kg := database.Unit{
		StoreID:  storeID,
		Name:     "kg",
		Type:     database.UnitTypeWeight,
		Ratio:    1,
		IsActive: true,
	}
	if err := db.Create(&kg).Error; err != nil {
		t.Fatalf("seed base unit: %v", err)
	}

	base := kg.Name
	g := database.Unit{
		StoreID:      storeID,
		Name:         "g",
		Type:         database.UnitTypeWeight,
		BaseUnitName: &base,
		Ratio:        0.001,
		IsActive:     true,
	}
	if err := db.Create(&g).Error; err != nil {
		t.Fatalf("seed derived unit: %v", err)
	}
	return kg, g
}

// SeedIngredient creates a category and an ingredient measured in the given
// unit.
func SeedIngredient(t *testing.T, db *gorm.DB, storeID, unitID uuid.UUID, name string) database.Ingredient {
	t.Helper()

	cat := database.IngredientCategory{StoreID: storeID, Name: "General"}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	ing := database.Ingredient{
		StoreID:    storeID,
		Name:       name,
		UnitID:     unitID,
		CategoryID: cat.ID,
		Status:     database.IngredientOutOfStock,
	}
	if err := db.Create(&ing).Error; err != nil {
		t.Fatalf("seed ingredient: %v", err)
	}
	return ing
}
