package database

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the Postgres connection from DATABASE_URL
func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=inventory port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Migrate runs auto-migration for all models
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Store{},
		&User{},
		&Unit{},
		&IngredientCategory{},
		&Ingredient{},
		&IngredientBatch{},
		&Waste{},
		&Dish{},
		&DishIngredient{},
		&Topping{},
		&ToppingIngredient{},
		&ActivityLog{},
	)
}
