package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/openfoodstore/inventory-backend/internal/auth"
	"github.com/openfoodstore/inventory-backend/internal/batch"
	"github.com/openfoodstore/inventory-backend/internal/cascade"
	"github.com/openfoodstore/inventory-backend/internal/dish"
	"github.com/openfoodstore/inventory-backend/internal/ingredient"
	"github.com/openfoodstore/inventory-backend/internal/reports"
	"github.com/openfoodstore/inventory-backend/internal/stock"
	storehandler "github.com/openfoodstore/inventory-backend/internal/store"
	"github.com/openfoodstore/inventory-backend/internal/sweeper"
	"github.com/openfoodstore/inventory-backend/internal/topping"
	"github.com/openfoodstore/inventory-backend/internal/unit"
	"github.com/openfoodstore/inventory-backend/internal/waste"
	"github.com/openfoodstore/inventory-backend/pkg/activitylog"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"github.com/openfoodstore/inventory-backend/pkg/email"
	"github.com/openfoodstore/inventory-backend/pkg/middleware"
	"go.uber.org/zap"
)

func main() {
	godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Connect()
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("database connected and migrated")

	aggregator := stock.NewAggregator(db)
	engine := cascade.NewEngine(db, aggregator, log)
	audit := activitylog.NewLogger(db)
	mailer := email.NewService()

	batchService := batch.NewService(db, engine, log)
	wasteService := waste.NewService(db)

	sw := sweeper.New(db, engine, aggregator, mailer, log)
	scheduler := sweeper.NewScheduler(sw, log)
	scheduler.Start(context.Background())

	authHandler := auth.NewHandler(db)
	storeHandler := storehandler.NewHandler(db)
	unitHandler := unit.NewHandler(db)
	categoryHandler := ingredient.NewCategoryHandler(db)
	ingredientHandler := ingredient.NewHandler(db, engine, audit, log)
	batchHandler := batch.NewHandler(batchService, audit)
	wasteHandler := waste.NewHandler(wasteService, engine, audit, log)
	stockHandler := stock.NewHandler(db, aggregator)
	dishHandler := dish.NewHandler(db, engine, audit, log)
	toppingHandler := topping.NewHandler(db, engine, audit, log)
	reportsHandler := reports.NewHandler(db)
	sweepHandler := sweeper.NewHandler(sw)

	app := gin.Default()
	app.Use(middleware.CORS())

	api := app.Group("/api/v1")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", authHandler.GetMe)

			protected.GET("/store", storeHandler.Get)
			protected.PUT("/store", storeHandler.Update)

			protected.GET("/units", unitHandler.List)
			protected.GET("/units/:id", unitHandler.Get)
			protected.POST("/units", middleware.RequireRole(database.RoleOwner), unitHandler.Create)
			protected.PUT("/units/:id", middleware.RequireRole(database.RoleOwner), unitHandler.Update)
			protected.DELETE("/units/:id", middleware.RequireRole(database.RoleOwner), unitHandler.Deactivate)

			protected.GET("/ingredient-categories", categoryHandler.List)
			protected.POST("/ingredient-categories", categoryHandler.Create)

			protected.GET("/ingredients", ingredientHandler.List)
			protected.GET("/ingredients/active", ingredientHandler.ListActive)
			protected.GET("/ingredients/category/:categoryId", ingredientHandler.ListByCategory)
			protected.GET("/ingredients/:id", ingredientHandler.Get)
			protected.POST("/ingredients", ingredientHandler.Create)
			protected.PUT("/ingredients/:id", ingredientHandler.Update)
			protected.DELETE("/ingredients/:id", middleware.RequireRole(database.RoleOwner), ingredientHandler.Delete)
			protected.PATCH("/ingredients/:id/status", middleware.RequireRole(database.RoleOwner), ingredientHandler.SetStatus)
			protected.GET("/ingredients/:id/stock", stockHandler.GetStock)

			protected.GET("/batches", batchHandler.ListByStore)
			protected.GET("/batches/ingredient/:ingredientId", batchHandler.ListByIngredient)
			protected.POST("/batches", batchHandler.Create)
			protected.PUT("/batches/:id", batchHandler.Update)
			protected.DELETE("/batches/:id", middleware.RequireRole(database.RoleOwner), batchHandler.Delete)

			protected.GET("/waste", wasteHandler.List)
			protected.GET("/waste/:id", wasteHandler.Get)
			protected.POST("/waste", wasteHandler.Create)
			protected.DELETE("/waste/:id", middleware.RequireRole(database.RoleOwner), wasteHandler.Delete)

			protected.GET("/dishes", dishHandler.List)
			protected.GET("/dishes/:id", dishHandler.Get)
			protected.POST("/dishes", dishHandler.Create)
			protected.PUT("/dishes/:id", dishHandler.Update)
			protected.DELETE("/dishes/:id", middleware.RequireRole(database.RoleOwner), dishHandler.Delete)
			protected.PATCH("/dishes/:id/status", middleware.RequireRole(database.RoleOwner), dishHandler.SetStatus)

			protected.GET("/toppings", toppingHandler.List)
			protected.GET("/toppings/:id", toppingHandler.Get)
			protected.POST("/toppings", toppingHandler.Create)
			protected.PUT("/toppings/:id", toppingHandler.Update)
			protected.DELETE("/toppings/:id", middleware.RequireRole(database.RoleOwner), toppingHandler.Delete)
			protected.PATCH("/toppings/:id/status", middleware.RequireRole(database.RoleOwner), toppingHandler.SetStatus)

			protected.GET("/reports/waste", reportsHandler.GetWasteReport)
			protected.GET("/reports/waste/export", reportsHandler.ExportWaste)
			protected.GET("/reports/stock", reportsHandler.GetStockReport)

			protected.POST("/sweep/run", middleware.RequireRole(database.RoleOwner), sweepHandler.RunNow)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info("server starting", zap.String("port", port))
	if err := app.Run(":" + port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
