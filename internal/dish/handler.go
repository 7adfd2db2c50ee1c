package dish

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/internal/cascade"
	"github.com/openfoodstore/inventory-backend/pkg/activitylog"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	db     *gorm.DB
	engine *cascade.Engine
	audit  *activitylog.Logger
	log    *zap.Logger
}

func NewHandler(db *gorm.DB, engine *cascade.Engine, audit *activitylog.Logger, log *zap.Logger) *Handler {
	return &Handler{db: db, engine: engine, audit: audit, log: log}
}

type IngredientRequirement struct {
	IngredientID string  `json:"ingredient_id" binding:"required"`
	Quantity     float64 `json:"quantity"`
}

type CreateDishInput struct {
	Name        string                  `json:"name" binding:"required"`
	Price       float64                 `json:"price" binding:"required"`
	Description string                  `json:"description"`
	Ingredients []IngredientRequirement `json:"ingredients"`
}

// Create adds a dish with its ingredient requirements, then derives its
// initial availability from stock.
func (h *Handler) Create(c *gin.Context) {
	var input CreateDishInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	storeID, _ := uuid.Parse(c.GetString("store_id"))

	links, ok := h.resolveRequirements(c, storeID, input.Ingredients)
	if !ok {
		return
	}

	dish := database.Dish{
		StoreID:     storeID,
		Name:        input.Name,
		Price:       input.Price,
		Description: input.Description,
		Status:      database.ConsumerAvailable,
		Ingredients: links,
	}

	if err := h.db.Create(&dish).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.recompute(c, dish.ID)
	h.db.Preload("Ingredients.Ingredient").First(&dish, dish.ID)
	c.JSON(http.StatusCreated, gin.H{"data": dish})
}

// List returns the store's dishes with their requirements
func (h *Handler) List(c *gin.Context) {
	storeID := c.GetString("store_id")

	var dishes []database.Dish
	if err := h.db.Where("store_id = ?", storeID).
		Preload("Ingredients.Ingredient").
		Order("name ASC").
		Find(&dishes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dishes})
}

// Get returns a single dish
func (h *Handler) Get(c *gin.Context) {
	storeID := c.GetString("store_id")
	id := c.Param("id")

	var dish database.Dish
	if err := h.db.Where("id = ? AND store_id = ?", id, storeID).
		Preload("Ingredients.Ingredient").
		First(&dish).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dish not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dish})
}

type UpdateDishInput struct {
	Name        string                   `json:"name"`
	Price       *float64                 `json:"price"`
	Description *string                  `json:"description"`
	Ingredients *[]IngredientRequirement `json:"ingredients"`
}

// Update modifies a dish; a supplied ingredients list replaces the existing
// requirements and the availability is re-derived.
func (h *Handler) Update(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))
	id := c.Param("id")

	var dish database.Dish
	if err := h.db.Where("id = ? AND store_id = ?", id, storeID).First(&dish).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dish not found"})
		return
	}

	var input UpdateDishInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name != "" {
		dish.Name = input.Name
	}
	if input.Price != nil {
		dish.Price = *input.Price
	}
	if input.Description != nil {
		dish.Description = *input.Description
	}

	var links []database.DishIngredient
	if input.Ingredients != nil {
		var ok bool
		links, ok = h.resolveRequirements(c, storeID, *input.Ingredients)
		if !ok {
			return
		}
	}

	tx := h.db.Begin()
	if err := tx.Save(&dish).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if input.Ingredients != nil {
		if err := tx.Where("dish_id = ?", dish.ID).Delete(&database.DishIngredient{}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		for i := range links {
			links[i].DishID = dish.ID
			if err := tx.Create(&links[i]).Error; err != nil {
				tx.Rollback()
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
	}
	tx.Commit()

	h.recompute(c, dish.ID)
	h.db.Preload("Ingredients.Ingredient").First(&dish, dish.ID)
	c.JSON(http.StatusOK, gin.H{"data": dish})
}

// Delete removes a dish and its requirement rows
func (h *Handler) Delete(c *gin.Context) {
	storeID := c.GetString("store_id")
	id := c.Param("id")

	var dish database.Dish
	if err := h.db.Where("id = ? AND store_id = ?", id, storeID).First(&dish).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dish not found"})
		return
	}

	tx := h.db.Begin()
	if err := tx.Where("dish_id = ?", dish.ID).Delete(&database.DishIngredient{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := tx.Delete(&dish).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	tx.Commit()

	h.audit.LogDelete(c, "dish", dish.ID, dish)
	c.JSON(http.StatusOK, gin.H{"message": "Dish deleted"})
}

type SetStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus is the manager override for the sticky INACTIVE state
func (h *Handler) SetStatus(c *gin.Context) {
	storeID := c.GetString("store_id")
	id := c.Param("id")

	var input SetStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Status != database.ConsumerInactive && input.Status != database.ConsumerAvailable {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be INACTIVE or AVAILABLE"})
		return
	}

	var dish database.Dish
	if err := h.db.Where("id = ? AND store_id = ?", id, storeID).First(&dish).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Dish not found"})
		return
	}

	oldStatus := dish.Status
	dish.Status = input.Status
	if err := h.db.Save(&dish).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if input.Status != database.ConsumerInactive {
		h.recompute(c, dish.ID)
		h.db.Where("id = ?", dish.ID).First(&dish)
	}

	h.audit.LogStatusOverride(c, "dish", dish.ID, oldStatus, dish.Status)
	c.JSON(http.StatusOK, gin.H{"data": dish})
}

func (h *Handler) resolveRequirements(c *gin.Context, storeID uuid.UUID, reqs []IngredientRequirement) ([]database.DishIngredient, bool) {
	links := make([]database.DishIngredient, 0, len(reqs))
	for _, r := range reqs {
		ingredientID, err := uuid.Parse(r.IngredientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ingredient id"})
			return nil, false
		}
		if r.Quantity < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ingredient quantity cannot be negative"})
			return nil, false
		}
		var ing database.Ingredient
		if err := h.db.Where("id = ? AND store_id = ?", ingredientID, storeID).
			First(&ing).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ingredient not found: " + r.IngredientID})
			return nil, false
		}
		links = append(links, database.DishIngredient{
			IngredientID: ingredientID,
			Quantity:     r.Quantity,
		})
	}
	return links, true
}

func (h *Handler) recompute(c *gin.Context, dishID uuid.UUID) {
	if err := h.engine.RecomputeDish(c.Request.Context(), dishID); err != nil {
		h.log.Error("dish recompute failed",
			zap.String("dish_id", dishID.String()),
			zap.Error(err))
	}
}
