package topping

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

type CreateToppingInput struct {
	Name        string                  `json:"name" binding:"required"`
	Price       float64                 `json:"price"`
	Ingredients []IngredientRequirement `json:"ingredients"`
}

// Create adds a topping and derives its initial availability
func (h *Handler) Create(c *gin.Context) {
	var input CreateToppingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	storeID, _ := uuid.Parse(c.GetString("store_id"))

	links, ok := h.resolveRequirements(c, storeID, input.Ingredients)
	if !ok {
		return
	}

	topping := database.Topping{
		StoreID:     storeID,
		Name:        input.Name,
		Price:       input.Price,
		Status:      database.ConsumerAvailable,
		Ingredients: links,
	}

	if err := h.db.Create(&topping).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.recompute(c, topping.ID)
	h.db.Preload("Ingredients.Ingredient").First(&topping, topping.ID)
	c.JSON(http.StatusCreated, gin.H{"data": topping})
}

// List returns the store's toppings
func (h *Handler) List(c *gin.Context) {
	storeID := c.GetString("store_id")

	var toppings []database.Topping
	if err := h.db.Where("store_id = ?", storeID).
		Preload("Ingredients.Ingredient").
		Order("name ASC").
		Find(&toppings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toppings})
}

// Get returns a single topping
func (h *Handler) Get(c *gin.Context) {
	storeID := c.GetString("store_id")
	id := c.Param("id")

	var topping database.Topping
	if err := h.db.Where("id = ? AND store_id = ?", id, storeID).
		Preload("Ingredients.Ingredient").
		First(&topping).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topping not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": topping})
}

type UpdateToppingInput struct {
	Name        string                   `json:"name"`
	Price       *float64                 `json:"price"`
	Ingredients *[]IngredientRequirement `json:"ingredients"`
}

// Update modifies a topping; a supplied ingredients list replaces the
// existing requirements.
func (h *Handler) Update(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))
	id := c.Param("id")

	var topping database.Topping
	if err := h.db.Where("id = ? AND store_id = ?", id, storeID).First(&topping).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topping not found"})
		return
	}

	var input UpdateToppingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name != "" {
		topping.Name = input.Name
	}
	if input.Price != nil {
		topping.Price = *input.Price
	}

	var links []database.ToppingIngredient
	if input.Ingredients != nil {
		var ok bool
		links, ok = h.resolveRequirements(c, storeID, *input.Ingredients)
		if !ok {
			return
		}
	}

	tx := h.db.Begin()
	if err := tx.Save(&topping).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if input.Ingredients != nil {
		if err := tx.Where("topping_id = ?", topping.ID).Delete(&database.ToppingIngredient{}).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		for i := range links {
			links[i].ToppingID = topping.ID
			if err := tx.Create(&links[i]).Error; err != nil {
				tx.Rollback()
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
		}
	}
	tx.Commit()

	h.recompute(c, topping.ID)
	h.db.Preload("Ingredients.Ingredient").First(&topping, topping.ID)
	c.JSON(http.StatusOK, gin.H{"data": topping})
}

// Delete removes a topping and its requirement rows
func (h *Handler) Delete(c *gin.Context) {
	storeID := c.GetString("store_id")
	id := c.Param("id")

	var topping database.Topping
	if err := h.db.Where("id = ? AND store_id = ?", id, storeID).First(&topping).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topping not found"})
		return
	}

	tx := h.db.Begin()
	if err := tx.Where("topping_id = ?", topping.ID).Delete(&database.ToppingIngredient{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := tx.Delete(&topping).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	tx.Commit()

	h.audit.LogDelete(c, "topping", topping.ID, topping)
	c.JSON(http.StatusOK, gin.H{"message": "Topping deleted"})
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

	var topping database.Topping
	if err := h.db.Where("id = ? AND store_id = ?", id, storeID).First(&topping).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Topping not found"})
		return
	}

	oldStatus := topping.Status
	topping.Status = input.Status
	if err := h.db.Save(&topping).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if input.Status != database.ConsumerInactive {
		h.recompute(c, topping.ID)
		h.db.Where("id = ?", topping.ID).First(&topping)
	}

	h.audit.LogStatusOverride(c, "topping", topping.ID, oldStatus, topping.Status)
	c.JSON(http.StatusOK, gin.H{"data": topping})
}

func (h *Handler) resolveRequirements(c *gin.Context, storeID uuid.UUID, reqs []IngredientRequirement) ([]database.ToppingIngredient, bool) {
	links := make([]database.ToppingIngredient, 0, len(reqs))
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
		links = append(links, database.ToppingIngredient{
			IngredientID: ingredientID,
			Quantity:     r.Quantity,
		})
	}
	return links, true
}

func (h *Handler) recompute(c *gin.Context, toppingID uuid.UUID) {
	if err := h.engine.RecomputeTopping(c.Request.Context(), toppingID); err != nil {
		h.log.Error("topping recompute failed",
			zap.String("topping_id", toppingID.String()),
			zap.Error(err))
	}
}
