package ingredient

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

type CreateIngredientInput struct {
	Name         string  `json:"name" binding:"required"`
	UnitID       string  `json:"unit_id" binding:"required"`
	CategoryID   string  `json:"category_id" binding:"required"`
	Description  string  `json:"description"`
	ReorderLevel float64 `json:"reorder_level"`
}

// Create adds a new ingredient. A fresh ingredient has no batches, so its
// derived status starts OUT_OF_STOCK.
func (h *Handler) Create(c *gin.Context) {
	var input CreateIngredientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	storeID, _ := uuid.Parse(c.GetString("store_id"))
	unitID, err := uuid.Parse(input.UnitID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid unit id"})
		return
	}
	categoryID, err := uuid.Parse(input.CategoryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
		return
	}

	var u database.Unit
	if err := h.db.Where("id = ? AND store_id = ? AND is_active = ?", unitID, storeID, true).
		First(&u).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unit not found"})
		return
	}
	var cat database.IngredientCategory
	if err := h.db.Where("id = ? AND store_id = ?", categoryID, storeID).
		First(&cat).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
		return
	}

	ing := database.Ingredient{
		StoreID:      storeID,
		Name:         input.Name,
		UnitID:       unitID,
		CategoryID:   categoryID,
		Description:  input.Description,
		ReorderLevel: input.ReorderLevel,
		Status:       database.IngredientOutOfStock,
	}

	if err := h.db.Create(&ing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": ing})
}

// List returns all ingredients for the store
func (h *Handler) List(c *gin.Context) {
	storeID := c.GetString("store_id")

	var ingredients []database.Ingredient
	if err := h.db.Where("store_id = ?", storeID).
		Preload("Unit").
		Preload("Category").
		Order("name ASC").
		Find(&ingredients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ingredients})
}

// ListActive returns only ACTIVE ingredients
func (h *Handler) ListActive(c *gin.Context) {
	storeID := c.GetString("store_id")

	var ingredients []database.Ingredient
	if err := h.db.Where("store_id = ? AND status = ?", storeID, database.IngredientActive).
		Preload("Unit").
		Preload("Category").
		Order("name ASC").
		Find(&ingredients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ingredients})
}

// ListByCategory returns the store's ingredients in one category
func (h *Handler) ListByCategory(c *gin.Context) {
	storeID := c.GetString("store_id")
	categoryID := c.Param("categoryId")

	var ingredients []database.Ingredient
	if err := h.db.Where("store_id = ? AND category_id = ?", storeID, categoryID).
		Preload("Unit").
		Order("name ASC").
		Find(&ingredients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ingredients})
}

// Get returns a single ingredient
func (h *Handler) Get(c *gin.Context) {
	storeID := c.GetString("store_id")
	id := c.Param("id")

	var ing database.Ingredient
	if err := h.db.Where("id = ? AND store_id = ?", id, storeID).
		Preload("Unit").
		Preload("Category").
		First(&ing).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingredient not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ing})
}

type UpdateIngredientInput struct {
	Name         string   `json:"name"`
	UnitID       string   `json:"unit_id"`
	CategoryID   string   `json:"category_id"`
	Description  *string  `json:"description"`
	ReorderLevel *float64 `json:"reorder_level"`
}

// Update modifies an ingredient's descriptive fields. Status is not
// touchable here; the cascade engine owns it and the manager override has
// its own endpoint.
func (h *Handler) Update(c *gin.Context) {
	storeID := c.GetString("store_id")
	id := c.Param("id")

	var ing database.Ingredient
	if err := h.db.Where("id = ? AND store_id = ?", id, storeID).First(&ing).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingredient not found"})
		return
	}

	var input UpdateIngredientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name != "" {
		ing.Name = input.Name
	}
	if input.UnitID != "" {
		unitID, err := uuid.Parse(input.UnitID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid unit id"})
			return
		}
		ing.UnitID = unitID
	}
	if input.CategoryID != "" {
		categoryID, err := uuid.Parse(input.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
			return
		}
		ing.CategoryID = categoryID
	}
	if input.Description != nil {
		ing.Description = *input.Description
	}
	if input.ReorderLevel != nil {
		ing.ReorderLevel = *input.ReorderLevel
	}

	if err := h.db.Save(&ing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ing})
}

// Delete removes an ingredient; refused while batches or menu items
// reference it.
func (h *Handler) Delete(c *gin.Context) {
	storeID := c.GetString("store_id")
	id := c.Param("id")

	var ing database.Ingredient
	if err := h.db.Where("id = ? AND store_id = ?", id, storeID).First(&ing).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingredient not found"})
		return
	}

	var refs int64
	h.db.Model(&database.IngredientBatch{}).Where("ingredient_id = ?", ing.ID).Count(&refs)
	if refs == 0 {
		h.db.Model(&database.DishIngredient{}).Where("ingredient_id = ?", ing.ID).Count(&refs)
	}
	if refs == 0 {
		h.db.Model(&database.ToppingIngredient{}).Where("ingredient_id = ?", ing.ID).Count(&refs)
	}
	if refs > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Ingredient is referenced by batches or menu items"})
		return
	}

	if err := h.db.Delete(&ing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.audit.LogDelete(c, "ingredient", ing.ID, ing)
	c.JSON(http.StatusOK, gin.H{"message": "Ingredient deleted"})
}

type SetStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus is the manager override. Setting INACTIVE parks the ingredient
// in the sticky state the cascade never touches; clearing it hands the
// status back to the engine, which immediately re-derives it from stock.
func (h *Handler) SetStatus(c *gin.Context) {
	storeID := c.GetString("store_id")
	id := c.Param("id")

	var input SetStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Status != database.IngredientInactive && input.Status != database.IngredientActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be INACTIVE or ACTIVE"})
		return
	}

	var ing database.Ingredient
	if err := h.db.Where("id = ? AND store_id = ?", id, storeID).First(&ing).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingredient not found"})
		return
	}

	oldStatus := ing.Status
	ing.Status = input.Status
	if err := h.db.Save(&ing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if input.Status != database.IngredientInactive {
		// back under automatic control; derive the real status now
		if err := h.engine.OnIngredientChanged(c.Request.Context(), ing.ID); err != nil {
			h.log.Error("cascade after status override failed",
				zap.String("ingredient_id", ing.ID.String()),
				zap.Error(err))
		}
		h.db.Where("id = ?", ing.ID).First(&ing)
	}

	h.audit.LogStatusOverride(c, "ingredient", ing.ID, oldStatus, ing.Status)
	c.JSON(http.StatusOK, gin.H{"data": ing})
}
