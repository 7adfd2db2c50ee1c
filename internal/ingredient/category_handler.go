package ingredient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"gorm.io/gorm"
)

type CategoryHandler struct {
	db *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{db: db}
}

type CreateCategoryInput struct {
	Name string `json:"name" binding:"required"`
}

// Create adds an ingredient category
func (h *CategoryHandler) Create(c *gin.Context) {
	var input CreateCategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	storeID, _ := uuid.Parse(c.GetString("store_id"))

	cat := database.IngredientCategory{StoreID: storeID, Name: input.Name}
	if err := h.db.Create(&cat).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": cat})
}

// List returns the store's ingredient categories
func (h *CategoryHandler) List(c *gin.Context) {
	storeID := c.GetString("store_id")

	var categories []database.IngredientCategory
	if err := h.db.Where("store_id = ?", storeID).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": categories})
}
