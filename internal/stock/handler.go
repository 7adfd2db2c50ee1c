package stock

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"gorm.io/gorm"
)

type Handler struct {
	db         *gorm.DB
	aggregator *Aggregator
}

func NewHandler(db *gorm.DB, aggregator *Aggregator) *Handler {
	return &Handler{db: db, aggregator: aggregator}
}

// GetStock returns the current available stock of an ingredient in base
// units.
func (h *Handler) GetStock(c *gin.Context) {
	storeID := c.GetString("store_id")
	ingredientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ingredient id"})
		return
	}

	var ing database.Ingredient
	if err := h.db.Where("id = ? AND store_id = ?", ingredientID, storeID).
		First(&ing).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ingredient not found"})
		return
	}

	total, err := h.aggregator.StockOf(c.Request.Context(), ingredientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"ingredient_id": ingredientID,
			"name":          ing.Name,
			"status":        ing.Status,
			"stock":         total,
		},
	})
}
