package store

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// Get returns the caller's store profile
func (h *Handler) Get(c *gin.Context) {
	storeID := c.GetString("store_id")

	var store database.Store
	if err := h.db.Where("id = ?", storeID).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": store})
}

type UpdateInput struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   string  `json:"email"`
}

// Update modifies the store profile
func (h *Handler) Update(c *gin.Context) {
	storeID := c.GetString("store_id")

	var store database.Store
	if err := h.db.Where("id = ?", storeID).First(&store).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Store not found"})
		return
	}

	var input UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name != "" {
		store.Name = input.Name
	}
	if input.Address != nil {
		store.Address = *input.Address
	}
	if input.Phone != nil {
		store.Phone = *input.Phone
	}
	if input.Email != "" {
		store.Email = input.Email
	}

	if err := h.db.Save(&store).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": store})
}
