package batch

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/pkg/activitylog"
)

type Handler struct {
	service *Service
	audit   *activitylog.Logger
}

func NewHandler(service *Service, audit *activitylog.Logger) *Handler {
	return &Handler{service: service, audit: audit}
}

type createBatchRequest struct {
	IngredientID    string     `json:"ingredient_id" binding:"required"`
	Quantity        float64    `json:"quantity" binding:"required"`
	CostPerUnit     float64    `json:"cost_per_unit"`
	UnitID          string     `json:"unit_id" binding:"required"`
	ExpiryDate      *time.Time `json:"expiry_date"`
	SupplierName    string     `json:"supplier_name"`
	StorageLocation string     `json:"storage_location"`
}

// Create receives a new stock batch
func (h *Handler) Create(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	storeID, _ := uuid.Parse(c.GetString("store_id"))
	ingredientID, err := uuid.Parse(req.IngredientID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ingredient id"})
		return
	}
	unitID, err := uuid.Parse(req.UnitID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid unit id"})
		return
	}

	b, err := h.service.Create(c.Request.Context(), storeID, CreateInput{
		IngredientID:    ingredientID,
		Quantity:        req.Quantity,
		CostPerUnit:     req.CostPerUnit,
		UnitID:          unitID,
		ExpiryDate:      req.ExpiryDate,
		SupplierName:    req.SupplierName,
		StorageLocation: req.StorageLocation,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingRequiredField), errors.Is(err, ErrInvalidUnit):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrIngredientNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": b})
}

// ListByStore returns every batch of the store
func (h *Handler) ListByStore(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))

	batches, err := h.service.ListByStore(c.Request.Context(), storeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": batches})
}

// ListByIngredient returns one ingredient's batches
func (h *Handler) ListByIngredient(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))
	ingredientID, err := uuid.Parse(c.Param("ingredientId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ingredient id"})
		return
	}

	batches, err := h.service.ListByIngredient(c.Request.Context(), storeID, ingredientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": batches})
}

type updateBatchRequest struct {
	Quantity        *float64   `json:"quantity"`
	CostPerUnit     *float64   `json:"cost_per_unit"`
	ExpiryDate      *time.Time `json:"expiry_date"`
	SupplierName    *string    `json:"supplier_name"`
	StorageLocation *string    `json:"storage_location"`
}

// Update patches a batch (base-unit quantities)
func (h *Handler) Update(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch id"})
		return
	}

	var req updateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.service.Update(c.Request.Context(), storeID, id, UpdateInput{
		Quantity:        req.Quantity,
		CostPerUnit:     req.CostPerUnit,
		ExpiryDate:      req.ExpiryDate,
		SupplierName:    req.SupplierName,
		StorageLocation: req.StorageLocation,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBatchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, ErrMissingRequiredField):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": b, "message": "Update successfully"})
}

// Delete removes a batch
func (h *Handler) Delete(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), storeID, id); err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.audit.LogDelete(c, "ingredient_batch", id, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Batch deleted"})
}
