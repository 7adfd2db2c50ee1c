package unit

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Handler struct {
	service *Service
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{service: NewService(db)}
}

type createUnitRequest struct {
	Name         string  `json:"name" binding:"required"`
	Type         string  `json:"type" binding:"required"`
	BaseUnitName *string `json:"base_unit_name"`
	Ratio        float64 `json:"ratio"`
}

// Create registers a new unit for the store
func (h *Handler) Create(c *gin.Context) {
	var req createUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	storeID, _ := uuid.Parse(c.GetString("store_id"))

	u, err := h.service.Create(c.Request.Context(), storeID, CreateInput{
		Name:         req.Name,
		Type:         req.Type,
		BaseUnitName: req.BaseUnitName,
		Ratio:        req.Ratio,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateUnit), errors.Is(err, ErrBaseUnitAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, ErrBaseUnitNotFound), errors.Is(err, ErrTypeMismatch),
			errors.Is(err, ErrInvalidRatio), errors.Is(err, ErrInvalidType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": u})
}

// List returns all units for the store
func (h *Handler) List(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))

	units, err := h.service.List(c.Request.Context(), storeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": units})
}

// Get returns a single unit
func (h *Handler) Get(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid unit id"})
		return
	}

	u, err := h.service.Get(c.Request.Context(), storeID, id)
	if err != nil {
		if errors.Is(err, ErrUnitNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": u})
}

type updateUnitRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

// Update renames or toggles a unit
func (h *Handler) Update(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid unit id"})
		return
	}

	var req updateUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := h.service.Update(c.Request.Context(), storeID, id, UpdateInput{
		Name:     req.Name,
		IsActive: req.IsActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUnitNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, ErrDuplicateUnit):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": u})
}

// Deactivate soft-deletes a unit (refused while referenced)
func (h *Handler) Deactivate(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid unit id"})
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), storeID, id); err != nil {
		switch {
		case errors.Is(err, ErrUnitNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, ErrUnitInUse):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Unit deactivated"})
}
