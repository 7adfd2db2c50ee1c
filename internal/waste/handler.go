package waste

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/internal/batch"
	"github.com/openfoodstore/inventory-backend/internal/cascade"
	"github.com/openfoodstore/inventory-backend/pkg/activitylog"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	engine  *cascade.Engine
	audit   *activitylog.Logger
	log     *zap.Logger
}

func NewHandler(service *Service, engine *cascade.Engine, audit *activitylog.Logger, log *zap.Logger) *Handler {
	return &Handler{service: service, engine: engine, audit: audit, log: log}
}

type createWasteRequest struct {
	IngredientBatchID string  `json:"ingredient_batch_id" binding:"required"`
	Quantity          float64 `json:"quantity" binding:"required"`
	Reason            string  `json:"reason" binding:"required"`
	OtherReason       string  `json:"other_reason"`
}

// Create records a write-off, then runs the availability cascade for the
// affected ingredient. The ledger write already succeeded, so a cascade
// failure is logged instead of failing the request; the next reconciliation
// sweep repairs any drift.
func (h *Handler) Create(c *gin.Context) {
	var req createWasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	storeID, _ := uuid.Parse(c.GetString("store_id"))
	batchID, err := uuid.Parse(req.IngredientBatchID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid batch id"})
		return
	}

	var staffID *uuid.UUID
	if parsed, err := uuid.Parse(c.GetString("user_id")); err == nil {
		staffID = &parsed
	}

	w, ingredientID, err := h.service.Create(c.Request.Context(), storeID, CreateInput{
		IngredientBatchID: batchID,
		Quantity:          req.Quantity,
		Reason:            req.Reason,
		OtherReason:       req.OtherReason,
		StaffID:           staffID,
	})
	if err != nil {
		switch {
		case errors.Is(err, batch.ErrBatchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, ErrQuantityExceedsStock), errors.Is(err, ErrInvalidQuantity),
			errors.Is(err, ErrInvalidReason):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	h.notifyCascade(c, ingredientID)
	c.JSON(http.StatusCreated, gin.H{"data": w})
}

// List returns waste records with optional filters
func (h *Handler) List(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))

	filter := ListFilter{Reason: c.Query("reason")}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filter.To = &to
	}
	if staffID, err := uuid.Parse(c.Query("staff_id")); err == nil {
		filter.StaffID = &staffID
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	wastes, err := h.service.List(c.Request.Context(), storeID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": wastes})
}

// Get returns one waste record
func (h *Handler) Get(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid waste id"})
		return
	}

	w, err := h.service.Get(c.Request.Context(), storeID, id)
	if err != nil {
		if errors.Is(err, ErrWasteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": w})
}

// Delete reverses a write-off and cascades the restored stock
func (h *Handler) Delete(c *gin.Context) {
	storeID, _ := uuid.Parse(c.GetString("store_id"))
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid waste id"})
		return
	}

	ingredientID, err := h.service.Delete(c.Request.Context(), storeID, id)
	if err != nil {
		if errors.Is(err, ErrWasteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.notifyCascade(c, ingredientID)
	h.audit.LogDelete(c, "waste", id, nil)
	c.JSON(http.StatusOK, gin.H{"message": "Waste deleted and stock rolled back"})
}

func (h *Handler) notifyCascade(c *gin.Context, ingredientID uuid.UUID) {
	if ingredientID == uuid.Nil {
		return
	}
	if err := h.engine.OnIngredientChanged(c.Request.Context(), ingredientID); err != nil {
		h.log.Error("availability cascade failed",
			zap.String("ingredient_id", ingredientID.String()),
			zap.Error(err))
	}
}
