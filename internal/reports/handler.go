package reports

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

type wasteReportRow struct {
	Key           string  `json:"key"`
	TotalQuantity float64 `json:"total_quantity"`
	Count         int64   `json:"count"`
}

// GetWasteReport returns write-off totals grouped by reason (default) or
// staff, optionally limited to a date range.
func (h *Handler) GetWasteReport(c *gin.Context) {
	storeID := c.GetString("store_id")

	groupBy := c.DefaultQuery("group_by", "reason")
	var column string
	switch groupBy {
	case "reason":
		column = "reason"
	case "staff":
		column = "staff_id"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_by must be reason or staff"})
		return
	}

	q := h.db.Model(&database.Waste{}).Where("store_id = ?", storeID)
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		q = q.Where("date >= ?", from)
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		q = q.Where("date <= ?", to)
	}

	var rows []wasteReportRow
	if err := q.
		Select(column + " as key, SUM(quantity) as total_quantity, COUNT(*) as count").
		Group(column).
		Order("total_quantity DESC").
		Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// ExportWaste streams the store's waste records as an XLSX workbook
func (h *Handler) ExportWaste(c *gin.Context) {
	storeID := c.GetString("store_id")

	var wastes []database.Waste
	if err := h.db.Where("store_id = ?", storeID).
		Preload("IngredientBatch").
		Preload("IngredientBatch.Ingredient").
		Preload("Staff").
		Order("date DESC").
		Find(&wastes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Waste"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Ingredient", "Batch Code", "Quantity", "Reason", "Other Reason", "Staff"}
	for i, head := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, head)
	}

	for i, w := range wastes {
		row := i + 2
		ingredientName := ""
		batchCode := ""
		if w.IngredientBatch != nil {
			batchCode = w.IngredientBatch.BatchCode
			if w.IngredientBatch.Ingredient != nil {
				ingredientName = w.IngredientBatch.Ingredient.Name
			}
		}
		staffName := ""
		if w.Staff != nil {
			staffName = w.Staff.Name
		}

		values := []interface{}{
			w.Date.Format("2006-01-02 15:04"),
			ingredientName,
			batchCode,
			w.Quantity,
			w.Reason,
			w.OtherReason,
			staffName,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	fileName := fmt.Sprintf("waste-report-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write workbook"})
		return
	}
}

type stockReportRow struct {
	IngredientID string  `json:"ingredient_id"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	ReorderLevel float64 `json:"reorder_level"`
	Stock        float64 `json:"stock"`
	NeedsReorder bool    `json:"needs_reorder"`
}

// GetStockReport returns current stock per ingredient with reorder flags
func (h *Handler) GetStockReport(c *gin.Context) {
	storeID := c.GetString("store_id")

	var rows []stockReportRow
	if err := h.db.Raw(`
		SELECT i.id AS ingredient_id,
		       i.name AS name,
		       i.status AS status,
		       i.reorder_level AS reorder_level,
		       COALESCE(SUM(CASE WHEN b.status = ? AND b.deleted_at IS NULL THEN b.remaining_quantity ELSE 0 END), 0) AS stock
		FROM ingredients i
		LEFT JOIN ingredient_batches b ON b.ingredient_id = i.id
		WHERE i.store_id = ? AND i.deleted_at IS NULL
		GROUP BY i.id, i.name, i.status, i.reorder_level
		ORDER BY i.name ASC
	`, database.BatchActive, storeID).Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	for i := range rows {
		rows[i].NeedsReorder = rows[i].ReorderLevel > 0 && rows[i].Stock <= rows[i].ReorderLevel
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}
