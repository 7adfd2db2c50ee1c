package activitylog

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"gorm.io/gorm"
)

// Logger handles activity logging for the audit trail
type Logger struct {
	db *gorm.DB
}

// NewLogger creates a new activity logger
func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

// LogActivity creates an activity log entry from the request context
func (l *Logger) LogActivity(c *gin.Context, action, entityType string, entityID *uuid.UUID, details interface{}) error {
	storeID, _ := uuid.Parse(c.GetString("store_id"))
	userID, _ := uuid.Parse(c.GetString("user_id"))

	detailsJSON := ""
	if details != nil {
		if jsonBytes, err := json.Marshal(details); err == nil {
			detailsJSON = string(jsonBytes)
		}
	}

	log := database.ActivityLog{
		StoreID:    storeID,
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    detailsJSON,
		IPAddress:  c.ClientIP(),
	}

	return l.db.Create(&log).Error
}

// LogStatusOverride logs a manager status override (the sticky INACTIVE
// transitions)
func (l *Logger) LogStatusOverride(c *gin.Context, entityType string, entityID uuid.UUID, oldStatus, newStatus string) error {
	return l.LogActivity(c, "status_override", entityType, &entityID, map[string]interface{}{
		"old_status": oldStatus,
		"new_status": newStatus,
	})
}

// LogDelete logs a delete action
func (l *Logger) LogDelete(c *gin.Context, entityType string, entityID uuid.UUID, oldData interface{}) error {
	return l.LogActivity(c, "delete", entityType, &entityID, map[string]interface{}{
		"deleted": oldData,
	})
}
