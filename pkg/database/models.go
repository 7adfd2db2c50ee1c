package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

// Unit measurement types
const (
	UnitTypeWeight = "weight"
	UnitTypeVolume = "volume"
	UnitTypeCount  = "count"
)

// Ingredient status values. INACTIVE is sticky: only a manager action may
// enter or leave it, the cascade engine never overwrites it.
const (
	IngredientActive     = "ACTIVE"
	IngredientOutOfStock = "OUT_OF_STOCK"
	IngredientInactive   = "INACTIVE"
)

// Dish/Topping status values, same sticky rule for INACTIVE.
const (
	ConsumerAvailable  = "AVAILABLE"
	ConsumerOutOfStock = "OUT_OF_STOCK"
	ConsumerInactive   = "INACTIVE"
)

// Batch status values
const (
	BatchActive   = "active"
	BatchExpired  = "expired"
	BatchFinished = "finished"
)

// Waste reasons
const (
	WasteReasonExpired = "expired"
	WasteReasonSpoiled = "spoiled"
	WasteReasonDamaged = "damaged"
	WasteReasonOther   = "other"
)

// Base model for all entities
type BaseModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the id in the application so the models also work on
// databases without gen_random_uuid().
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Store represents a food store / restaurant
type Store struct {
	BaseModel
	Name    string `gorm:"not null" json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// User is a store account (owner or staff)
type User struct {
	BaseModel
	StoreID  uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	Name     string    `gorm:"not null" json:"name"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`
	Password string    `gorm:"not null" json:"-"`
	Role     string    `gorm:"default:'staff'" json:"role"`
}

// Unit is a per-store measurement unit. The base unit of a (store, type)
// pair has BaseUnitName == nil and Ratio 1; every other unit of that type
// converts to it via Ratio.
type Unit struct {
	BaseModel
	StoreID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_units_store_name" json:"store_id"`
	Name         string    `gorm:"not null;uniqueIndex:idx_units_store_name" json:"name"`
	Type         string    `gorm:"not null" json:"type"` // weight, volume, count
	BaseUnitName *string   `json:"base_unit_name"`
	Ratio        float64   `gorm:"default:1" json:"ratio"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
}

// IngredientCategory groups ingredients within a store
type IngredientCategory struct {
	BaseModel
	StoreID uuid.UUID `gorm:"type:uuid;not null;index" json:"store_id"`
	Name    string    `gorm:"not null" json:"name"`
}

// Ingredient is a perishable raw material. Status is derived from batch
// stock by the cascade engine except when INACTIVE.
type Ingredient struct {
	BaseModel
	StoreID      uuid.UUID           `gorm:"type:uuid;not null;index" json:"store_id"`
	Name         string              `gorm:"not null" json:"name"`
	UnitID       uuid.UUID           `gorm:"type:uuid;not null" json:"unit_id"`
	Unit         *Unit               `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	CategoryID   uuid.UUID           `gorm:"type:uuid;not null" json:"category_id"`
	Category     *IngredientCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Description  string              `json:"description"`
	ReorderLevel float64             `gorm:"default:0" json:"reorder_level"`
	Status       string              `gorm:"default:'ACTIVE'" json:"status"`
}

// IngredientBatch is one dated receipt of an ingredient. Quantity,
// RemainingQuantity and CostPerUnit are stored in the ingredient type's base
// unit; TotalCost keeps the nominal amount paid (input quantity × input
// cost, before conversion).
type IngredientBatch struct {
	BaseModel
	StoreID           uuid.UUID   `gorm:"type:uuid;not null;index" json:"store_id"`
	IngredientID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"ingredient_id"`
	Ingredient        *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
	BatchCode         string      `gorm:"uniqueIndex;not null" json:"batch_code"`
	InputUnitID       uuid.UUID   `gorm:"type:uuid;not null" json:"input_unit_id"`
	InputUnit         *Unit       `gorm:"foreignKey:InputUnitID" json:"input_unit,omitempty"`
	Quantity          float64     `gorm:"not null" json:"quantity"`
	RemainingQuantity float64     `gorm:"not null" json:"remaining_quantity"`
	CostPerUnit       float64     `gorm:"not null" json:"cost_per_unit"`
	TotalCost         float64     `json:"total_cost"`
	ReceivedDate      time.Time   `json:"received_date"`
	ExpiryDate        *time.Time  `gorm:"index" json:"expiry_date"`
	Status            string      `gorm:"default:'active';index" json:"status"`
	SupplierName      string      `json:"supplier_name"`
	StorageLocation   string      `json:"storage_location"`
}

// Waste records a stock write-off against a batch. Deleting it restores the
// batch's remaining quantity.
type Waste struct {
	BaseModel
	StoreID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"store_id"`
	IngredientBatchID uuid.UUID        `gorm:"type:uuid;not null;index" json:"ingredient_batch_id"`
	IngredientBatch   *IngredientBatch `gorm:"foreignKey:IngredientBatchID" json:"ingredient_batch,omitempty"`
	Quantity          float64          `gorm:"not null" json:"quantity"`
	Reason            string           `gorm:"not null" json:"reason"` // expired, spoiled, damaged, other
	OtherReason       string           `json:"other_reason"`
	StaffID           *uuid.UUID       `gorm:"type:uuid" json:"staff_id"`
	Staff             *User            `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	Date              time.Time        `json:"date"`
}

// Dish is a menu item whose availability is derived from ingredient stock
type Dish struct {
	BaseModel
	StoreID     uuid.UUID        `gorm:"type:uuid;not null;index" json:"store_id"`
	Name        string           `gorm:"not null" json:"name"`
	Price       float64          `gorm:"not null" json:"price"`
	Description string           `json:"description"`
	Status      string           `gorm:"default:'AVAILABLE'" json:"status"`
	Ingredients []DishIngredient `gorm:"foreignKey:DishID" json:"ingredients,omitempty"`
}

// DishIngredient links a dish to a required ingredient quantity (base
// units). The ingredient_id index doubles as the reverse index the cascade
// fan-out queries.
type DishIngredient struct {
	BaseModel
	DishID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"dish_id"`
	IngredientID uuid.UUID   `gorm:"type:uuid;not null;index" json:"ingredient_id"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
	Quantity     float64     `gorm:"not null" json:"quantity"`
}

// Topping is an add-on menu item, availability-derived like Dish
type Topping struct {
	BaseModel
	StoreID     uuid.UUID           `gorm:"type:uuid;not null;index" json:"store_id"`
	Name        string              `gorm:"not null" json:"name"`
	Price       float64             `gorm:"not null" json:"price"`
	Status      string              `gorm:"default:'AVAILABLE'" json:"status"`
	Ingredients []ToppingIngredient `gorm:"foreignKey:ToppingID" json:"ingredients,omitempty"`
}

// ToppingIngredient links a topping to a required ingredient quantity
type ToppingIngredient struct {
	BaseModel
	ToppingID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"topping_id"`
	IngredientID uuid.UUID   `gorm:"type:uuid;not null;index" json:"ingredient_id"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
	Quantity     float64     `gorm:"not null" json:"quantity"`
}

// ActivityLog is the audit trail for manager overrides and destructive
// operations
type ActivityLog struct {
	BaseModel
	StoreID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"store_id"`
	UserID     uuid.UUID  `gorm:"type:uuid" json:"user_id"`
	Action     string     `gorm:"not null" json:"action"`
	EntityType string     `gorm:"not null" json:"entity_type"`
	EntityID   *uuid.UUID `gorm:"type:uuid" json:"entity_id"`
	Details    string     `gorm:"type:text" json:"details"`
	IPAddress  string     `json:"ip_address"`
}
