package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/internal/cascade"
	"github.com/openfoodstore/inventory-backend/internal/stock"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"github.com/openfoodstore/inventory-backend/pkg/email"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize        = 100
	defaultReconcileBudget = 500
)

// Sweeper expires stale batches into waste and reconciles derived
// availability status catalog-wide. Every item is processed independently: a
// failure is logged, skipped and retried on the next run. Both passes are
// idempotent, so an interrupted sweep just resumes next tick.
type Sweeper struct {
	db     *gorm.DB
	engine *cascade.Engine
	stock  *stock.Aggregator
	mailer *email.Service
	log    *zap.Logger

	// now is injectable so tests can sweep at a fixed instant
	now func() time.Time

	pageSize        int
	reconcileBudget int

	mu        sync.Mutex
	cursor    uuid.UUID
	cursorSet bool
}

func New(db *gorm.DB, engine *cascade.Engine, agg *stock.Aggregator, mailer *email.Service, log *zap.Logger) *Sweeper {
	return &Sweeper{
		db:              db,
		engine:          engine,
		stock:           agg,
		mailer:          mailer,
		log:             log,
		now:             time.Now,
		pageSize:        defaultPageSize,
		reconcileBudget: defaultReconcileBudget,
	}
}

// WithClock overrides the sweeper's clock
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run executes one sweep: the expiry pass, then a bounded slice of the
// reconciliation pass.
func (s *Sweeper) Run(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Info("sweep started")
	s.expirePass(ctx)
	s.reconcilePass(ctx)
	s.log.Info("sweep completed")
}

// expirePass moves every active, expired, non-empty batch into waste and
// cascades the affected ingredient.
func (s *Sweeper) expirePass(ctx context.Context) {
	now := s.now()

	var batches []database.IngredientBatch
	if err := s.db.WithContext(ctx).
		Where("status = ? AND remaining_quantity > 0 AND expiry_date IS NOT NULL AND expiry_date <= ?",
			database.BatchActive, now).
		Find(&batches).Error; err != nil {
		s.log.Error("expiry pass query failed", zap.Error(err))
		return
	}

	for _, b := range batches {
		if ctx.Err() != nil {
			return
		}
		if err := s.expireBatch(ctx, b, now); err != nil {
			s.log.Error("batch expiry failed",
				zap.String("batch_id", b.ID.String()),
				zap.String("batch_code", b.BatchCode),
				zap.Error(err))
			continue
		}
		s.log.Info("batch expired into waste",
			zap.String("batch_id", b.ID.String()),
			zap.String("batch_code", b.BatchCode),
			zap.Float64("quantity", b.RemainingQuantity))

		if err := s.engine.OnIngredientChanged(ctx, b.IngredientID); err != nil {
			s.log.Error("cascade after expiry failed",
				zap.String("ingredient_id", b.IngredientID.String()),
				zap.Error(err))
		}
	}
}

func (s *Sweeper) expireBatch(ctx context.Context, b database.IngredientBatch, now time.Time) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	w := database.Waste{
		StoreID:           b.StoreID,
		IngredientBatchID: b.ID,
		Quantity:          b.RemainingQuantity,
		Reason:            database.WasteReasonExpired,
		Date:              now,
	}
	if err := tx.Create(&w).Error; err != nil {
		tx.Rollback()
		return err
	}

	// guarded update keeps the pass idempotent under concurrent sweeps
	res := tx.Model(&database.IngredientBatch{}).
		Where("id = ? AND status = ?", b.ID, database.BatchActive).
		Updates(map[string]interface{}{
			"status":             database.BatchExpired,
			"remaining_quantity": 0,
		})
	if res.Error != nil {
		tx.Rollback()
		return res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil
	}

	return tx.Commit().Error
}

// reconcilePass walks the ingredient catalog in pages, recomputing each
// ingredient and its dependents, and raises reorder alerts. It keeps a
// cursor across runs so a large catalog is spread over several ticks instead
// of blocking the next one.
func (s *Sweeper) reconcilePass(ctx context.Context) {
	processed := 0
	for processed < s.reconcileBudget {
		if ctx.Err() != nil {
			return
		}

		q := s.db.WithContext(ctx).Order("id ASC").Limit(s.pageSize)
		if s.cursorSet {
			q = q.Where("id > ?", s.cursor)
		}

		var ingredients []database.Ingredient
		if err := q.Find(&ingredients).Error; err != nil {
			s.log.Error("reconciliation page query failed", zap.Error(err))
			return
		}
		if len(ingredients) == 0 {
			// catalog exhausted, restart from the top next run
			s.cursorSet = false
			return
		}

		for _, ing := range ingredients {
			if ctx.Err() != nil {
				return
			}
			if err := s.engine.OnIngredientChanged(ctx, ing.ID); err != nil {
				s.log.Error("reconciliation failed for ingredient",
					zap.String("ingredient_id", ing.ID.String()),
					zap.String("name", ing.Name),
					zap.Error(err))
			}
			s.checkReorderLevel(ctx, ing)

			s.cursor = ing.ID
			s.cursorSet = true
			processed++
			if processed >= s.reconcileBudget {
				return
			}
		}
	}
}

// checkReorderLevel raises an alert when stock has fallen to or below the
// ingredient's positive reorder level.
func (s *Sweeper) checkReorderLevel(ctx context.Context, ing database.Ingredient) {
	if ing.ReorderLevel <= 0 {
		return
	}

	total, err := s.stock.StockOf(ctx, ing.ID)
	if err != nil {
		s.log.Error("reorder check failed",
			zap.String("ingredient_id", ing.ID.String()),
			zap.Error(err))
		return
	}
	if total > ing.ReorderLevel {
		return
	}

	s.log.Warn("ingredient at or below reorder level",
		zap.String("ingredient_id", ing.ID.String()),
		zap.String("name", ing.Name),
		zap.Float64("stock", total),
		zap.Float64("reorder_level", ing.ReorderLevel))

	if s.mailer == nil || !s.mailer.IsConfigured() {
		return
	}

	var owner database.User
	if err := s.db.WithContext(ctx).
		Where("store_id = ? AND role = ?", ing.StoreID, database.RoleOwner).
		First(&owner).Error; err != nil || owner.Email == "" {
		return
	}
	var store database.Store
	s.db.WithContext(ctx).Where("id = ?", ing.StoreID).First(&store)

	unitName := ""
	var u database.Unit
	if err := s.db.WithContext(ctx).Where("id = ?", ing.UnitID).First(&u).Error; err == nil {
		unitName = u.Name
	}

	if err := s.mailer.SendReorderAlert(owner.Email, store.Name, ing.Name, unitName, total, ing.ReorderLevel); err != nil {
		s.log.Error("reorder alert email failed",
			zap.String("ingredient_id", ing.ID.String()),
			zap.Error(err))
	}
}
