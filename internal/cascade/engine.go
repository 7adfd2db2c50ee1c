package cascade

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/openfoodstore/inventory-backend/internal/stock"
	"github.com/openfoodstore/inventory-backend/pkg/database"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultFanoutLimit = 8

// Engine recomputes ingredient and dish/topping availability whenever stock
// changes. It is the only writer of the derived status fields; the sticky
// INACTIVE state is enforced as a write-time guard so a manager override is
// never clobbered by a concurrent recompute.
type Engine struct {
	db    *gorm.DB
	stock *stock.Aggregator
	log   *zap.Logger
	limit int

	mu    sync.Mutex
	locks map[uuid.UUID]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

func NewEngine(db *gorm.DB, agg *stock.Aggregator, log *zap.Logger) *Engine {
	return &Engine{
		db:    db,
		stock: agg,
		log:   log,
		limit: defaultFanoutLimit,
		locks: map[uuid.UUID]*refLock{},
	}
}

// lockIngredient serializes recomputation per ingredient id. Returns the
// unlock func.
func (e *Engine) lockIngredient(id uuid.UUID) func() {
	e.mu.Lock()
	l := e.locks[id]
	if l == nil {
		l = &refLock{}
		e.locks[id] = l
	}
	l.refs++
	e.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, id)
		}
		e.mu.Unlock()
	}
}

// RecomputeIngredient derives ACTIVE/OUT_OF_STOCK from current stock. The
// conditional update skips INACTIVE ingredients.
func (e *Engine) RecomputeIngredient(ctx context.Context, ingredientID uuid.UUID) error {
	total, err := e.stock.StockOf(ctx, ingredientID)
	if err != nil {
		return err
	}

	status := database.IngredientOutOfStock
	if total > 0 {
		status = database.IngredientActive
	}

	return e.db.WithContext(ctx).
		Model(&database.Ingredient{}).
		Where("id = ? AND status <> ?", ingredientID, database.IngredientInactive).
		Update("status", status).Error
}

// RecomputeDish derives AVAILABLE/OUT_OF_STOCK from the minimum sufficiency
// across the dish's required ingredients. A dish with no requirements is
// vacuously available.
func (e *Engine) RecomputeDish(ctx context.Context, dishID uuid.UUID) error {
	var reqs []database.DishIngredient
	if err := e.db.WithContext(ctx).
		Where("dish_id = ?", dishID).
		Find(&reqs).Error; err != nil {
		return err
	}

	status, err := e.consumerStatus(ctx, requirements(reqs))
	if err != nil {
		return err
	}

	return e.db.WithContext(ctx).
		Model(&database.Dish{}).
		Where("id = ? AND status <> ?", dishID, database.ConsumerInactive).
		Update("status", status).Error
}

// RecomputeTopping is the topping counterpart of RecomputeDish
func (e *Engine) RecomputeTopping(ctx context.Context, toppingID uuid.UUID) error {
	var reqs []database.ToppingIngredient
	if err := e.db.WithContext(ctx).
		Where("topping_id = ?", toppingID).
		Find(&reqs).Error; err != nil {
		return err
	}

	rs := make([]requirement, 0, len(reqs))
	for _, r := range reqs {
		rs = append(rs, requirement{IngredientID: r.IngredientID, Quantity: r.Quantity})
	}
	status, err := e.consumerStatus(ctx, rs)
	if err != nil {
		return err
	}

	return e.db.WithContext(ctx).
		Model(&database.Topping{}).
		Where("id = ? AND status <> ?", toppingID, database.ConsumerInactive).
		Update("status", status).Error
}

type requirement struct {
	IngredientID uuid.UUID
	Quantity     float64
}

func requirements(reqs []database.DishIngredient) []requirement {
	rs := make([]requirement, 0, len(reqs))
	for _, r := range reqs {
		rs = append(rs, requirement{IngredientID: r.IngredientID, Quantity: r.Quantity})
	}
	return rs
}

func (e *Engine) consumerStatus(ctx context.Context, reqs []requirement) (string, error) {
	for _, r := range reqs {
		if r.Quantity <= 0 {
			continue
		}
		total, err := e.stock.StockOf(ctx, r.IngredientID)
		if err != nil {
			return "", err
		}
		if total < r.Quantity {
			return database.ConsumerOutOfStock, nil
		}
	}
	return database.ConsumerAvailable, nil
}

// OnIngredientChanged recomputes the ingredient's status and fans out to
// every dish and topping that uses it. Calls for the same ingredient are
// serialized; the ingredient's own status is persisted before any dependent
// is recomputed. Fan-out concurrency is bounded so a widely shared
// ingredient cannot overwhelm the datastore.
func (e *Engine) OnIngredientChanged(ctx context.Context, ingredientID uuid.UUID) error {
	unlock := e.lockIngredient(ingredientID)
	defer unlock()

	if err := e.RecomputeIngredient(ctx, ingredientID); err != nil {
		return err
	}

	var dishIDs []uuid.UUID
	if err := e.db.WithContext(ctx).
		Model(&database.DishIngredient{}).
		Where("ingredient_id = ?", ingredientID).
		Distinct().
		Pluck("dish_id", &dishIDs).Error; err != nil {
		return err
	}

	var toppingIDs []uuid.UUID
	if err := e.db.WithContext(ctx).
		Model(&database.ToppingIngredient{}).
		Where("ingredient_id = ?", ingredientID).
		Distinct().
		Pluck("topping_id", &toppingIDs).Error; err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for _, id := range dishIDs {
		id := id
		g.Go(func() error {
			if err := e.RecomputeDish(gctx, id); err != nil {
				e.log.Error("dish recompute failed",
					zap.String("dish_id", id.String()),
					zap.String("ingredient_id", ingredientID.String()),
					zap.Error(err))
				return err
			}
			return nil
		})
	}
	for _, id := range toppingIDs {
		id := id
		g.Go(func() error {
			if err := e.RecomputeTopping(gctx, id); err != nil {
				e.log.Error("topping recompute failed",
					zap.String("topping_id", id.String()),
					zap.String("ingredient_id", ingredientID.String()),
					zap.Error(err))
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
