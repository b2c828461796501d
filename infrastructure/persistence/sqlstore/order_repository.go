package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderlifecycle/domain/order"
	"orderlifecycle/domain/shared"
	"orderlifecycle/infrastructure/persistence"
	"orderlifecycle/infrastructure/persistence/specification"
	"orderlifecycle/infrastructure/persistence/sqlstore/po"

	"gorm.io/gorm"
)

// OrderRepository is the GORM Order Store.
// Children are read and written explicitly; GORM associations are not used
// so the aggregate boundary stays in the domain.
type OrderRepository struct {
	db         *gorm.DB
	translator specification.Translator
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db, translator: specification.NewGormTranslator()}
}

func (r *OrderRepository) getDB(ctx context.Context) *gorm.DB {
	return persistence.DBFromContext(ctx, r.db)
}

// inTx runs fn on the unit of work transaction when there is one, otherwise
// in a transaction of its own.
func (r *OrderRepository) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return fn(tx.WithContext(ctx))
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// Create inserts the order row, its product lines and its initial event.
// The primary key and idx_orders_natural_key turn a losing concurrent insert
// into ErrDuplicateOrder.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	orderPO, productPOs, eventPOs := po.FromOrderDomain(o)

	return r.inTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(orderPO).Error; err != nil {
			if isUniqueViolation(err) {
				return order.NewDuplicateOrderError(o.OrderID(), o.ExternalReferenceID(), o.Channel())
			}
			return fmt.Errorf("insert order: %w", err)
		}
		if len(productPOs) > 0 {
			if err := tx.Create(&productPOs).Error; err != nil {
				return fmt.Errorf("insert order products: %w", err)
			}
		}
		if len(eventPOs) > 0 {
			if err := tx.Create(&eventPOs).Error; err != nil {
				return fmt.Errorf("insert order events: %w", err)
			}
		}
		return nil
	})
}

func (r *OrderRepository) ExistsByNaturalKey(ctx context.Context, externalReferenceID string, channel order.Channel) (bool, error) {
	var count int64
	err := r.getDB(ctx).Model(&po.OrderPO{}).
		Where("external_reference_id = ? AND channel = ?", externalReferenceID, string(channel)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *OrderRepository) FindByNaturalKey(ctx context.Context, externalReferenceID string, channel order.Channel) (*order.Order, error) {
	db := r.getDB(ctx)
	var orderPO po.OrderPO
	err := db.Where("external_reference_id = ? AND channel = ?", externalReferenceID, string(channel)).Take(&orderPO).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, order.NewOrderNotFoundError(0)
	}
	if err != nil {
		return nil, err
	}
	return r.load(db, &orderPO)
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.findByID(r.getDB(ctx), id)
}

func (r *OrderRepository) findByID(db *gorm.DB, id int64) (*order.Order, error) {
	var orderPO po.OrderPO
	err := db.Where("order_id = ?", id).Take(&orderPO).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, order.NewOrderNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return r.load(db, &orderPO)
}

func (r *OrderRepository) load(db *gorm.DB, orderPO *po.OrderPO) (*order.Order, error) {
	var productPOs []po.OrderProductPO
	if err := db.Where("order_id = ?", orderPO.OrderID).Order("line ASC").Find(&productPOs).Error; err != nil {
		return nil, err
	}
	var eventPOs []po.OrderEventPO
	if err := db.Where("order_id = ?", orderPO.OrderID).Order("seq ASC").Find(&eventPOs).Error; err != nil {
		return nil, err
	}
	return orderPO.ToDomain(productPOs, eventPOs), nil
}

// AppendEvent is a compare-and-set on status: the UPDATE only matches while
// the row still holds expected, and the row lock it takes serialises the
// event insert that follows.
func (r *OrderRepository) AppendEvent(ctx context.Context, id int64, expected order.Status, ev order.Event, updatedOn time.Time) (*order.Order, error) {
	var updated *order.Order

	err := r.inTx(ctx, func(tx *gorm.DB) error {
		result := tx.Model(&po.OrderPO{}).
			Where("order_id = ? AND status = ?", id, string(expected)).
			Updates(map[string]any{
				"status":     string(ev.Type),
				"updated_on": updatedOn.UTC(),
				"version":    gorm.Expr("version + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&po.OrderPO{}).Where("order_id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return order.NewOrderNotFoundError(id)
			}
			return order.NewConcurrentModificationError(id)
		}

		var seq int64
		if err := tx.Model(&po.OrderEventPO{}).Where("order_id = ?", id).Count(&seq).Error; err != nil {
			return err
		}
		eventPO := po.FromEventDomain(id, int(seq)+1, ev)
		if err := tx.Create(&eventPO).Error; err != nil {
			if isUniqueViolation(err) {
				return order.NewDuplicateEventError(id, ev.ID)
			}
			return fmt.Errorf("insert order event: %w", err)
		}

		o, err := r.findByID(tx, id)
		if err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Search translates spec to SQL and loads children in two batched queries.
func (r *OrderRepository) Search(ctx context.Context, spec shared.Specification) ([]*order.Order, error) {
	db := r.getDB(ctx)
	query := db.Model(&po.OrderPO{})
	if spec != nil {
		scope := r.translator.Translate(spec)
		if scope == nil {
			return nil, fmt.Errorf("unsupported search specification %T", spec)
		}
		query = query.Scopes(scope)
	}

	var orderPOs []po.OrderPO
	if err := query.Order("orders.order_id ASC").Find(&orderPOs).Error; err != nil {
		return nil, err
	}
	if len(orderPOs) == 0 {
		return []*order.Order{}, nil
	}

	ids := make([]int64, len(orderPOs))
	for i := range orderPOs {
		ids[i] = orderPOs[i].OrderID
	}

	var productPOs []po.OrderProductPO
	if err := db.Where("order_id IN ?", ids).Order("order_id ASC, line ASC").Find(&productPOs).Error; err != nil {
		return nil, err
	}
	var eventPOs []po.OrderEventPO
	if err := db.Where("order_id IN ?", ids).Order("order_id ASC, seq ASC").Find(&eventPOs).Error; err != nil {
		return nil, err
	}

	productsByOrder := make(map[int64][]po.OrderProductPO, len(ids))
	for _, p := range productPOs {
		productsByOrder[p.OrderID] = append(productsByOrder[p.OrderID], p)
	}
	eventsByOrder := make(map[int64][]po.OrderEventPO, len(ids))
	for _, e := range eventPOs {
		eventsByOrder[e.OrderID] = append(eventsByOrder[e.OrderID], e)
	}

	orders := make([]*order.Order, len(orderPOs))
	for i := range orderPOs {
		id := orderPOs[i].OrderID
		orders[i] = orderPOs[i].ToDomain(productsByOrder[id], eventsByOrder[id])
	}
	return orders, nil
}

var _ order.Repository = (*OrderRepository)(nil)
