package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recipeshop/internal/model"
	"recipeshop/internal/policy"
)

// OrderRepository defines order persistence operations. Every read and
// delete is narrowed by a policy.Filter.
type OrderRepository interface {
	// Create stores the order and its items.
	Create(ctx context.Context, order *model.Order) error
	// Update saves the order status and, when items is non-nil, replaces its items.
	Update(ctx context.Context, order *model.Order, items []model.OrderItem) error
	Delete(ctx context.Context, f policy.Filter, id uuid.UUID) error
	FindByID(ctx context.Context, f policy.Filter, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, f policy.Filter) ([]model.Order, error)
	CountItems(ctx context.Context, id uuid.UUID) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	items := order.Items
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		return createItems(tx, order.ID, items)
	})
	if err != nil {
		return err
	}
	order.Items = items
	return nil
}

func (r *orderRepository) Update(ctx context.Context, order *model.Order, items []model.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(order).Omit(clause.Associations).Update("status", order.Status).Error; err != nil {
			return err
		}
		if items == nil {
			return nil
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		if err := createItems(tx, order.ID, items); err != nil {
			return err
		}
		order.Items = items
		return nil
	})
}

func createItems(tx *gorm.DB, orderID uuid.UUID, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ID = 0
		items[i].OrderID = orderID
	}
	return tx.Omit("Product").Create(&items).Error
}

// Delete removes the order and its items in one transaction. The item delete
// is explicit so it does not depend on the backend honouring ON DELETE CASCADE.
func (r *orderRepository) Delete(ctx context.Context, f policy.Filter, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		if err := tx.Scopes(f.Apply).Where("id = ?", id).First(&order).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

func (r *orderRepository) FindByID(ctx context.Context, f policy.Filter, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Scopes(f.Apply).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, f policy.Filter) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Scopes(f.Apply).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product").
		Order(policy.DefaultOrder(policy.Orders)).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CountItems counts the items stored for an order, whether or not the order still exists.
func (r *orderRepository) CountItems(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).Where("order_id = ?", id).Count(&n).Error
	return n, err
}
