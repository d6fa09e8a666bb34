package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/model"
	"recipeshop/internal/policy"
	"recipeshop/internal/repository"
)

// OrderItemInput is one requested order line.
type OrderItemInput struct {
	ProductID uint
	Quantity  int
}

// OrderInput is the full write representation of an order.
type OrderInput struct {
	Status model.OrderStatus
	Items  []OrderItemInput
}

// OrderPatch lists the order fields to change. A nil Items keeps the current items.
type OrderPatch struct {
	Status *model.OrderStatus
	Items  *[]OrderItemInput
}

// OrderService exposes order operations scoped to the caller.
type OrderService interface {
	ListOrders(ctx context.Context, caller policy.Caller) ([]model.Order, error)
	GetOrder(ctx context.Context, caller policy.Caller, id uuid.UUID) (*model.Order, error)
	CreateOrder(ctx context.Context, caller policy.Caller, in OrderInput) (*model.Order, error)
	UpdateOrder(ctx context.Context, caller policy.Caller, id uuid.UUID, patch OrderPatch) (*model.Order, error)
	DeleteOrder(ctx context.Context, caller policy.Caller, id uuid.UUID) error
}

type orderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
}

// NewOrderService creates a new order service.
func NewOrderService(orders repository.OrderRepository, products repository.ProductRepository) OrderService {
	return &orderService{orders: orders, products: products}
}

func (s *orderService) scope(caller policy.Caller) policy.Filter {
	return policy.ResolveScope(caller, policy.Orders)
}

func (s *orderService) ListOrders(ctx context.Context, caller policy.Caller) ([]model.Order, error) {
	return s.orders.List(ctx, s.scope(caller))
}

func (s *orderService) GetOrder(ctx context.Context, caller policy.Caller, id uuid.UUID) (*model.Order, error) {
	return s.orders.FindByID(ctx, s.scope(caller), id)
}

// CreateOrder stores a new order owned by the caller.
func (s *orderService) CreateOrder(ctx context.Context, caller policy.Caller, in OrderInput) (*model.Order, error) {
	status := in.Status
	if status == "" {
		status = model.OrderStatusPending
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", fmt.Sprintf("\"%s\" is not a valid choice.", status))
	}
	if len(in.Items) == 0 {
		return nil, apperrors.NewValidationError("items", "This list may not be empty.")
	}
	items, err := s.buildItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	order := &model.Order{UserID: caller.UserID, Status: status, Items: items}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return s.orders.FindByID(ctx, s.scope(caller), order.ID)
}

func (s *orderService) UpdateOrder(ctx context.Context, caller policy.Caller, id uuid.UUID, patch OrderPatch) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, s.scope(caller), id)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, apperrors.NewValidationError("status", fmt.Sprintf("\"%s\" is not a valid choice.", *patch.Status))
		}
		order.Status = *patch.Status
	}

	var items []model.OrderItem
	if patch.Items != nil {
		if len(*patch.Items) == 0 {
			return nil, apperrors.NewValidationError("items", "This list may not be empty.")
		}
		if items, err = s.buildItems(ctx, *patch.Items); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Update(ctx, order, items); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return s.orders.FindByID(ctx, s.scope(caller), order.ID)
}

func (s *orderService) DeleteOrder(ctx context.Context, caller policy.Caller, id uuid.UUID) error {
	return s.orders.Delete(ctx, s.scope(caller), id)
}

// buildItems checks quantities and that every product exists.
func (s *orderService) buildItems(ctx context.Context, in []OrderItemInput) ([]model.OrderItem, error) {
	ids := make([]uint, 0, len(in))
	for _, item := range in {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	known := make(map[uint]bool, len(products))
	for _, p := range products {
		known[p.ID] = true
	}

	verr := &apperrors.ValidationError{}
	items := make([]model.OrderItem, 0, len(in))
	for _, item := range in {
		if !known[item.ProductID] {
			verr.Add("items", fmt.Sprintf("invalid product id %d", item.ProductID))
		}
		if item.Quantity < 1 {
			verr.Add("items", "Ensure quantity is greater than or equal to 1.")
		}
		items = append(items, model.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if !verr.Empty() {
		return nil, verr
	}
	return items, nil
}
