package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"recipeshop/internal/model"
	"recipeshop/internal/service"
)

// OrderHandler serves the caller's orders. Staff see every order.
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// OrderItemRequest is one requested order line.
type OrderItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,min=1"`
}

// OrderWriteRequest is the order write representation. The owner is always the caller.
type OrderWriteRequest struct {
	Status string             `json:"status" validate:"omitempty,oneof=Pending Confirmed Cancelled"`
	Items  []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderPatchRequest changes only the fields present.
type OrderPatchRequest struct {
	Status *string             `json:"status" validate:"omitempty,oneof=Pending Confirmed Cancelled"`
	Items  *[]OrderItemRequest `json:"items" validate:"omitempty,dive"`
}

// OrderItemResponse is an order line with its product expanded.
type OrderItemResponse struct {
	ProductID    uint   `json:"product_id"`
	ProductName  string `json:"product_name"`
	ProductPrice string `json:"product_price"`
	Quantity     int    `json:"quantity"`
	ItemSubtotal string `json:"item_subtotal"`
}

// OrderResponse is the read view of an order.
type OrderResponse struct {
	OrderID    string              `json:"order_id"`
	UserID     uint                `json:"user_id"`
	CreatedAt  time.Time           `json:"created_at"`
	Status     model.OrderStatus   `json:"status"`
	Items      []OrderItemResponse `json:"items"`
	TotalPrice string              `json:"total_price"`
}

func newOrderResponse(o *model.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:    item.ProductID,
			ProductName:  item.Product.Name,
			ProductPrice: item.Product.Price.StringFixed(2),
			Quantity:     item.Quantity,
			ItemSubtotal: item.Subtotal().StringFixed(2),
		})
	}
	return OrderResponse{
		OrderID:    o.ID.String(),
		UserID:     o.UserID,
		CreatedAt:  o.CreatedAt,
		Status:     o.Status,
		Items:      items,
		TotalPrice: o.Total().StringFixed(2),
	}
}

func orderItems(in []OrderItemRequest) []service.OrderItemInput {
	items := make([]service.OrderItemInput, 0, len(in))
	for _, item := range in {
		items = append(items, service.OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return items
}

// List godoc
// @Summary List orders visible to the caller
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} OrderResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.orderService.ListOrders(c.Request().Context(), caller(c))
	if err != nil {
		return fail(c, err)
	}
	resp := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, newOrderResponse(&orders[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get an order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} OrderResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := uuidParam(c)
	if err != nil {
		return err
	}
	order, err := h.orderService.GetOrder(c.Request().Context(), caller(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newOrderResponse(order))
}

// Create godoc
// @Summary Place an order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OrderWriteRequest true "Order data"
// @Success 201 {object} OrderResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	var req OrderWriteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.CreateOrder(c.Request().Context(), caller(c), service.OrderInput{
		Status: model.OrderStatus(req.Status),
		Items:  orderItems(req.Items),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, newOrderResponse(order))
}

// Update godoc
// @Summary Replace an order's status and items
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body OrderWriteRequest true "Order data"
// @Success 200 {object} OrderResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id} [put]
func (h *OrderHandler) Update(c echo.Context) error {
	var req OrderWriteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	status := model.OrderStatus(req.Status)
	if status == "" {
		status = model.OrderStatusPending
	}
	items := orderItems(req.Items)
	return h.patch(c, service.OrderPatch{Status: &status, Items: &items})
}

// Patch godoc
// @Summary Update an order's status or items
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body OrderPatchRequest true "Order data"
// @Success 200 {object} OrderResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id} [patch]
func (h *OrderHandler) Patch(c echo.Context) error {
	var req OrderPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	var patch service.OrderPatch
	if req.Status != nil {
		status := model.OrderStatus(*req.Status)
		patch.Status = &status
	}
	if req.Items != nil {
		items := orderItems(*req.Items)
		patch.Items = &items
	}
	return h.patch(c, patch)
}

func (h *OrderHandler) patch(c echo.Context, patch service.OrderPatch) error {
	id, err := uuidParam(c)
	if err != nil {
		return err
	}
	order, err := h.orderService.UpdateOrder(c.Request().Context(), caller(c), id, patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newOrderResponse(order))
}

// Delete godoc
// @Summary Delete an order and its items
// @Tags orders
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id} [delete]
func (h *OrderHandler) Delete(c echo.Context) error {
	id, err := uuidParam(c)
	if err != nil {
		return err
	}
	if err := h.orderService.DeleteOrder(c.Request().Context(), caller(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
