package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProduct_InStock(t *testing.T) {
	assert.True(t, Product{Stock: 1}.InStock())
	assert.False(t, Product{Stock: 0}.InStock())
}

func TestOrder_Total(t *testing.T) {
	order := Order{Items: []OrderItem{
		{Quantity: 2, Product: Product{Price: decimal.RequireFromString("1.25")}},
		{Quantity: 3, Product: Product{Price: decimal.RequireFromString("10.00")}},
	}}

	assert.Equal(t, "2.5", order.Items[0].Subtotal().String())
	assert.True(t, order.Total().Equal(decimal.RequireFromString("32.50")))
}

func TestOrder_BeforeCreateDefaults(t *testing.T) {
	order := &Order{}
	assert.NoError(t, order.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.Equal(t, OrderStatusPending, order.Status)

	existing := uuid.New()
	confirmed := &Order{ID: existing, Status: OrderStatusConfirmed}
	assert.NoError(t, confirmed.BeforeCreate(nil))
	assert.Equal(t, existing, confirmed.ID)
	assert.Equal(t, OrderStatusConfirmed, confirmed.Status)
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.True(t, OrderStatusCancelled.Valid())
	assert.False(t, OrderStatus("Shipped").Valid())
	assert.False(t, OrderStatus("pending").Valid())
}
