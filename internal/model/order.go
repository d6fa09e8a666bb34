package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusConfirmed OrderStatus = "Confirmed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is owned by exactly one user and groups order items.
type Order struct {
	ID        uuid.UUID   `json:"order_id" gorm:"type:char(36);primaryKey"`
	UserID    uint        `json:"user_id" gorm:"not null;index"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(10);not null;index"`
	CreatedAt time.Time   `json:"created_at" gorm:"autoCreateTime;<-:create"`

	// Relations
	User  User        `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID and the initial status before creating the record.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	return nil
}

// Total sums the subtotals of all items.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// OrderItem is a product line within an order.
type OrderItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uuid.UUID `json:"order_id" gorm:"type:char(36);not null;index"`
	ProductID uint      `json:"product_id" gorm:"not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null"`

	// Relations
	Product Product `json:"product" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// Subtotal is the product price multiplied by the quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
