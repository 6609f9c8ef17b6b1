package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderbot-backend/pkg/enums"
)

// Order is both the open cart (status CART) and every placed order.
// ux_orders_open_cart keeps at most one CART row per customer.
type Order struct {
	ID             int64             `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerID     int64             `gorm:"column:customer_id;not null;index:idx_orders_customer_id;uniqueIndex:ux_orders_open_cart,where:status = 'CART'"`
	Status         enums.OrderStatus `gorm:"column:status;type:varchar(32);not null;index:idx_orders_status"`
	Total          decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	DeliveryTypeID *int64            `gorm:"column:delivery_type_id"`
	Address        *string           `gorm:"column:address"`
	DeliverASAP    bool              `gorm:"column:deliver_asap;not null;default:false"`
	DeliveryAt     *time.Time        `gorm:"column:delivery_at"`
	PlacedAt       *time.Time        `gorm:"column:placed_at;index:idx_orders_placed_at"`
	Customer       *Customer         `gorm:"foreignKey:CustomerID"`
	DeliveryType   *DeliveryType     `gorm:"foreignKey:DeliveryTypeID"`
	Items          []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
