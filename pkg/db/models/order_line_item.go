package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLineItem is one product inside an order. Subtotal is quantity times
// the product price at the moment it was last written.
type OrderLineItem struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   int64           `gorm:"column:order_id;not null;uniqueIndex:ux_order_line_items_order_product,priority:1"`
	ProductID int64           `gorm:"column:product_id;not null;uniqueIndex:ux_order_line_items_order_product,priority:2"`
	Quantity  int             `gorm:"column:quantity;not null;check:chk_order_line_items_quantity,quantity > 0"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
