package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderbot-backend/pkg/enums"
)

// LineItemView is a cart or order line joined with its product.
type LineItemView struct {
	ProductID      int64           `json:"product_id"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ProductDeleted bool            `json:"product_deleted,omitempty"`
}

// FinalizeItem is one line of the snapshot written at checkout.
type FinalizeItem struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// FinalizeInput carries everything needed to turn the open cart into an order.
type FinalizeInput struct {
	OrderID        int64
	CustomerID     int64
	Items          []FinalizeItem
	DeliveryTypeID int64
	Address        *string
	DeliverASAP    bool
	DeliveryAt     *time.Time
	Total          decimal.Decimal
	PlacedAt       time.Time
}

// FinalizeResult reports the placed order and the fresh cart that replaced it.
type FinalizeResult struct {
	OrderID    int64
	NewCartID  int64
	Total      decimal.Decimal
	PlacedAt   time.Time
	ItemsCount int
}

// OrderSummary is a placed order as shown in the customer's history.
type OrderSummary struct {
	OrderID      int64             `json:"order_id"`
	Status       enums.OrderStatus `json:"status"`
	Total        decimal.Decimal   `json:"total"`
	DeliveryType string            `json:"delivery_type,omitempty"`
	Address      *string           `json:"address,omitempty"`
	DeliverASAP  bool              `json:"deliver_asap"`
	DeliveryAt   *time.Time        `json:"delivery_at,omitempty"`
	PlacedAt     *time.Time        `json:"placed_at,omitempty"`
	Items        []LineItemView    `json:"items"`
}

// LatestStatus is the newest placed order's status.
type LatestStatus struct {
	OrderID  int64             `json:"order_id"`
	Status   enums.OrderStatus `json:"status"`
	PlacedAt *time.Time        `json:"placed_at,omitempty"`
}

// TodayOrder is an admin-facing row for orders placed today.
type TodayOrder struct {
	OrderSummary
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	ChatID        int64  `json:"chat_id"`
}

// Actor identifies who changed an order.
type Actor struct {
	ChatID int64
	Role   string
}

// StatusChangeInput requests an unconditional status overwrite.
type StatusChangeInput struct {
	OrderID int64
	Status  enums.OrderStatus
	Actor   Actor
}

// StatusChangeResult reports the applied change. Anomalous marks transitions
// outside the usual progression; they are applied regardless.
type StatusChangeResult struct {
	OrderID   int64             `json:"order_id"`
	ChatID    int64             `json:"chat_id"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
	Anomalous bool              `json:"anomalous"`
}
