package payloads

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderbot-backend/pkg/enums"
)

// OrderPlacedEvent is emitted when a cart is finalized into an order.
type OrderPlacedEvent struct {
	OrderID        int64           `json:"order_id"`
	CustomerID     int64           `json:"customer_id"`
	ChatID         int64           `json:"chat_id"`
	Total          decimal.Decimal `json:"total"`
	DeliveryTypeID int64           `json:"delivery_type_id"`
	DeliverASAP    bool            `json:"deliver_asap"`
	DeliveryAt     *time.Time      `json:"delivery_at,omitempty"`
	PlacedAt       time.Time       `json:"placed_at"`
}

// OrderStatusChangedEvent is emitted on every status overwrite so the chat
// transport can notify the customer.
type OrderStatusChangedEvent struct {
	OrderID   int64             `json:"order_id"`
	ChatID    int64             `json:"chat_id"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
	Anomalous bool              `json:"anomalous"`
	ChangedAt time.Time         `json:"changed_at"`
}
