package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderbot-backend/internal/orders"
)

// CartView is the customer's open cart with per-delivery-type fee previews.
type CartView struct {
	OrderID   int64                 `json:"order_id,omitempty"`
	Items     []orders.LineItemView `json:"items"`
	CartTotal decimal.Decimal       `json:"cart_total"`
	Quotes    []DeliveryQuote       `json:"delivery_quotes"`
}

// DeliveryQuote previews the grand total for one delivery type.
type DeliveryQuote struct {
	DeliveryTypeID  int64           `json:"delivery_type_id"`
	Name            string          `json:"name"`
	RequiresAddress bool            `json:"requires_address"`
	BaseFee         decimal.Decimal `json:"base_fee"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	FeeWaived       bool            `json:"fee_waived"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
}

// IsEmpty reports whether the view holds no items.
func (v *CartView) IsEmpty() bool {
	return v == nil || len(v.Items) == 0
}
