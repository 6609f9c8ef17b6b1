package checkout

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderbot-backend/internal/orders"
	"github.com/angelmondragon/orderbot-backend/pkg/enums"
)

// Submission is a fully assembled checkout.
type Submission struct {
	DeliveryTypeID int64
	Address        *string
	Time           string
	Consent        bool
}

// Confirmation describes the order created by a successful submission.
type Confirmation struct {
	OrderID      int64                 `json:"order_id"`
	Status       enums.OrderStatus     `json:"status"`
	Items        []orders.LineItemView `json:"items"`
	CartTotal    decimal.Decimal       `json:"cart_total"`
	DeliveryType string                `json:"delivery_type"`
	DeliveryFee  decimal.Decimal       `json:"delivery_fee"`
	FeeWaived    bool                  `json:"fee_waived"`
	Total        decimal.Decimal       `json:"total"`
	Address      *string               `json:"address,omitempty"`
	DeliverASAP  bool                  `json:"deliver_asap"`
	DeliveryAt   *time.Time            `json:"delivery_at,omitempty"`
	PlacedAt     time.Time             `json:"placed_at"`
}

// DraftView is the wizard state returned to the transport.
type DraftView struct {
	Draft
	Step string `json:"next_step"`
}

func draftView(draft *Draft) *DraftView {
	return &DraftView{Draft: *draft, Step: draft.NextStep()}
}

// Submission assembles the answers collected so far.
func (d *Draft) Submission() Submission {
	submission := Submission{
		Address: d.Address,
		Time:    d.Time,
		Consent: d.Consent,
	}
	if d.DeliveryTypeID != nil {
		submission.DeliveryTypeID = *d.DeliveryTypeID
	}
	return submission
}
