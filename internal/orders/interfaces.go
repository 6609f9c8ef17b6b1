package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	"github.com/angelmondragon/orderbot-backend/pkg/enums"
)

// Repository is the cart/order ledger. Mutations are meant to run inside a
// transaction obtained through WithTx so the per-order row lock serializes
// concurrent writers for the same customer.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOpenCart(ctx context.Context, customerID int64) (*models.Order, error)
	LockOpenCart(ctx context.Context, customerID int64) (*models.Order, error)
	GetOrCreateOpenCart(ctx context.Context, customerID int64) (*models.Order, error)
	AddLineItem(ctx context.Context, orderID int64, product models.Product, quantity int) (*models.OrderLineItem, error)
	SetLineItemQuantity(ctx context.Context, orderID, productID int64, unitPrice decimal.Decimal, quantity int) (*models.OrderLineItem, error)
	RemoveLineItem(ctx context.Context, orderID, productID int64) (bool, error)
	ListLineItems(ctx context.Context, orderID int64) ([]LineItemView, error)
	Finalize(ctx context.Context, input FinalizeInput) (*FinalizeResult, error)
	FindOrder(ctx context.Context, orderID int64, lock bool) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error
	ListHistory(ctx context.Context, customerID int64, since time.Time, limit int) ([]models.Order, error)
	FindLatestPlaced(ctx context.Context, customerID int64) (*models.Order, error)
	ListPlacedBetween(ctx context.Context, from, to time.Time, excluded []enums.OrderStatus) ([]models.Order, error)
}

// CustomerResolver maps a chat identity onto a registered customer.
type CustomerResolver interface {
	Get(ctx context.Context, chatID int64) (*models.Customer, error)
}
