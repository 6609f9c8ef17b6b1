package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/internal/catalog"
	"github.com/angelmondragon/orderbot-backend/internal/orders"
	"github.com/angelmondragon/orderbot-backend/internal/pricing"
	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
)

const (
	opAdd    = "add"
	opEdit   = "edit"
	opRemove = "remove"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProductFinder resolves products inside the caller's transaction.
type ProductFinder interface {
	FindProduct(ctx context.Context, id int64, includeDeleted bool) (*models.Product, error)
}

// ProductFinderFactory binds a ProductFinder to a transaction.
type ProductFinderFactory func(tx *gorm.DB) ProductFinder

type deliveryTypeLister interface {
	ListDeliveryTypes(ctx context.Context) ([]catalog.DeliveryTypeDTO, error)
}

type cartRecorder interface {
	IncCartOp(op string)
}

// Service is the customer-facing cart.
type Service interface {
	AddToCart(ctx context.Context, chatID, productID int64, quantity int) (*CartView, error)
	ViewCart(ctx context.Context, chatID int64) (*CartView, error)
	EditQuantity(ctx context.Context, chatID, productID int64, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, chatID, productID int64) (*CartView, error)
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Ledger        orders.Repository
	Customers     orders.CustomerResolver
	Products      ProductFinderFactory
	DeliveryTypes deliveryTypeLister
	Pricing       pricing.Resolver
	Tx            txRunner
	Metrics       cartRecorder
	Logger        *logger.Logger
}

type service struct {
	ledger        orders.Repository
	customers     orders.CustomerResolver
	products      ProductFinderFactory
	deliveryTypes deliveryTypeLister
	pricing       pricing.Resolver
	tx            txRunner
	metrics       cartRecorder
	logg          *logger.Logger
}

// NewService builds the cart service.
func NewService(params ServiceParams) (Service, error) {
	if params.Ledger == nil {
		return nil, fmt.Errorf("orders ledger required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer resolver required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	if params.DeliveryTypes == nil {
		return nil, fmt.Errorf("delivery type lister required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		ledger:        params.Ledger,
		customers:     params.Customers,
		products:      params.Products,
		deliveryTypes: params.DeliveryTypes,
		pricing:       params.Pricing,
		tx:            params.Tx,
		metrics:       params.Metrics,
		logg:          params.Logger,
	}, nil
}

// AddToCart adds quantity units of an available product, opening a cart when
// the customer has none. Lookup and write share one transaction.
func (s *service) AddToCart(ctx context.Context, chatID, productID int64, quantity int) (*CartView, error) {
	if err := orders.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	customer, err := s.customers.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.products(tx).FindProduct(ctx, productID, false)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		ledger := s.ledger.WithTx(tx)
		cart, err := ledger.GetOrCreateOpenCart(ctx, customer.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open cart")
		}
		if _, err := ledger.AddLineItem(ctx, cart.ID, *product, quantity); err != nil {
			return ledgerError(err, "add line item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, chatID, opAdd, productID)
	return s.ViewCart(ctx, chatID)
}

// ViewCart returns the open cart. A customer without a cart gets an empty view.
func (s *service) ViewCart(ctx context.Context, chatID int64) (*CartView, error) {
	customer, err := s.customers.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	cart, err := s.ledger.FindOpenCart(ctx, customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CartView{Items: []orders.LineItemView{}, CartTotal: decimal.Zero, Quotes: []DeliveryQuote{}}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	items, err := s.ledger.ListLineItems(ctx, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}

	subtotals := make([]decimal.Decimal, 0, len(items))
	for _, item := range items {
		subtotals = append(subtotals, item.Subtotal)
	}
	view := &CartView{
		OrderID:   cart.ID,
		Items:     items,
		CartTotal: pricing.SumSubtotals(subtotals),
		Quotes:    []DeliveryQuote{},
	}
	if len(items) == 0 {
		return view, nil
	}

	types, err := s.deliveryTypes.ListDeliveryTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, deliveryType := range types {
		quote := s.pricing.Quote(view.CartTotal, deliveryType.Fee)
		view.Quotes = append(view.Quotes, DeliveryQuote{
			DeliveryTypeID:  deliveryType.ID,
			Name:            deliveryType.Name,
			RequiresAddress: deliveryType.RequiresAddress,
			BaseFee:         deliveryType.Fee,
			DeliveryFee:     quote.DeliveryFee,
			FeeWaived:       quote.FeeWaived,
			GrandTotal:      quote.GrandTotal,
		})
	}
	return view, nil
}

// EditQuantity overwrites the quantity of a product already in the cart.
// Invalid quantities leave the stored quantity untouched.
func (s *service) EditQuantity(ctx context.Context, chatID, productID int64, quantity int) (*CartView, error) {
	if err := orders.ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	customer, err := s.customers.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		cart, err := ledger.FindOpenCart(ctx, customer.ID)
		if err != nil {
			return cartLookupError(err)
		}
		product, err := s.products(tx).FindProduct(ctx, productID, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if _, err := ledger.SetLineItemQuantity(ctx, cart.ID, productID, product.Price, quantity); err != nil {
			return ledgerError(err, "update line item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, chatID, opEdit, productID)
	return s.ViewCart(ctx, chatID)
}

// RemoveItem drops a product from the cart; removing the last item discards the cart.
func (s *service) RemoveItem(ctx context.Context, chatID, productID int64) (*CartView, error) {
	customer, err := s.customers.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		cart, err := ledger.FindOpenCart(ctx, customer.ID)
		if err != nil {
			return cartLookupError(err)
		}
		removed, err := ledger.RemoveLineItem(ctx, cart.ID, productID)
		if err != nil {
			return ledgerError(err, "remove line item")
		}
		if !removed {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, chatID, opRemove, productID)
	return s.ViewCart(ctx, chatID)
}

func (s *service) record(ctx context.Context, chatID int64, op string, productID int64) {
	if s.metrics != nil {
		s.metrics.IncCartOp(op)
	}
	logCtx := s.logg.WithFields(s.logg.WithChatID(ctx, chatID), map[string]any{
		"cart_op":    op,
		"product_id": productID,
	})
	s.logg.Debug(logCtx, "cart updated")
}

func cartLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
}

// ledgerError keeps typed ledger failures and maps storage errors.
func ledgerError(err error, op string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
