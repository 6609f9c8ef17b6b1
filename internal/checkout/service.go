package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/internal/checkout/helpers"
	"github.com/angelmondragon/orderbot-backend/internal/orders"
	"github.com/angelmondragon/orderbot-backend/internal/pricing"
	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	"github.com/angelmondragon/orderbot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
	"github.com/angelmondragon/orderbot-backend/pkg/outbox"
	"github.com/angelmondragon/orderbot-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type deliveryTypeFinder interface {
	GetDeliveryType(ctx context.Context, id int64) (*models.DeliveryType, error)
}

type placedRecorder interface {
	IncPlaced()
}

// Service drives the checkout wizard and turns a cart into a placed order.
type Service interface {
	GetDraft(ctx context.Context, chatID int64) (*DraftView, error)
	UpdateDraft(ctx context.Context, chatID int64, patch DraftPatch) (*DraftView, error)
	ClearDraft(ctx context.Context, chatID int64) error
	SubmitDraft(ctx context.Context, chatID int64) (*Confirmation, error)
	SubmitOrder(ctx context.Context, chatID int64, submission Submission) (*Confirmation, error)
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Ledger        orders.Repository
	Customers     orders.CustomerResolver
	DeliveryTypes deliveryTypeFinder
	Drafts        DraftStore
	Pricing       pricing.Resolver
	Tx            txRunner
	Outbox        outbox.Emitter
	Metrics       placedRecorder
	Logger        *logger.Logger
	Location      *time.Location
	Now           func() time.Time
}

type service struct {
	ledger        orders.Repository
	customers     orders.CustomerResolver
	deliveryTypes deliveryTypeFinder
	drafts        DraftStore
	pricing       pricing.Resolver
	tx            txRunner
	outbox        outbox.Emitter
	metrics       placedRecorder
	logg          *logger.Logger
	loc           *time.Location
	now           func() time.Time
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Ledger == nil {
		return nil, fmt.Errorf("orders ledger required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer resolver required")
	}
	if params.DeliveryTypes == nil {
		return nil, fmt.Errorf("delivery type finder required")
	}
	if params.Drafts == nil {
		return nil, fmt.Errorf("draft store required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		ledger:        params.Ledger,
		customers:     params.Customers,
		deliveryTypes: params.DeliveryTypes,
		drafts:        params.Drafts,
		pricing:       params.Pricing,
		tx:            params.Tx,
		outbox:        params.Outbox,
		metrics:       params.Metrics,
		logg:          params.Logger,
		loc:           loc,
		now:           now,
	}, nil
}

func (s *service) GetDraft(ctx context.Context, chatID int64) (*DraftView, error) {
	draft, err := s.loadDraft(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	return draftView(draft), nil
}

// UpdateDraft validates and stores wizard answers. Starting a new draft
// requires a non-empty cart; changing the delivery type drops answers that
// no longer apply.
func (s *service) UpdateDraft(ctx context.Context, chatID int64, patch DraftPatch) (*DraftView, error) {
	customer, err := s.customers.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	draft, err := s.loadDraft(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		if err := s.requireItems(ctx, customer.ID); err != nil {
			return nil, err
		}
		draft = &Draft{ChatID: chatID}
	}

	if patch.DeliveryTypeID != nil {
		deliveryType, err := s.deliveryTypes.GetDeliveryType(ctx, *patch.DeliveryTypeID)
		if err != nil {
			return nil, err
		}
		if draft.DeliveryTypeID == nil || *draft.DeliveryTypeID != deliveryType.ID {
			draft.Consent = false
		}
		id := deliveryType.ID
		draft.DeliveryTypeID = &id
		draft.DeliveryTypeName = deliveryType.Name
		draft.RequiresAddress = deliveryType.RequiresAddress
		if !deliveryType.RequiresAddress {
			draft.Address = nil
		}
	}

	if patch.Address != nil {
		if draft.DeliveryTypeID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "choose a delivery type first")
		}
		address, err := helpers.ValidateAddress(&models.DeliveryType{
			ID:              *draft.DeliveryTypeID,
			RequiresAddress: draft.RequiresAddress,
		}, patch.Address)
		if err != nil {
			return nil, err
		}
		draft.Address = address
	}

	if patch.Time != nil {
		value, err := helpers.ValidateDeliveryTime(*patch.Time, s.localNow())
		if err != nil {
			return nil, err
		}
		draft.Time = value.String()
	}

	if patch.Consent != nil {
		if *patch.Consent && draft.NextStep() != StepConsent && draft.NextStep() != StepReady {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout is incomplete").
				WithDetails(map[string]any{"next_step": draft.NextStep()})
		}
		draft.Consent = *patch.Consent
	}

	draft.UpdatedAt = s.now().UTC()
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout draft")
	}
	return draftView(draft), nil
}

func (s *service) ClearDraft(ctx context.Context, chatID int64) error {
	if err := s.drafts.Clear(ctx, chatID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear checkout draft")
	}
	s.logg.Debug(s.logg.WithChatID(ctx, chatID), "checkout draft cleared")
	return nil
}

// SubmitDraft places the order assembled by the wizard and discards the draft.
func (s *service) SubmitDraft(ctx context.Context, chatID int64) (*Confirmation, error) {
	draft, err := s.loadDraft(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no checkout in progress")
	}
	if step := draft.NextStep(); step != StepReady {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout is incomplete").
			WithDetails(map[string]any{"next_step": step})
	}

	confirmation, err := s.SubmitOrder(ctx, chatID, draft.Submission())
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Clear(ctx, chatID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout draft not cleared after submit")
	}
	return confirmation, nil
}

// SubmitOrder validates a complete submission and finalizes the customer's
// cart. Nothing is written when validation fails or the cart is empty.
func (s *service) SubmitOrder(ctx context.Context, chatID int64, submission Submission) (*Confirmation, error) {
	if err := helpers.ValidateConsent(submission.Consent); err != nil {
		return nil, err
	}
	customer, err := s.customers.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if submission.DeliveryTypeID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery type is required")
	}
	deliveryType, err := s.deliveryTypes.GetDeliveryType(ctx, submission.DeliveryTypeID)
	if err != nil {
		return nil, err
	}
	address, err := helpers.ValidateAddress(deliveryType, submission.Address)
	if err != nil {
		return nil, err
	}
	now := s.localNow()
	deliveryTime, err := helpers.ValidateDeliveryTime(submission.Time, now)
	if err != nil {
		return nil, err
	}

	placedAt := now.UTC()
	deliveryAt := deliveryTime.Resolve(placedAt).UTC()
	confirmation := &Confirmation{
		Status:       enums.OrderStatusPlaced,
		DeliveryType: deliveryType.Name,
		Address:      address,
		DeliverASAP:  deliveryTime.ASAP,
		DeliveryAt:   &deliveryAt,
		PlacedAt:     placedAt,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ledger := s.ledger.WithTx(tx)
		cart, err := ledger.LockOpenCart(ctx, customer.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		items, err := ledger.ListLineItems(ctx, cart.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		lines := make([]pricing.Line, 0, len(items))
		finalizeItems := make([]orders.FinalizeItem, 0, len(items))
		for _, item := range items {
			if item.ProductDeleted {
				return pkgerrors.New(pkgerrors.CodeProductNotFound, "a product in the cart is no longer available").
					WithDetails(map[string]any{"product_id": item.ProductID, "name": item.Name})
			}
			lines = append(lines, pricing.Line{Quantity: item.Quantity, UnitPrice: item.UnitPrice})
			finalizeItems = append(finalizeItems, orders.FinalizeItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}
		quote := s.pricing.Quote(pricing.CartTotal(lines), deliveryType.Fee)

		result, err := ledger.Finalize(ctx, orders.FinalizeInput{
			OrderID:        cart.ID,
			CustomerID:     customer.ID,
			Items:          finalizeItems,
			DeliveryTypeID: deliveryType.ID,
			Address:        address,
			DeliverASAP:    deliveryTime.ASAP,
			DeliveryAt:     &deliveryAt,
			Total:          quote.GrandTotal,
			PlacedAt:       placedAt,
		})
		if err != nil {
			if pkgerrors.As(err) != nil {
				return err
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize order")
		}

		confirmation.OrderID = result.OrderID
		confirmation.CartTotal = quote.CartTotal
		confirmation.DeliveryFee = quote.DeliveryFee
		confirmation.FeeWaived = quote.FeeWaived
		confirmation.Total = result.Total
		confirmation.Items = snapshotItems(items)

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   result.OrderID,
			Actor:         &outbox.ActorRef{ChatID: chatID, Role: "customer"},
			Data: payloads.OrderPlacedEvent{
				OrderID:        result.OrderID,
				CustomerID:     customer.ID,
				ChatID:         chatID,
				Total:          result.Total,
				DeliveryTypeID: deliveryType.ID,
				DeliverASAP:    deliveryTime.ASAP,
				DeliveryAt:     &deliveryAt,
				PlacedAt:       placedAt,
			},
			OccurredAt: placedAt,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order placed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncPlaced()
	}
	logCtx := s.logg.WithFields(s.logg.WithChatID(ctx, chatID), map[string]any{
		"order_id":      confirmation.OrderID,
		"total":         confirmation.Total.String(),
		"delivery_type": confirmation.DeliveryType,
		"deliver_asap":  confirmation.DeliverASAP,
	})
	s.logg.Info(logCtx, "order placed")
	return confirmation, nil
}

func (s *service) loadDraft(ctx context.Context, chatID int64) (*Draft, error) {
	draft, err := s.drafts.Get(ctx, chatID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout draft")
	}
	return draft, nil
}

func (s *service) requireItems(ctx context.Context, customerID int64) error {
	cart, err := s.ledger.FindOpenCart(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	items, err := s.ledger.ListLineItems(ctx, cart.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart items")
	}
	if len(items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	return nil
}

func (s *service) localNow() time.Time {
	return s.now().In(s.loc)
}

// snapshotItems reprices the confirmation lines at the prices written by Finalize.
func snapshotItems(items []orders.LineItemView) []orders.LineItemView {
	out := make([]orders.LineItemView, 0, len(items))
	for _, item := range items {
		item.Subtotal = pricing.LineSubtotal(item.Quantity, item.UnitPrice)
		out = append(out, item)
	}
	return out
}
