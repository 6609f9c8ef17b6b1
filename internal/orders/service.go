package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	"github.com/angelmondragon/orderbot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
	"github.com/angelmondragon/orderbot-backend/pkg/outbox"
	"github.com/angelmondragon/orderbot-backend/pkg/outbox/payloads"
)

const (
	defaultHistoryWindowDays = 2
	defaultHistoryLimit      = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type statusRecorder interface {
	ObserveStatusChange(from, to string, anomalous bool)
}

// Service is the order lifecycle controller.
type Service interface {
	SetStatus(ctx context.Context, input StatusChangeInput) (*StatusChangeResult, error)
	Cancel(ctx context.Context, orderID int64, actor Actor) (*StatusChangeResult, error)
	CancelByCustomer(ctx context.Context, chatID, orderID int64) (*StatusChangeResult, error)
	History(ctx context.Context, chatID int64, windowDays int) ([]OrderSummary, error)
	LatestStatus(ctx context.Context, chatID int64) (*LatestStatus, error)
	TodaysOrders(ctx context.Context) ([]TodayOrder, error)
}

// ServiceParams wires the lifecycle controller.
type ServiceParams struct {
	Repo                Repository
	Customers           CustomerResolver
	Tx                  txRunner
	Outbox              outbox.Emitter
	Metrics             statusRecorder
	Logger              *logger.Logger
	Location            *time.Location
	HistoryWindowDays   int
	HistoryLimit        int
	AllowCustomerCancel bool
	Now                 func() time.Time
}

type service struct {
	repo                Repository
	customers           CustomerResolver
	tx                  txRunner
	outbox              outbox.Emitter
	metrics             statusRecorder
	logg                *logger.Logger
	loc                 *time.Location
	windowDays          int
	historyLimit        int
	allowCustomerCancel bool
	now                 func() time.Time
}

// NewService builds the lifecycle controller with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer resolver required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	svc := &service{
		repo:                params.Repo,
		customers:           params.Customers,
		tx:                  params.Tx,
		outbox:              params.Outbox,
		metrics:             params.Metrics,
		logg:                params.Logger,
		loc:                 params.Location,
		windowDays:          params.HistoryWindowDays,
		historyLimit:        params.HistoryLimit,
		allowCustomerCancel: params.AllowCustomerCancel,
		now:                 params.Now,
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.windowDays <= 0 {
		svc.windowDays = defaultHistoryWindowDays
	}
	if svc.historyLimit <= 0 {
		svc.historyLimit = defaultHistoryLimit
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// SetStatus overwrites the order status. Transitions outside the usual
// progression are applied and reported as anomalous.
func (s *service) SetStatus(ctx context.Context, input StatusChangeInput) (*StatusChangeResult, error) {
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order status %q", input.Status)
	}
	if input.Status == enums.OrderStatusCart {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "CART is not a valid target status")
	}

	return s.changeStatus(ctx, input, nil)
}

func (s *service) Cancel(ctx context.Context, orderID int64, actor Actor) (*StatusChangeResult, error) {
	return s.SetStatus(ctx, StatusChangeInput{
		OrderID: orderID,
		Status:  enums.OrderStatusCancelled,
		Actor:   actor,
	})
}

// CancelByCustomer lets a customer cancel one of their own orders that is
// still in progress.
func (s *service) CancelByCustomer(ctx context.Context, chatID, orderID int64) (*StatusChangeResult, error) {
	if !s.allowCustomerCancel {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customer cancellation is disabled")
	}
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	customer, err := s.customers.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	input := StatusChangeInput{
		OrderID: orderID,
		Status:  enums.OrderStatusCancelled,
		Actor:   Actor{ChatID: chatID, Role: "customer"},
	}
	return s.changeStatus(ctx, input, func(order *models.Order) error {
		if order.CustomerID != customer.ID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status.IsTerminal() {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is already %s", order.Status)
		}
		return nil
	})
}

func (s *service) changeStatus(ctx context.Context, input StatusChangeInput, guard func(*models.Order) error) (*StatusChangeResult, error) {
	ctx = s.logg.WithOrderID(ctx, input.OrderID)
	var result StatusChangeResult

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, input.OrderID, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == enums.OrderStatusCart {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if guard != nil {
			if err := guard(order); err != nil {
				return err
			}
		}

		from := order.Status
		if err := repo.UpdateStatus(ctx, order.ID, input.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		var chatID int64
		if order.Customer != nil {
			chatID = order.Customer.ChatID
		}
		result = StatusChangeResult{
			OrderID:   order.ID,
			ChatID:    chatID,
			From:      from,
			To:        input.Status,
			Anomalous: !enums.IsExpectedTransition(from, input.Status),
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         buildActor(input.Actor),
			OccurredAt:    s.now().UTC(),
			Data: payloads.OrderStatusChangedEvent{
				OrderID:   order.ID,
				ChatID:    chatID,
				From:      from,
				To:        input.Status,
				Anomalous: result.Anomalous,
				ChangedAt: s.now().UTC(),
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ObserveStatusChange(result.From.String(), result.To.String(), result.Anomalous)
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"from":       result.From,
		"to":         result.To,
		"actor_chat": input.Actor.ChatID,
	})
	if result.Anomalous {
		s.logg.Warn(logCtx, "order status changed outside the usual progression")
	} else {
		s.logg.Info(logCtx, "order status changed")
	}
	return &result, nil
}

// History lists orders placed since local midnight windowDays days ago plus
// anything still open.
func (s *service) History(ctx context.Context, chatID int64, windowDays int) ([]OrderSummary, error) {
	if windowDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "window_days must not be negative")
	}
	if windowDays == 0 {
		windowDays = s.windowDays
	}
	customer, err := s.customers.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	dayStart, _ := dayBounds(s.now(), s.loc)
	since := dayStart.AddDate(0, 0, -windowDays)
	rows, err := s.repo.ListHistory(ctx, customer.ID, since, s.historyLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order history")
	}
	summaries := make([]OrderSummary, 0, len(rows))
	for i := range rows {
		summaries = append(summaries, summarize(&rows[i]))
	}
	return summaries, nil
}

func (s *service) LatestStatus(ctx context.Context, chatID int64) (*LatestStatus, error) {
	customer, err := s.customers.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindLatestPlaced(ctx, customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no orders yet")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest order")
	}
	return &LatestStatus{
		OrderID:  order.ID,
		Status:   order.Status,
		PlacedAt: order.PlacedAt,
	}, nil
}

// TodaysOrders lists orders placed during the current local day that still
// need attention.
func (s *service) TodaysOrders(ctx context.Context) ([]TodayOrder, error) {
	from, to := dayBounds(s.now(), s.loc)
	rows, err := s.repo.ListPlacedBetween(ctx, from, to, []enums.OrderStatus{enums.OrderStatusCompleted})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list today's orders")
	}
	out := make([]TodayOrder, 0, len(rows))
	for i := range rows {
		entry := TodayOrder{OrderSummary: summarize(&rows[i])}
		if rows[i].Customer != nil {
			entry.CustomerName = rows[i].Customer.Name
			entry.CustomerPhone = rows[i].Customer.Phone
			entry.ChatID = rows[i].Customer.ChatID
		}
		out = append(out, entry)
	}
	return out, nil
}

func summarize(order *models.Order) OrderSummary {
	summary := OrderSummary{
		OrderID:     order.ID,
		Status:      order.Status,
		Total:       order.Total,
		Address:     order.Address,
		DeliverASAP: order.DeliverASAP,
		DeliveryAt:  order.DeliveryAt,
		PlacedAt:    order.PlacedAt,
		Items:       lineItemViews(order.Items, true),
	}
	if order.DeliveryType != nil {
		summary.DeliveryType = order.DeliveryType.Name
	}
	return summary
}

// dayBounds returns [start, end) of the local day containing now.
func dayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func buildActor(actor Actor) *outbox.ActorRef {
	if actor.ChatID == 0 && actor.Role == "" {
		return nil
	}
	return &outbox.ActorRef{ChatID: actor.ChatID, Role: actor.Role}
}
