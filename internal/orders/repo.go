package orders

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/orderbot-backend/internal/pricing"
	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	"github.com/angelmondragon/orderbot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
)

// MaxLineQuantity caps the units of one product on a single order.
const MaxLineQuantity = 999

type repository struct {
	db *gorm.DB
}

// NewRepository builds the ledger repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOpenCart(ctx context.Context, customerID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status = ?", customerID, enums.OrderStatusCart).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOpenCart loads the customer's CART row under a row lock, so line items
// read afterwards cannot change until the transaction ends.
func (r *repository) LockOpenCart(ctx context.Context, customerID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ? AND status = ?", customerID, enums.OrderStatusCart).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrCreateOpenCart returns the customer's CART row, inserting one when
// absent. Concurrent creators collide on ux_orders_open_cart and both
// re-read the surviving row.
func (r *repository) GetOrCreateOpenCart(ctx context.Context, customerID int64) (*models.Order, error) {
	cart, err := r.FindOpenCart(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	candidate := models.Order{
		CustomerID: customerID,
		Status:     enums.OrderStatusCart,
		Total:      decimal.Zero,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&candidate).Error; err != nil {
		return nil, err
	}
	return r.FindOpenCart(ctx, customerID)
}

func (r *repository) AddLineItem(ctx context.Context, orderID int64, product models.Product, quantity int) (*models.OrderLineItem, error) {
	if err := ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	if _, err := r.lockCart(ctx, orderID); err != nil {
		return nil, err
	}

	item, err := r.findLineItem(ctx, orderID, product.ID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = &models.OrderLineItem{
			OrderID:   orderID,
			ProductID: product.ID,
			Quantity:  quantity,
			Subtotal:  pricing.LineSubtotal(quantity, product.Price),
		}
		if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if item.Quantity > MaxLineQuantity-quantity {
			return nil, quantityTooLarge()
		}
		item.Quantity += quantity
		item.Subtotal = pricing.LineSubtotal(item.Quantity, product.Price)
		if err := r.saveLineItem(ctx, item); err != nil {
			return nil, err
		}
	}

	if err := r.refreshTotal(ctx, orderID); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *repository) SetLineItemQuantity(ctx context.Context, orderID, productID int64, unitPrice decimal.Decimal, quantity int) (*models.OrderLineItem, error) {
	if err := ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	if _, err := r.lockCart(ctx, orderID); err != nil {
		return nil, err
	}

	item, err := r.findLineItem(ctx, orderID, productID)
	if err != nil {
		return nil, err
	}
	item.Quantity = quantity
	item.Subtotal = pricing.LineSubtotal(quantity, unitPrice)
	if err := r.saveLineItem(ctx, item); err != nil {
		return nil, err
	}
	if err := r.refreshTotal(ctx, orderID); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveLineItem deletes one product from the cart and drops the cart row
// once it is empty. The boolean reports whether an item was deleted.
func (r *repository) RemoveLineItem(ctx context.Context, orderID, productID int64) (bool, error) {
	if _, err := r.lockCart(ctx, orderID); err != nil {
		return false, err
	}

	res := r.db.WithContext(ctx).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		Delete(&models.OrderLineItem{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	var remaining int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderLineItem{}).
		Where("order_id = ?", orderID).
		Count(&remaining).Error; err != nil {
		return false, err
	}
	if remaining == 0 {
		if err := r.db.WithContext(ctx).
			Where("id = ? AND status = ?", orderID, enums.OrderStatusCart).
			Delete(&models.Order{}).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if err := r.refreshTotal(ctx, orderID); err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) ListLineItems(ctx context.Context, orderID int64) ([]LineItemView, error) {
	var items []models.OrderLineItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return lineItemViews(items, false), nil
}

// Finalize turns the open cart into a PLACED order and opens a fresh cart
// for the customer. It must run inside the caller's transaction; any error
// leaves the caller to roll back every step.
func (r *repository) Finalize(ctx context.Context, input FinalizeInput) (*FinalizeResult, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	order, err := r.lockCart(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != input.CustomerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart belongs to another customer")
	}

	if err := r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Delete(&models.OrderLineItem{}).Error; err != nil {
		return nil, err
	}

	snapshot := make([]models.OrderLineItem, 0, len(input.Items))
	for _, item := range input.Items {
		snapshot = append(snapshot, models.OrderLineItem{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Subtotal:  pricing.LineSubtotal(item.Quantity, item.UnitPrice),
		})
	}
	if err := r.db.WithContext(ctx).Create(&snapshot).Error; err != nil {
		return nil, err
	}

	placedAt := input.PlacedAt.UTC()
	deliveryTypeID := input.DeliveryTypeID
	updates := map[string]any{
		"status":           enums.OrderStatusPlaced,
		"total":            input.Total,
		"delivery_type_id": &deliveryTypeID,
		"address":          input.Address,
		"deliver_asap":     input.DeliverASAP,
		"delivery_at":      utcPtr(input.DeliveryAt),
		"placed_at":        &placedAt,
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, enums.OrderStatusCart).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	successor := models.Order{
		CustomerID: order.CustomerID,
		Status:     enums.OrderStatusCart,
		Total:      decimal.Zero,
	}
	if err := r.db.WithContext(ctx).Create(&successor).Error; err != nil {
		return nil, err
	}

	return &FinalizeResult{
		OrderID:    order.ID,
		NewCartID:  successor.ID,
		Total:      input.Total,
		PlacedAt:   placedAt,
		ItemsCount: len(snapshot),
	}, nil
}

func (r *repository) FindOrder(ctx context.Context, orderID int64, lock bool) (*models.Order, error) {
	query := r.db.WithContext(ctx).Preload("Customer").Where("id = ?", orderID)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var order models.Order
	if err := query.First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus overwrites the status of a placed order. CART is never a
// valid target and CART rows are never touched.
func (r *repository) UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error {
	if status == enums.OrderStatusCart || !status.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid target status %q", status)
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status <> ?", orderID, enums.OrderStatusCart).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListHistory returns orders placed since the cutoff plus any order still in
// progress, newest first.
func (r *repository) ListHistory(ctx context.Context, customerID int64, since time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.withOrderDetails(r.db.WithContext(ctx)).
		Where("customer_id = ? AND status <> ?", customerID, enums.OrderStatusCart).
		Where("placed_at >= ? OR status NOT IN ?", since.UTC(), []enums.OrderStatus{
			enums.OrderStatusCompleted,
			enums.OrderStatusCancelled,
		}).
		Order("placed_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindLatestPlaced(ctx context.Context, customerID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND status <> ?", customerID, enums.OrderStatusCart).
		Order("placed_at DESC").
		Order("id DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListPlacedBetween(ctx context.Context, from, to time.Time, excluded []enums.OrderStatus) ([]models.Order, error) {
	query := r.withOrderDetails(r.db.WithContext(ctx)).
		Preload("Customer").
		Where("placed_at >= ? AND placed_at < ?", from.UTC(), to.UTC()).
		Where("status <> ?", enums.OrderStatusCart)
	if len(excluded) > 0 {
		query = query.Where("status NOT IN ?", excluded)
	}
	var orders []models.Order
	if err := query.Order("placed_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) withOrderDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("DeliveryType").
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("order_line_items.id ASC")
		}).
		Preload("Items.Product")
}

// lockCart row-locks the order and requires it to still be an open cart.
func (r *repository) lockCart(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusCart {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "order %d is no longer an open cart", orderID)
	}
	return &order, nil
}

func (r *repository) findLineItem(ctx context.Context, orderID, productID int64) (*models.OrderLineItem, error) {
	var item models.OrderLineItem
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND product_id = ?", orderID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) saveLineItem(ctx context.Context, item *models.OrderLineItem) error {
	return r.db.WithContext(ctx).
		Model(item).
		Updates(map[string]any{
			"quantity": item.Quantity,
			"subtotal": item.Subtotal,
		}).Error
}

func (r *repository) refreshTotal(ctx context.Context, orderID int64) error {
	var items []models.OrderLineItem
	if err := r.db.WithContext(ctx).
		Select("subtotal").
		Where("order_id = ?", orderID).
		Find(&items).Error; err != nil {
		return err
	}
	subtotals := make([]decimal.Decimal, 0, len(items))
	for _, item := range items {
		subtotals = append(subtotals, item.Subtotal)
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("total", pricing.SumSubtotals(subtotals)).Error
}

// lineItemViews maps rows for display. Snapshot views derive the unit price
// from the stored subtotal; cart views use the product's current price.
func lineItemViews(items []models.OrderLineItem, snapshot bool) []LineItemView {
	views := make([]LineItemView, 0, len(items))
	for _, item := range items {
		view := LineItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal,
		}
		if item.Product != nil {
			view.Name = item.Product.Name
			view.UnitPrice = item.Product.Price
			view.ProductDeleted = item.Product.IsDeleted
		}
		if snapshot && item.Quantity > 0 {
			view.UnitPrice = item.Subtotal.Div(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		}
		views = append(views, view)
	}
	return views
}

// ValidateQuantity accepts 1..MaxLineQuantity units.
func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be greater than zero")
	}
	if quantity > MaxLineQuantity {
		return quantityTooLarge()
	}
	return nil
}

func quantityTooLarge() error {
	return pkgerrors.Newf(pkgerrors.CodeInvalidQuantity, "quantity must not exceed %d", MaxLineQuantity).
		WithDetails(map[string]any{"max_quantity": MaxLineQuantity})
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
