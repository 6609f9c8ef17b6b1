package cart

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/internal/catalog"
	"github.com/angelmondragon/orderbot-backend/internal/orders"
	"github.com/angelmondragon/orderbot-backend/internal/pricing"
	"github.com/angelmondragon/orderbot-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
)

const chatID int64 = 4242

type cartFixture struct {
	svc     Service
	conn    *gorm.DB
	pizza   models.Product
	cola    models.Product
	ops     *opCounter
	catalog catalog.Repository
}

func newCartFixture(t *testing.T) cartFixture {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	category := dbtest.SeedCategory(t, conn, "Pizza")
	dbtest.SeedCustomer(t, conn, chatID)
	dbtest.SeedDeliveryType(t, conn, "Delivery", "150.00", true)
	dbtest.SeedDeliveryType(t, conn, "Pickup", "0", false)

	logg := logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
	catalogRepo := catalog.NewRepository(conn)
	catalogSvc, err := catalog.NewService(catalogRepo, logg)
	require.NoError(t, err)
	resolver, err := pricing.NewResolver("1000")
	require.NoError(t, err)
	ops := &opCounter{}

	svc, err := NewService(ServiceParams{
		Ledger:        orders.NewRepository(conn),
		Customers:     customerLookup{conn: conn},
		Products:      func(tx *gorm.DB) ProductFinder { return catalog.NewRepository(tx) },
		DeliveryTypes: catalogSvc,
		Pricing:       resolver,
		Tx:            client,
		Metrics:       ops,
		Logger:        logg,
	})
	require.NoError(t, err)

	return cartFixture{
		svc:     svc,
		conn:    conn,
		pizza:   dbtest.SeedProduct(t, conn, category.ID, "Margherita", "500.00"),
		cola:    dbtest.SeedProduct(t, conn, category.ID, "Cola", "90.00"),
		ops:     ops,
		catalog: catalogRepo,
	}
}

func TestAddToCartAccumulatesAndQuotes(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, chatID, f.pizza.ID, 1)
	require.NoError(t, err)
	view, err := f.svc.AddToCart(ctx, chatID, f.pizza.ID, 1)
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(1000).Equal(view.CartTotal))
	require.Len(t, view.Quotes, 2)
	assert.Equal(t, "Delivery", view.Quotes[0].Name)
	assert.True(t, decimal.NewFromInt(150).Equal(view.Quotes[0].DeliveryFee), "1000 is not above the threshold")
	assert.True(t, decimal.NewFromInt(1150).Equal(view.Quotes[0].GrandTotal))

	view, err = f.svc.AddToCart(ctx, chatID, f.cola.ID, 1)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1090).Equal(view.CartTotal))
	assert.True(t, view.Quotes[0].DeliveryFee.IsZero())
	assert.True(t, view.Quotes[0].FeeWaived)
	assert.False(t, view.Quotes[1].FeeWaived)
	assert.Equal(t, 3, f.ops.count)
}

func TestAddToCartRejectsUnknownOrDeletedProduct(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, chatID, 9999, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProductNotFound))

	require.NoError(t, f.catalog.SoftDeleteProduct(ctx, f.cola.ID))
	_, err = f.svc.AddToCart(ctx, chatID, f.cola.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProductNotFound))

	_, err = f.svc.AddToCart(ctx, chatID, f.pizza.ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity))

	var carts int64
	require.NoError(t, f.conn.Model(&models.Order{}).Count(&carts).Error)
	assert.Zero(t, carts, "failed adds must not leave a cart behind")
}

func TestAddToCartRejectsQuantityPastCap(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, chatID, f.pizza.ID, 1<<62)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity))
	assert.False(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, err = f.svc.AddToCart(ctx, chatID, f.pizza.ID, orders.MaxLineQuantity)
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, chatID, f.pizza.ID, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity))

	_, err = f.svc.EditQuantity(ctx, chatID, f.pizza.ID, orders.MaxLineQuantity+1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity))

	view, err := f.svc.ViewCart(ctx, chatID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, orders.MaxLineQuantity, view.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(499500).Equal(view.CartTotal))
}

func TestAddToCartRequiresRegistration(t *testing.T) {
	f := newCartFixture(t)

	_, err := f.svc.AddToCart(context.Background(), 1, f.pizza.ID, 1)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestViewCartEmpty(t *testing.T) {
	f := newCartFixture(t)

	view, err := f.svc.ViewCart(context.Background(), chatID)
	require.NoError(t, err)
	assert.True(t, view.IsEmpty())
	assert.True(t, view.CartTotal.IsZero())
	assert.Empty(t, view.Quotes)
}

func TestEditQuantityKeepsPriorOnInvalidInput(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, chatID, f.cola.ID, 3)
	require.NoError(t, err)

	_, err = f.svc.EditQuantity(ctx, chatID, f.cola.ID, 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity))
	view, err := f.svc.ViewCart(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Items[0].Quantity)

	view, err = f.svc.EditQuantity(ctx, chatID, f.cola.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, view.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(450).Equal(view.CartTotal))

	_, err = f.svc.EditQuantity(ctx, chatID, f.pizza.ID, 1)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRemoveItemDiscardsEmptyCart(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.svc.RemoveItem(ctx, chatID, f.pizza.ID)
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = f.svc.AddToCart(ctx, chatID, f.pizza.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.RemoveItem(ctx, chatID, f.cola.ID)
	assert.True(t, pkgerrors.IsNotFound(err))

	view, err := f.svc.RemoveItem(ctx, chatID, f.pizza.ID)
	require.NoError(t, err)
	assert.True(t, view.IsEmpty())
	assert.Zero(t, view.OrderID)
}

type opCounter struct {
	count int
}

func (o *opCounter) IncCartOp(op string) { o.count++ }

type customerLookup struct {
	conn *gorm.DB
}

func (c customerLookup) Get(ctx context.Context, chatID int64) (*models.Customer, error) {
	var customer models.Customer
	if err := c.conn.WithContext(ctx).Where("chat_id = ?", chatID).First(&customer).Error; err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not registered")
	}
	return &customer, nil
}
