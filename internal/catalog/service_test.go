package catalog

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderbot-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/orderbot-backend/pkg/errors"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
)

func newCatalogService(t *testing.T) (Service, *testFixture) {
	t.Helper()
	client := dbtest.Open(t)
	conn := client.DB()
	fixture := &testFixture{}
	fixture.pizzaID = dbtest.SeedCategory(t, conn, "Pizza").ID
	fixture.drinksID = dbtest.SeedCategory(t, conn, "Drinks").ID
	fixture.margheritaID = dbtest.SeedProduct(t, conn, fixture.pizzaID, "Margherita", "450.00").ID
	fixture.pepperoniID = dbtest.SeedProduct(t, conn, fixture.pizzaID, "Pepperoni", "520.00").ID
	fixture.deliveryID = dbtest.SeedDeliveryType(t, conn, "Delivery", "150.00", true).ID
	dbtest.SeedDeliveryType(t, conn, "Pickup", "0", false)

	logg := logger.New(logger.Options{ServiceName: "catalog-test", Output: io.Discard})
	svc, err := NewService(NewRepository(conn), logg)
	require.NoError(t, err)
	return svc, fixture
}

type testFixture struct {
	pizzaID      int64
	drinksID     int64
	margheritaID int64
	pepperoniID  int64
	deliveryID   int64
}

func TestListCategoriesOrderedByID(t *testing.T) {
	svc, f := newCatalogService(t)

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, f.pizzaID, categories[0].ID)
	assert.Equal(t, "Drinks", categories[1].Name)
}

func TestSoftDeletedProductsHiddenFromBrowsing(t *testing.T) {
	svc, f := newCatalogService(t)
	ctx := context.Background()

	require.NoError(t, svc.SoftDeleteProduct(ctx, f.pepperoniID))
	require.NoError(t, svc.SoftDeleteProduct(ctx, f.pepperoniID))

	products, err := svc.ListAvailableProducts(ctx, f.pizzaID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, f.margheritaID, products[0].ID)

	_, err = svc.GetAvailableProduct(ctx, f.pepperoniID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProductNotFound))

	err = svc.SoftDeleteProduct(ctx, 9999)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProductNotFound))
}

func TestListAvailableProductsUnknownCategory(t *testing.T) {
	svc, f := newCatalogService(t)

	empty, err := svc.ListAvailableProducts(context.Background(), f.drinksID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.ListAvailableProducts(context.Background(), 12345)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestAddProductValidatesInput(t *testing.T) {
	svc, f := newCatalogService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input AddProductInput
		code  pkgerrors.Code
	}{
		{"missing name", AddProductInput{CategoryID: f.drinksID, Price: decimal.NewFromInt(100)}, pkgerrors.CodeValidation},
		{"zero price", AddProductInput{CategoryID: f.drinksID, Name: "Water", Price: decimal.Zero}, pkgerrors.CodeValidation},
		{"sub-cent price", AddProductInput{CategoryID: f.drinksID, Name: "Water", Price: decimal.RequireFromString("1.005")}, pkgerrors.CodeValidation},
		{"price above column range", AddProductInput{CategoryID: f.drinksID, Name: "Water", Price: decimal.RequireFromString("10000000000")}, pkgerrors.CodeValidation},
		{"long cyrillic name", AddProductInput{CategoryID: f.drinksID, Name: strings.Repeat("Ж", 129), Price: decimal.NewFromInt(50)}, pkgerrors.CodeValidation},
		{"long description", AddProductInput{CategoryID: f.drinksID, Name: "Water", Description: strings.Repeat("a", 1025), Price: decimal.NewFromInt(50)}, pkgerrors.CodeValidation},
		{"unknown category", AddProductInput{CategoryID: 777, Name: "Water", Price: decimal.NewFromInt(50)}, pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddProduct(ctx, tc.input)
			assert.True(t, pkgerrors.IsCode(err, tc.code), "got %v", err)
		})
	}

	created, err := svc.AddProduct(ctx, AddProductInput{
		CategoryID:  f.drinksID,
		Name:        "  Lemonade ",
		Description: "house made",
		Price:       decimal.RequireFromString("120.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Lemonade", created.Name)

	products, err := svc.ListAvailableProducts(ctx, f.drinksID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, decimal.RequireFromString("120.5").Equal(products[0].Price))
}

func TestDeliveryTypes(t *testing.T) {
	svc, f := newCatalogService(t)
	ctx := context.Background()

	types, err := svc.ListDeliveryTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.True(t, types[0].RequiresAddress)
	assert.False(t, types[1].RequiresAddress)

	deliveryType, err := svc.GetDeliveryType(ctx, f.deliveryID)
	require.NoError(t, err)
	assert.Equal(t, "Delivery", deliveryType.Name)

	_, err = svc.GetDeliveryType(ctx, 404)
	assert.True(t, pkgerrors.IsNotFound(err))
}
