// Package dbtest opens throwaway sqlite databases with the full schema for package tests.
package dbtest

import (
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/orderbot-backend/pkg/db"
	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
)

// Open returns a client backed by a private in-memory sqlite database.
func Open(t testing.TB) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return db.Wrap(conn)
}

func SeedCustomer(t testing.TB, conn *gorm.DB, chatID int64) models.Customer {
	t.Helper()
	customer := models.Customer{ChatID: chatID, Name: fmt.Sprintf("customer-%d", chatID), Phone: "+70000000000"}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return customer
}

func SeedCategory(t testing.TB, conn *gorm.DB, name string) models.Category {
	t.Helper()
	category := models.Category{Name: name}
	if err := conn.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return category
}

func SeedProduct(t testing.TB, conn *gorm.DB, categoryID int64, name, price string) models.Product {
	t.Helper()
	product := models.Product{
		CategoryID: categoryID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func SeedDeliveryType(t testing.TB, conn *gorm.DB, name, fee string, requiresAddress bool) models.DeliveryType {
	t.Helper()
	deliveryType := models.DeliveryType{
		Name:            name,
		Fee:             decimal.RequireFromString(fee),
		RequiresAddress: requiresAddress,
	}
	if err := conn.Create(&deliveryType).Error; err != nil {
		t.Fatalf("seed delivery type: %v", err)
	}
	return deliveryType
}
