package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a menu item. Deleted products stay in the table so historical
// line items keep resolving their name.
type Product struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CategoryID  int64           `gorm:"column:category_id;not null;index:idx_products_category_id"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ImageRef    *string         `gorm:"column:image_ref"`
	IsDeleted   bool            `gorm:"column:is_deleted;not null;default:false"`
	Category    *Category       `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
