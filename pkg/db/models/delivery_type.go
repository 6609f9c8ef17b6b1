package models

import "github.com/shopspring/decimal"

// DeliveryType is a fulfilment option such as courier delivery or pickup.
type DeliveryType struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name            string          `gorm:"column:name;not null;uniqueIndex:ux_delivery_types_name"`
	Fee             decimal.Decimal `gorm:"column:fee;type:numeric(12,2);not null"`
	RequiresAddress bool            `gorm:"column:requires_address;not null;default:false"`
}
