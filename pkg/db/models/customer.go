package models

import "time"

// Customer is a chat user who registered a name and phone number.
type Customer struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ChatID    int64     `gorm:"column:chat_id;not null;uniqueIndex:ux_customers_chat_id"`
	Name      string    `gorm:"column:name;not null"`
	Phone     string    `gorm:"column:phone;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
