package models

import "time"

// Admin is an operator allowed to manage the menu and order statuses.
type Admin struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ChatID       int64     `gorm:"column:chat_id;not null;uniqueIndex:ux_admins_chat_id"`
	Name         *string   `gorm:"column:name"`
	Phone        *string   `gorm:"column:phone"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
