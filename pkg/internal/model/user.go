package model

import "time"

// User is a registered account.
type User struct {
	ID           string    `gorm:"primaryKey;size:26"   json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex"  json:"username"`
	FullName     string    `gorm:"size:255"             json:"fullName"`
	Gender       string    `gorm:"size:16"              json:"gender"`
	PasswordHash string    `gorm:"size:255;not null"    json:"-"`
	CreatedAt    time.Time `gorm:"not null"             json:"createdAt"`
}

// TableName pins the table name.
func (User) TableName() string { return "users" }
