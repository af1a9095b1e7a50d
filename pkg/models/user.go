package models

import (
	"time"
)

// User mirrors the identity provider's subject locally so orders can reference it.
// The identity provider stays authoritative for authentication.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(128)" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Email     string    `gorm:"type:varchar(254);index" json:"email"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
