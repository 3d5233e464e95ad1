package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User holds dashboard credentials. Passwords are compared in plaintext,
// same as the spreadsheet-era tool this replaces.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username  string    `gorm:"column:usuario;uniqueIndex"`
	Password  string    `gorm:"column:senha"`
	Role      string    `gorm:"column:tipo"`
	CreatedAt time.Time
}

func (User) TableName() string {
	return "usuarios"
}
