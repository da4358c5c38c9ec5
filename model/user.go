package model

import (
	"time"

	"gorm.io/gorm"
)

// User is created lazily on first successful sign-in, keyed by the email the
// one-time link or OAuth provider resolved to.
type User struct {
	Id        string         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	DeletedAt gorm.DeletedAt `json:"-"`
	Email     string         `gorm:"uniqueIndex" json:"email"`
}
