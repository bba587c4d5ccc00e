package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null" json:"-"` // Don't expose password hash
	Name     string
	Role     Role    `gorm:"type:varchar(16);default:'USER';not null"`
	Images   []Image `gorm:"constraint:OnDelete:CASCADE;"` // One-to-Many relationship with Image
}
