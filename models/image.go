package models

import "gorm.io/gorm"

// Image is the metadata record for an uploaded file. The binary itself lives on
// disk; URL points at it through the public /uploads/ prefix.
type Image struct {
	gorm.Model
	Name        string `gorm:"not null"`
	Description string
	URL         string `gorm:"not null"`
	UserID      uint   `gorm:"index;not null"`
	User        User   `gorm:"foreignKey:UserID" json:"-"`
}
