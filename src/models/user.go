package models

import "cafe/src/types"

type User struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Email string `gorm:"uniqueIndex" json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `gorm:"default:'customer'" json:"role,omitempty"`

	types.Timestamps
}
