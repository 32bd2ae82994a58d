package models

import (
	"time"

	"cafe/src/types"
)

type DiscountCode struct {
	ID             uint               `gorm:"primarykey" json:"id"`
	Code           string             `gorm:"uniqueIndex" json:"code"`
	Name           string             `json:"name,omitempty"`
	Type           types.DiscountType `json:"type"`
	Value          int64              `json:"value"`
	MinOrderAmount int64              `json:"min_order_amount"`
	MaxUses        *uint              `json:"max_uses,omitempty"`
	UsedCount      uint               `gorm:"default:0" json:"used_count"`
	CoinsCost      int64              `json:"coins_cost"`
	ExpiresAt      time.Time          `json:"expires_at"`

	types.Timestamps
}

// UserDiscountCode is one purchased instance of a code. A code can be bought by
// many users but each instance is consumed at most once.
type UserDiscountCode struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	UserID         uint       `json:"user_id,omitempty"`
	DiscountCodeID uint       `json:"discount_code_id,omitempty"`
	PurchasedAt    time.Time  `json:"purchased_at"`
	UsedAt         *time.Time `json:"used_at,omitempty"`
	IsUsed         bool       `gorm:"default:false" json:"is_used"`

	User         User         `json:"-"`
	DiscountCode DiscountCode `json:"discount_code,omitempty"`

	types.Timestamps
}
