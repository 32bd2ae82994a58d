package models

import (
	"time"

	"cafe/src/types"
)

// CoinRewardRule maps a reward-triggering entity to a coin payout. Rules for
// rewardable_id 0 apply to the whole type (the generic reservation action).
type CoinRewardRule struct {
	ID             uint                 `gorm:"primarykey" json:"id"`
	RewardableType types.RewardableType `gorm:"index:idx_reward_rules_target" json:"rewardable_type"`
	RewardableID   uint                 `gorm:"index:idx_reward_rules_target" json:"rewardable_id"`
	Coins          int64                `json:"coins"`
	IsActive       bool                 `gorm:"default:true" json:"is_active"`

	types.Timestamps
}

// CoinTransaction is append-only. Balance is always derived from the signed sum
// of a user's entries, never stored.
type CoinTransaction struct {
	ID          uint                      `gorm:"primarykey" json:"id"`
	UserID      uint                      `gorm:"index" json:"user_id,omitempty"`
	Type        types.CoinTransactionType `json:"type"`
	Amount      int64                     `json:"amount"`
	Source      types.CoinSource          `json:"source"`
	Description string                    `json:"description,omitempty"`

	types.Timestamps
}

type FreeTicket struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	UserID      uint       `gorm:"index" json:"user_id,omitempty"`
	PurchasedAt time.Time  `json:"purchased_at"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	IsUsed      bool       `gorm:"default:false" json:"is_used"`
	IsValid     bool       `gorm:"default:true" json:"is_valid"`

	types.Timestamps
}
