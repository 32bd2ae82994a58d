package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

type SessionStatus string

const (
	SESSION_UPCOMING  SessionStatus = "upcoming"
	SESSION_ONGOING   SessionStatus = "ongoing"
	SESSION_COMPLETED SessionStatus = "completed"
	SESSION_CANCELED  SessionStatus = "cancelled"
)

type PaymentStatus string

const (
	PAYMENT_PENDING PaymentStatus = "pending"
	PAYMENT_PAID    PaymentStatus = "paid"
	PAYMENT_FAILED  PaymentStatus = "failed"
)

type TransactionStatus string

const (
	TRANSACTION_PENDING TransactionStatus = "pending"
	TRANSACTION_PAID    TransactionStatus = "paid"
	TRANSACTION_FAILED  TransactionStatus = "failed"
)

type DiscountType string

const (
	DISCOUNT_PERCENTAGE DiscountType = "percentage"
	DISCOUNT_FIXED      DiscountType = "fixed"
)

type CoinTransactionType string

const (
	COIN_EARNED CoinTransactionType = "earned"
	COIN_SPENT  CoinTransactionType = "spent"
)

// CoinSource is the closed set of actions that move coins.
type CoinSource string

const (
	COIN_SOURCE_QUIZ              CoinSource = "quiz"
	COIN_SOURCE_FORM              CoinSource = "form"
	COIN_SOURCE_RESERVATION       CoinSource = "reservation"
	COIN_SOURCE_FEED_VIEW         CoinSource = "feed_view"
	COIN_SOURCE_DISCOUNT_PURCHASE CoinSource = "discount_purchase"
	COIN_SOURCE_TICKET_PURCHASE   CoinSource = "ticket_purchase"
)

// RewardableType tags the entity a CoinRewardRule pays out for.
type RewardableType string

const (
	REWARDABLE_QUIZ        RewardableType = "quiz"
	REWARDABLE_FORM        RewardableType = "form"
	REWARDABLE_FEED_ITEM   RewardableType = "feed_item"
	REWARDABLE_RESERVATION RewardableType = "reservation"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateSessionTemplateRequestBody struct {
	HallID          uint   `json:"hall_id" binding:"required"`
	DayOfWeek       *int   `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime       string `json:"start_time" binding:"required"`
	Price           int64  `json:"price" binding:"required,min=0"`
	MaxParticipants uint   `json:"max_participants" binding:"required,min=1"`
}

type CreateSessionRequestBody struct {
	HallID          uint   `json:"hall_id" binding:"required"`
	Date            string `json:"date" binding:"required,sessiondate"`
	StartTime       string `json:"start_time" binding:"required"`
	Price           int64  `json:"price" binding:"required,min=0"`
	MaxParticipants uint   `json:"max_participants" binding:"required,min=1"`
}

type ExpandSessionsRequestBody struct {
	TemplateIDs []uint `json:"template_ids,omitempty"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required,gtedate=StartDate"`
}

type ReservationOrderItem struct {
	MenuItemID uint `json:"menu_item" binding:"required"`
	Quantity   uint `json:"qty" binding:"required,min=1"`
}

type CreateReservationRequestBody struct {
	SessionID      uint                   `json:"session_id" binding:"required"`
	NumberOfPeople uint                   `json:"number_of_people" binding:"required,min=1"`
	OrderItems     []ReservationOrderItem `json:"order_items,omitempty" binding:"omitempty,dive"`
	DiscountCode   *string                `json:"discount_code,omitempty"`
	UseFreeTicket  bool                   `json:"use_free_ticket,omitempty"`
}

type CreateMenuItemRequestBody struct {
	Name  string `json:"name" binding:"required"`
	Price int64  `json:"price" binding:"required,min=0"`
}

type CreateDiscountCodeRequestBody struct {
	Name           string `json:"name" binding:"required"`
	Type           string `json:"type" binding:"required,oneof=percentage fixed"`
	Value          int64  `json:"value" binding:"required,min=1"`
	MinOrderAmount int64  `json:"min_order_amount,omitempty" binding:"omitempty,min=0"`
	MaxUses        *uint  `json:"max_uses,omitempty" binding:"omitempty,min=1"`
	CoinsCost      int64  `json:"coins_cost,omitempty" binding:"omitempty,min=0"`
	ExpiresAt      string `json:"expires_at" binding:"required"`
}

type CreateCoinRewardRuleRequestBody struct {
	RewardableType string `json:"rewardable_type" binding:"required,oneof=quiz form feed_item reservation"`
	RewardableID   uint   `json:"rewardable_id,omitempty"`
	Coins          int64  `json:"coins" binding:"required,min=1"`
}

type ValidateDiscountQuery struct {
	Code   string `form:"code" binding:"required"`
	Amount int64  `form:"amount" binding:"min=0"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
