package models

import (
	"time"

	"cafe/src/types"

	"github.com/google/uuid"
)

type Reservation struct {
	ID                   uint                `gorm:"primarykey" json:"id"`
	UserID               uint                `json:"user_id,omitempty"`
	SessionID            uint                `json:"session_id,omitempty"`
	NumberOfPeople       uint                `json:"number_of_people"`
	PaymentStatus        types.PaymentStatus `gorm:"default:'pending'" json:"payment_status,omitempty"`
	PaymentTransactionID *uuid.UUID          `gorm:"type:uuid" json:"payment_transaction_id,omitempty"`
	ExpiresAt            time.Time           `json:"expires_at"`
	CancelledAt          *time.Time          `json:"cancelled_at,omitempty"`
	ExpiredAt            *time.Time          `json:"expired_at,omitempty"`
	UserDiscountCodeID   *uint               `json:"user_discount_code_id,omitempty"`
	FreeTicketID         *uint               `json:"free_ticket_id,omitempty"`

	User    User                `json:"-"`
	Session Session             `json:"session,omitempty"`
	Order   *Order              `json:"order,omitempty"`
	Payment *PaymentTransaction `gorm:"foreignKey:payment_transaction_id" json:"payment,omitempty"`

	types.Timestamps
}

// Pending reports whether the reservation is still awaiting payment and has not
// been cancelled or expired out of the state machine.
func (r *Reservation) Pending() bool {
	return r.PaymentStatus == types.PAYMENT_PENDING && r.CancelledAt == nil && r.ExpiredAt == nil
}
