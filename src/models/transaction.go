package models

import (
	"cafe/src/types"

	"github.com/google/uuid"
)

type PaymentTransaction struct {
	ID uuid.UUID `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`

	ReservationID        uint
	Amount               int64
	Currency             string
	Gateway              string
	GatewayTransactionID *string
	RedirectURL          *string
	Status               types.TransactionStatus `gorm:"default:'pending'"`
	Metadata             types.JSONB

	types.Timestamps
}
