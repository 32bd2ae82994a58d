package models

import "cafe/src/types"

type MenuItem struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Name        string `json:"name,omitempty"`
	Price       int64  `json:"price"`
	IsAvailable bool   `gorm:"default:true" json:"is_available"`

	types.Timestamps
}

// Order records the actual food order attached to a reservation. Subtotal keeps
// the real item total; Payable carries the minimum-order floor actually charged.
type Order struct {
	ID            uint  `gorm:"primarykey" json:"id"`
	ReservationID uint  `json:"reservation_id,omitempty"`
	Subtotal      int64 `json:"subtotal"`
	Payable       int64 `json:"payable"`

	Items []OrderItem `json:"items,omitempty"`

	types.Timestamps
}

type OrderItem struct {
	ID         uint  `gorm:"primarykey" json:"id"`
	OrderID    uint  `json:"order_id,omitempty"`
	MenuItemID uint  `json:"menu_item_id,omitempty"`
	Quantity   uint  `json:"qty"`
	UnitPrice  int64 `json:"unit_price"`
	LineTotal  int64 `json:"line_total"`

	MenuItem MenuItem `json:"menu_item,omitempty"`

	types.Timestamps
}
