package pricing

import "cafe/src/types"

// All amounts are integer minor units. No I/O happens in this package.

type OrderLine struct {
	MenuItemID uint
	Quantity   uint
	UnitPrice  int64
}

type Discount struct {
	Type  types.DiscountType
	Value int64
}

// Quote is the full price breakdown for one reservation.
type Quote struct {
	TicketSubtotal   int64 `json:"ticket_subtotal"`
	MinimumCafeOrder int64 `json:"minimum_cafe_order"`
	FoodSubtotal     int64 `json:"food_subtotal"`
	CafeOrderPayable int64 `json:"cafe_order_payable"`
	DiscountAmount   int64 `json:"discount_amount"`
	FreeTicketCredit int64 `json:"free_ticket_credit"`
	GrandTotal       int64 `json:"grand_total"`
}

func TicketSubtotal(sessionPrice int64, numberOfPeople uint) int64 {
	return sessionPrice * int64(numberOfPeople)
}

// MinimumCafeOrder is the per-person payment floor on food orders: the session
// price minus the policy discount, never below zero, times the party size.
func MinimumCafeOrder(sessionPrice int64, numberOfPeople uint, perPersonDiscount int64) int64 {
	perPerson := sessionPrice - perPersonDiscount
	if perPerson < 0 {
		perPerson = 0
	}
	return perPerson * int64(numberOfPeople)
}

func FoodSubtotal(items []OrderLine) int64 {
	var total int64
	for _, v := range items {
		total += v.UnitPrice * int64(v.Quantity)
	}
	return total
}

// CafeOrderPayable charges at least the minimum even when the actual food order
// is smaller. The floor backs the per-person ticket discount.
func CafeOrderPayable(foodSubtotal int64, minimumCafeOrder int64) int64 {
	if foodSubtotal > minimumCafeOrder {
		return foodSubtotal
	}
	return minimumCafeOrder
}

// DiscountAmount applies a code against the ticket subtotal. Percentage values
// are rounded half-up; fixed values are capped at the subtotal.
func DiscountAmount(d *Discount, ticketSubtotal int64) int64 {
	if d == nil {
		return 0
	}
	switch d.Type {
	case types.DISCOUNT_PERCENTAGE:
		return (ticketSubtotal*d.Value + 50) / 100
	case types.DISCOUNT_FIXED:
		if d.Value > ticketSubtotal {
			return ticketSubtotal
		}
		return d.Value
	}
	return 0
}

type ComputeInput struct {
	SessionPrice      int64
	NumberOfPeople    uint
	PerPersonDiscount int64
	OrderItems        []OrderLine
	Discount          *Discount
	// FreeTicket waives one seat's ticket price when set.
	FreeTicket bool
}

func Compute(in ComputeInput) Quote {
	q := Quote{
		TicketSubtotal:   TicketSubtotal(in.SessionPrice, in.NumberOfPeople),
		MinimumCafeOrder: MinimumCafeOrder(in.SessionPrice, in.NumberOfPeople, in.PerPersonDiscount),
		FoodSubtotal:     FoodSubtotal(in.OrderItems),
	}
	q.CafeOrderPayable = CafeOrderPayable(q.FoodSubtotal, q.MinimumCafeOrder)
	q.DiscountAmount = DiscountAmount(in.Discount, q.TicketSubtotal)
	if in.FreeTicket && in.NumberOfPeople > 0 {
		q.FreeTicketCredit = in.SessionPrice
	}
	q.GrandTotal = q.TicketSubtotal + q.CafeOrderPayable - q.DiscountAmount - q.FreeTicketCredit
	if q.GrandTotal < 0 {
		q.GrandTotal = 0
	}
	return q
}
