package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cafe/src/clock"
	"cafe/src/config"
	"cafe/src/discounts"
	"cafe/src/models"
	"cafe/src/pricing"
	"cafe/src/rewards"
	"cafe/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentGateway is the external payment collaborator. Initiate opens a
// gateway-side payment for the transaction and returns the redirect URL plus
// the gateway's own reference id.
type PaymentGateway interface {
	Name() string
	Initiate(ctx context.Context, txn *models.PaymentTransaction) (redirectURL string, gatewayRef string, err error)
}

// Notifier receives fire-and-forget transition notifications.
type Notifier interface {
	Dispatch(to string, subject string, body string)
}

// Lifecycle drives a reservation through pending_payment -> paid | expired |
// cancelled. Every transition runs in one database transaction and is
// idempotent, so at-least-once gateway callbacks and sweeper re-runs are safe.
type Lifecycle struct {
	db        *gorm.DB
	clock     clock.Clock
	gateway   PaymentGateway
	rewards   *rewards.Engine
	discounts *discounts.Ledger
	notifier  Notifier

	// onDeadline, when set, schedules a one-time expiry trigger at the payment
	// deadline. The periodic sweep remains the backstop.
	onDeadline func(runsAt time.Time, reservationId uint)
}

func NewLifecycle(db *gorm.DB, clk clock.Clock, gw PaymentGateway, re *rewards.Engine, dl *discounts.Ledger, n Notifier) *Lifecycle {
	return &Lifecycle{db: db, clock: clk, gateway: gw, rewards: re, discounts: dl, notifier: n}
}

func (l *Lifecycle) OnDeadline(fn func(runsAt time.Time, reservationId uint)) {
	l.onDeadline = fn
}

// Create reserves capacity, prices the booking and opens a pending payment
// transaction, all-or-nothing. On capacity failure nothing is written and no
// transaction is opened. A free ticket is consumed here, in the same
// transaction, and returned if the reservation later expires or is cancelled.
func (l *Lifecycle) Create(ctx context.Context, userId uint, params *types.CreateReservationRequestBody) (*models.Reservation, error) {
	var session models.Session
	if err := l.db.Where(&models.Session{ID: params.SessionID}).First(&session).Error; err != nil {
		return nil, err
	}
	if session.Status != types.SESSION_UPCOMING {
		return nil, ErrSessionNotBookable
	}
	// fail fast before touching anything; the conditional update below is the
	// authoritative check
	if params.NumberOfPeople > session.AvailableSpots() {
		return nil, ErrCapacityExceeded
	}

	ticketSubtotal := pricing.TicketSubtotal(session.Price, params.NumberOfPeople)

	var discount *pricing.Discount
	var instance *models.UserDiscountCode
	if params.DiscountCode != nil && *params.DiscountCode != "" {
		result, dc, err := l.discounts.Validate(*params.DiscountCode, ticketSubtotal)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, &discounts.InvalidError{Reason: result.Reason}
		}
		instance, err = l.discounts.OwnedInstance(userId, dc.ID)
		if err != nil {
			return nil, err
		}
		discount = &pricing.Discount{Type: dc.Type, Value: dc.Value}
	}

	// Pick the oldest candidate for pricing; the conditional claim inside the
	// transaction below is the authoritative hold, so one ticket can never fund
	// two reservations.
	var freeTicket *models.FreeTicket
	if params.UseFreeTicket {
		var ft models.FreeTicket
		err := l.db.
			Where("user_id = ? AND is_used = ? AND is_valid = ?", userId, false, true).
			Order("purchased_at asc").
			First(&ft).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFreeTicketUnavailable
		}
		if err != nil {
			return nil, err
		}
		freeTicket = &ft
	}

	orderLines, err := l.resolveOrderItems(params.OrderItems)
	if err != nil {
		return nil, err
	}

	quote := pricing.Compute(pricing.ComputeInput{
		SessionPrice:      session.Price,
		NumberOfPeople:    params.NumberOfPeople,
		PerPersonDiscount: config.PerPersonDiscount(),
		OrderItems:        orderLines,
		Discount:          discount,
		FreeTicket:        freeTicket != nil,
	})

	now := l.clock.Now()
	reservation := models.Reservation{
		UserID:         userId,
		SessionID:      session.ID,
		NumberOfPeople: params.NumberOfPeople,
		PaymentStatus:  types.PAYMENT_PENDING,
		ExpiresAt:      now.Add(config.PENDING_RESERVATION_TTL),
	}
	if instance != nil {
		reservation.UserDiscountCodeID = &instance.ID
	}
	if freeTicket != nil {
		reservation.FreeTicketID = &freeTicket.ID
	}

	var txn models.PaymentTransaction
	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := ReserveTx(tx, session.ID, params.NumberOfPeople); err != nil {
			return err
		}
		if freeTicket != nil {
			res := tx.
				Model(&models.FreeTicket{}).
				Where("id = ? AND is_used = ?", freeTicket.ID, false).
				Updates(map[string]any{"is_used": true, "used_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrFreeTicketUnavailable
			}
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}
		if len(orderLines) > 0 {
			order := models.Order{
				ReservationID: reservation.ID,
				Subtotal:      quote.FoodSubtotal,
				Payable:       quote.CafeOrderPayable,
			}
			for _, line := range orderLines {
				order.Items = append(order.Items, models.OrderItem{
					MenuItemID: line.MenuItemID,
					Quantity:   line.Quantity,
					UnitPrice:  line.UnitPrice,
					LineTotal:  line.UnitPrice * int64(line.Quantity),
				})
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
		}
		txn = models.PaymentTransaction{
			ID:            uuid.New(),
			ReservationID: reservation.ID,
			Amount:        quote.GrandTotal,
			Currency:      config.Currency(),
			Gateway:       l.gateway.Name(),
			Status:        types.TRANSACTION_PENDING,
			Metadata: types.JSONB{
				"quote": quote,
			},
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: reservation.ID}).
			Update("payment_transaction_id", txn.ID).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	reservation.PaymentTransactionID = &txn.ID

	// Gateway errors leave the reservation pending; the user can retry until
	// the deadline and the sweeper reclaims capacity after it.
	redirectURL, gatewayRef, gerr := l.gateway.Initiate(ctx, &txn)
	if gerr != nil {
		log.Printf("Gateway initiate failed for reservation %d: %s\n", reservation.ID, gerr.Error())
	} else {
		if err := l.db.
			Model(&models.PaymentTransaction{}).
			Where("id = ?", txn.ID).
			Updates(map[string]any{"redirect_url": redirectURL, "gateway_transaction_id": gatewayRef}).
			Error; err != nil {
			log.Printf("Error saving gateway reference for transaction %s: %s\n", txn.ID.String(), err.Error())
		}
		txn.RedirectURL = &redirectURL
		txn.GatewayTransactionID = &gatewayRef
	}
	reservation.Payment = &txn

	if l.onDeadline != nil {
		l.onDeadline(reservation.ExpiresAt, reservation.ID)
	}
	return &reservation, nil
}

func (l *Lifecycle) resolveOrderItems(items []types.ReservationOrderItem) ([]pricing.OrderLine, error) {
	if len(items) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(items))
	for _, v := range items {
		ids = append(ids, v.MenuItemID)
	}
	var menuItems []models.MenuItem
	if err := l.db.Where("id IN (?) AND is_available = ?", ids, true).Find(&menuItems).Error; err != nil {
		return nil, err
	}
	prices := map[uint]int64{}
	for _, m := range menuItems {
		prices[m.ID] = m.Price
	}
	lines := make([]pricing.OrderLine, 0, len(items))
	for _, v := range items {
		price, ok := prices[v.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("menu item %d is not available", v.MenuItemID)
		}
		lines = append(lines, pricing.OrderLine{MenuItemID: v.MenuItemID, Quantity: v.Quantity, UnitPrice: price})
	}
	return lines, nil
}

// ConfirmPayment settles a reservation from a gateway success callback. It is
// idempotent: a second call on a paid reservation is a no-op. Callbacks that
// arrive after the payment deadline are rejected rather than silently granting
// a lapsed reservation. Capacity was committed at create time and is not
// re-validated here.
func (l *Lifecycle) ConfirmPayment(reservationId uint, gatewayRef string, metadata types.Metadata) error {
	var reservation models.Reservation
	var alreadyPaid bool
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.Reservation{ID: reservationId}).
			First(&reservation).
			Error; err != nil {
			return err
		}
		if reservation.PaymentStatus == types.PAYMENT_PAID {
			alreadyPaid = true
			return nil
		}
		if !reservation.Pending() {
			return ErrNotPending
		}
		if !l.clock.Now().Before(reservation.ExpiresAt) {
			return ErrReservationExpired
		}
		if reservation.PaymentTransactionID != nil {
			updates := map[string]any{
				"status":                 types.TRANSACTION_PAID,
				"gateway_transaction_id": gatewayRef,
			}
			if len(metadata) > 0 {
				updates["metadata"] = types.JSONB(metadata)
			}
			if err := tx.
				Model(&models.PaymentTransaction{}).
				Where("id = ?", *reservation.PaymentTransactionID).
				Updates(updates).
				Error; err != nil {
				return err
			}
		}
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: reservationId}).
			Update("payment_status", types.PAYMENT_PAID).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	if alreadyPaid {
		return nil
	}

	if reservation.UserDiscountCodeID != nil {
		// A cap race here means the code filled up between create and confirm.
		// The payment already settled, so log and move on without the counter.
		if err := l.discounts.Redeem(*reservation.UserDiscountCodeID); err != nil {
			log.Printf("Could not redeem discount instance %d for reservation %d: %s\n", *reservation.UserDiscountCodeID, reservationId, err.Error())
		}
	}

	desc := fmt.Sprintf("Reservation #%d confirmed", reservationId)
	if err := l.rewards.Credit(reservation.UserID, types.COIN_SOURCE_RESERVATION, 0, desc); err != nil {
		log.Printf("Error crediting coins for reservation %d: %s\n", reservationId, err.Error())
	}
	l.notify(reservation.UserID, "Reservation confirmed", fmt.Sprintf("<p>Your reservation #%d has been confirmed.</p>", reservationId))
	return nil
}

// Expire releases a pending reservation past its payment deadline. Calling it
// again on an already-expired reservation is a no-op; calling it early fails.
func (l *Lifecycle) Expire(reservationId uint) error {
	var reservation models.Reservation
	var expired bool
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.Reservation{ID: reservationId}).
			First(&reservation).
			Error; err != nil {
			return err
		}
		if reservation.ExpiredAt != nil {
			return nil
		}
		if !reservation.Pending() {
			return ErrNotPending
		}
		if l.clock.Now().Before(reservation.ExpiresAt) {
			return ErrDeadlineNotReached
		}
		if err := ReleaseTx(tx, reservation.SessionID, reservation.NumberOfPeople); err != nil {
			return err
		}
		if err := returnFreeTicketTx(tx, &reservation); err != nil {
			return err
		}
		now := l.clock.Now()
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: reservationId}).
			Updates(map[string]any{
				"payment_status": types.PAYMENT_FAILED,
				"expired_at":     now,
			}).
			Error; err != nil {
			return err
		}
		if reservation.PaymentTransactionID != nil {
			if err := tx.
				Model(&models.PaymentTransaction{}).
				Where("id = ?", *reservation.PaymentTransactionID).
				Update("status", types.TRANSACTION_FAILED).
				Error; err != nil {
				return err
			}
		}
		expired = true
		return nil
	})
	if err != nil {
		return err
	}
	if expired {
		log.Printf("Reservation %d expired, released %d spots\n", reservationId, reservation.NumberOfPeople)
		l.notify(reservation.UserID, "Reservation expired", fmt.Sprintf("<p>Your reservation #%d expired before payment completed.</p>", reservationId))
	}
	return nil
}

// Cancel releases a pending reservation before its deadline, on user or admin
// request.
func (l *Lifecycle) Cancel(reservationId uint) error {
	var reservation models.Reservation
	err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.Reservation{ID: reservationId}).
			First(&reservation).
			Error; err != nil {
			return err
		}
		if reservation.CancelledAt != nil {
			return nil
		}
		if !reservation.Pending() {
			return ErrNotPending
		}
		if !l.clock.Now().Before(reservation.ExpiresAt) {
			return ErrReservationExpired
		}
		if err := ReleaseTx(tx, reservation.SessionID, reservation.NumberOfPeople); err != nil {
			return err
		}
		if err := returnFreeTicketTx(tx, &reservation); err != nil {
			return err
		}
		now := l.clock.Now()
		if err := tx.
			Model(&models.Reservation{}).
			Where(&models.Reservation{ID: reservationId}).
			Updates(map[string]any{
				"payment_status": types.PAYMENT_FAILED,
				"cancelled_at":   now,
			}).
			Error; err != nil {
			return err
		}
		if reservation.PaymentTransactionID != nil {
			if err := tx.
				Model(&models.PaymentTransaction{}).
				Where("id = ?", *reservation.PaymentTransactionID).
				Update("status", types.TRANSACTION_FAILED).
				Error; err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// returnFreeTicketTx hands a ticket claimed at create time back to the user
// when the reservation dies unpaid.
func returnFreeTicketTx(tx *gorm.DB, reservation *models.Reservation) error {
	if reservation.FreeTicketID == nil {
		return nil
	}
	return tx.
		Model(&models.FreeTicket{}).
		Where("id = ?", *reservation.FreeTicketID).
		Updates(map[string]any{"is_used": false, "used_at": nil}).
		Error
}

func (l *Lifecycle) notify(userId uint, subject string, body string) {
	if l.notifier == nil {
		return
	}
	var user models.User
	if err := l.db.Select("email").Where(&models.User{ID: userId}).First(&user).Error; err != nil {
		log.Printf("Could not look up user %d for notification: %s\n", userId, err.Error())
		return
	}
	l.notifier.Dispatch(user.Email, subject, body)
}
