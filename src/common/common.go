package common

import (
	"log"
	"time"

	"cafe/src/booking"
	"cafe/src/clock"
	"cafe/src/db"
	"cafe/src/discounts"
	"cafe/src/lib"
	"cafe/src/lib/mailer"
	"cafe/src/rewards"
)

var appClock clock.Clock

func Clock() clock.Clock {
	if appClock == nil {
		appClock = clock.New()
	}
	return appClock
}

// SetClock swaps the shared clock, for tests.
func SetClock(c clock.Clock) {
	appClock = c
}

func RewardEngine() *rewards.Engine {
	return rewards.NewEngine(db.GetDb())
}

func DiscountLedger() *discounts.Ledger {
	return discounts.NewLedger(db.GetDb(), Clock(), RewardEngine())
}

// ReservationLifecycle assembles the lifecycle with its production
// collaborators: the Stripe gateway, the mail dispatcher and a one-time expiry
// job at the payment deadline.
func ReservationLifecycle() *booking.Lifecycle {
	lc := booking.NewLifecycle(
		db.GetDb(),
		Clock(),
		&lib.StripeGateway{},
		RewardEngine(),
		DiscountLedger(),
		&mailer.Dispatcher{},
	)
	lc.OnDeadline(ScheduleReservationExpiry)
	return lc
}

func ScheduleReservationExpiry(runsAt time.Time, reservationId uint) {
	jobId, err := lib.CreateOneTimeJob(runsAt, func(id uint) {
		if err := ReservationLifecycle().Expire(id); err != nil {
			log.Printf("Scheduled expiry for reservation %d: %s\n", id, err.Error())
		}
	}, reservationId)
	if err != nil {
		log.Printf("Could not schedule expiry for reservation %d: %s\n", reservationId, err.Error())
		return
	}
	log.Printf("Scheduled expiry job %s for reservation %d at %s\n", *jobId, reservationId, runsAt.Format(time.RFC3339))
}
