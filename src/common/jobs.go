package common

import (
	"log"

	"cafe/src/booking"
	"cafe/src/db"
)

// ReservationsSweepTask runs on the scheduler as the expiry backstop behind the
// per-reservation one-time jobs.
func ReservationsSweepTask() {
	sweeper := booking.NewSweeper(db.GetDb(), Clock(), ReservationLifecycle())
	if _, err := sweeper.ExpireOverdue(); err != nil {
		log.Printf("Error sweeping overdue reservations: %s\n", err.Error())
	}
}

// SessionStatusTask rolls session statuses forward with business time.
func SessionStatusTask() {
	sweeper := booking.NewSweeper(db.GetDb(), Clock(), ReservationLifecycle())
	if err := sweeper.RollSessionStatuses(); err != nil {
		log.Printf("Error rolling session statuses: %s\n", err.Error())
	}
}
