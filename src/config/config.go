package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

const TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"
const DATE_PARSE_FORMAT = "2006-01-02"
const SESSION_TIME_FORMAT = "15:04"

// PENDING_RESERVATION_TTL is the hard payment deadline for a pending reservation.
const PENDING_RESERVATION_TTL = 15 * time.Minute

var API_ENV = os.Getenv("API_ENV")
var API_HOST = os.Getenv("API_HOST")
var APP_HOST = os.Getenv("APP_HOST")

// BusinessTimezone is the fixed timezone all expiry and scheduling logic runs in.
func BusinessTimezone() string {
	tz := os.Getenv("BUSINESS_TIMEZONE")
	if tz == "" {
		tz = "Asia/Tehran"
	}
	return tz
}

func Currency() string {
	c := os.Getenv("CURRENCY")
	if c == "" {
		c = "usd"
	}
	return c
}

// FreeTicketCoinsCost is the coin price of one free session ticket.
func FreeTicketCoinsCost() int64 {
	v := os.Getenv("FREE_TICKET_COINS_COST")
	if v == "" {
		return 500
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 500
	}
	return n
}

// PerPersonDiscount is the minimum-cafe-order policy amount in minor units
// deducted from the ticket price per person when computing the food-order floor.
func PerPersonDiscount() int64 {
	v := os.Getenv("PER_PERSON_DISCOUNT")
	if v == "" {
		return 10_000
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 10_000
	}
	return n
}
