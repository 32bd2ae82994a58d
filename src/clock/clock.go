package clock

import (
	"log"
	"time"

	"cafe/src/config"
)

// Clock supplies "now" in the business timezone. Every component that reasons
// about expiry or scheduling takes one instead of calling time.Now directly.
type Clock interface {
	Now() time.Time
}

type businessClock struct {
	loc *time.Location
}

func (c *businessClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func New() Clock {
	tz := config.BusinessTimezone()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Could not load timezone [%s], falling back to UTC: %s\n", tz, err.Error())
		loc = time.UTC
	}
	return &businessClock{loc: loc}
}

// Fixed returns a Clock pinned to t, for deterministic deadline tests.
func Fixed(t time.Time) Clock {
	return fixedClock{t: t}
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }
