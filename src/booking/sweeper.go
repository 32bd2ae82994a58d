package booking

import (
	"log"

	"cafe/src/clock"
	"cafe/src/models"
	"cafe/src/types"

	"gorm.io/gorm"
)

// Sweeper is the safety net behind per-reservation expiry triggers. It scans
// for pending reservations past their payment deadline and expires them one by
// one, so a crashed scheduler or missed callback cannot strand capacity.
type Sweeper struct {
	db        *gorm.DB
	clock     clock.Clock
	lifecycle *Lifecycle
}

func NewSweeper(db *gorm.DB, clk clock.Clock, lc *Lifecycle) *Sweeper {
	return &Sweeper{db: db, clock: clk, lifecycle: lc}
}

// ExpireOverdue expires every overdue pending reservation. Rows are handled
// independently; one failure is logged and does not stop the sweep.
func (s *Sweeper) ExpireOverdue() (int, error) {
	now := s.clock.Now()
	var overdue []models.Reservation
	err := s.db.
		Where("payment_status = ? AND cancelled_at IS NULL AND expired_at IS NULL AND expires_at <= ?", types.PAYMENT_PENDING, now).
		Find(&overdue).
		Error
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, r := range overdue {
		if err := s.lifecycle.Expire(r.ID); err != nil {
			log.Printf("Error expiring reservation %d: %s\n", r.ID, err.Error())
			continue
		}
		expired++
	}
	if expired > 0 {
		log.Printf("Sweeper expired %d overdue reservations\n", expired)
	}
	return expired, nil
}

// RollSessionStatuses advances session lifecycle flags based on the business
// clock: past dates complete, today's sessions go ongoing.
func (s *Sweeper) RollSessionStatuses() error {
	now := s.clock.Now()
	today := now.Format("2006-01-02")
	if err := s.db.
		Model(&models.Session{}).
		Where("date < ? AND status IN (?)", today, []types.SessionStatus{types.SESSION_UPCOMING, types.SESSION_ONGOING}).
		Update("status", types.SESSION_COMPLETED).
		Error; err != nil {
		return err
	}
	return s.db.
		Model(&models.Session{}).
		Where("date = ? AND status = ?", today, types.SESSION_UPCOMING).
		Update("status", types.SESSION_ONGOING).
		Error
}
