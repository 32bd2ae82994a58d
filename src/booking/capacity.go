package booking

import (
	"cafe/src/models"

	"gorm.io/gorm"
)

// CapacityLedger is the only component allowed to mutate a session's
// current_participants. Both operations are single conditional updates, so the
// check and the increment land in one atomic statement and concurrent callers
// cannot oversell the session.
type CapacityLedger struct {
	db *gorm.DB
}

func NewCapacityLedger(db *gorm.DB) *CapacityLedger {
	return &CapacityLedger{db: db}
}

func (c *CapacityLedger) Reserve(sessionId uint, count uint) error {
	return ReserveTx(c.db, sessionId, count)
}

func (c *CapacityLedger) Release(sessionId uint, count uint) error {
	return ReleaseTx(c.db, sessionId, count)
}

func ReserveTx(tx *gorm.DB, sessionId uint, count uint) error {
	res := tx.
		Model(&models.Session{}).
		Where("id = ? AND current_participants + ? <= max_participants", sessionId, count).
		Update("current_participants", gorm.Expr("current_participants + ?", count))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCapacityExceeded
	}
	return nil
}

// ReleaseTx decrements the counter, floored at zero. Correct callers never
// release more than they reserved; the floor guards the invariant anyway.
func ReleaseTx(tx *gorm.DB, sessionId uint, count uint) error {
	return tx.
		Model(&models.Session{}).
		Where("id = ?", sessionId).
		Update("current_participants", gorm.Expr("GREATEST(current_participants - ?, 0)", count)).
		Error
}
