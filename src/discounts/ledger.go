package discounts

import (
	"errors"
	"fmt"
	"log"

	"cafe/src/clock"
	"cafe/src/models"
	"cafe/src/pricing"
	"cafe/src/rewards"
	"cafe/src/types"

	"gorm.io/gorm"
)

type InvalidReason string

const (
	ReasonNotFound     InvalidReason = "notFound"
	ReasonExpired      InvalidReason = "expired"
	ReasonCapped       InvalidReason = "capped"
	ReasonBelowMinimum InvalidReason = "belowMinimum"
	ReasonNotOwned     InvalidReason = "notOwned"
	ReasonAlreadyUsed  InvalidReason = "alreadyUsed"
)

type InvalidError struct {
	Reason InvalidReason
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("discount code invalid: %s", e.Reason)
}

type ValidationResult struct {
	Valid          bool          `json:"valid"`
	Reason         InvalidReason `json:"reason,omitempty"`
	DiscountAmount int64         `json:"discount_amount"`
}

// Ledger owns discount code validation, coin purchases and redemption. It is
// the only writer of DiscountCode.used_count.
type Ledger struct {
	db      *gorm.DB
	clock   clock.Clock
	rewards *rewards.Engine
}

func NewLedger(db *gorm.DB, clk clock.Clock, re *rewards.Engine) *Ledger {
	return &Ledger{db: db, clock: clk, rewards: re}
}

// Validate checks a code against expiry, usage cap and minimum order. It never
// mutates state, so the UI can call it repeatedly for live previews.
func (l *Ledger) Validate(code string, orderAmount int64) (*ValidationResult, *models.DiscountCode, error) {
	var dc models.DiscountCode
	err := l.db.Where("code = ?", code).First(&dc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ValidationResult{Valid: false, Reason: ReasonNotFound}, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if !l.clock.Now().Before(dc.ExpiresAt) {
		return &ValidationResult{Valid: false, Reason: ReasonExpired}, &dc, nil
	}
	if dc.MaxUses != nil && dc.UsedCount >= *dc.MaxUses {
		return &ValidationResult{Valid: false, Reason: ReasonCapped}, &dc, nil
	}
	if orderAmount < dc.MinOrderAmount {
		return &ValidationResult{Valid: false, Reason: ReasonBelowMinimum}, &dc, nil
	}
	amount := pricing.DiscountAmount(&pricing.Discount{Type: dc.Type, Value: dc.Value}, orderAmount)
	return &ValidationResult{Valid: true, DiscountAmount: amount}, &dc, nil
}

// Purchase debits the user's coins and hands them a personal instance of the
// code. used_count is untouched here; it only moves on redemption at checkout.
func (l *Ledger) Purchase(userId uint, codeId uint) (*models.UserDiscountCode, error) {
	var dc models.DiscountCode
	if err := l.db.Where(&models.DiscountCode{ID: codeId}).First(&dc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &InvalidError{Reason: ReasonNotFound}
		}
		return nil, err
	}
	if !l.clock.Now().Before(dc.ExpiresAt) {
		return nil, &InvalidError{Reason: ReasonExpired}
	}
	desc := fmt.Sprintf("Purchased discount code %s", dc.Code)
	if err := l.rewards.Spend(userId, dc.CoinsCost, types.COIN_SOURCE_DISCOUNT_PURCHASE, desc); err != nil {
		return nil, err
	}
	instance := models.UserDiscountCode{
		UserID:         userId,
		DiscountCodeID: dc.ID,
		PurchasedAt:    l.clock.Now(),
	}
	if err := l.db.Create(&instance).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

// OwnedInstance finds the user's oldest unused instance of a code.
func (l *Ledger) OwnedInstance(userId uint, codeId uint) (*models.UserDiscountCode, error) {
	var instance models.UserDiscountCode
	err := l.db.
		Where("user_id = ? AND discount_code_id = ? AND is_used = ?", userId, codeId, false).
		Order("purchased_at asc").
		First(&instance).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &InvalidError{Reason: ReasonNotOwned}
	}
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// Redeem consumes a purchased instance and bumps the parent code's counter in
// one conditional update, so concurrent redemptions near the cap cannot push
// used_count past max_uses.
func (l *Ledger) Redeem(userDiscountCodeId uint) error {
	return RedeemTx(l.db, l.clock, userDiscountCodeId)
}

func RedeemTx(db *gorm.DB, clk clock.Clock, userDiscountCodeId uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var instance models.UserDiscountCode
		if err := tx.Where(&models.UserDiscountCode{ID: userDiscountCodeId}).First(&instance).Error; err != nil {
			return err
		}
		if instance.IsUsed {
			return &InvalidError{Reason: ReasonAlreadyUsed}
		}
		res := tx.
			Model(&models.DiscountCode{}).
			Where("id = ? AND (max_uses IS NULL OR used_count < max_uses)", instance.DiscountCodeID).
			Update("used_count", gorm.Expr("used_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &InvalidError{Reason: ReasonCapped}
		}
		now := clk.Now()
		res = tx.
			Model(&models.UserDiscountCode{}).
			Where("id = ? AND is_used = ?", userDiscountCodeId, false).
			Updates(map[string]any{"is_used": true, "used_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &InvalidError{Reason: ReasonAlreadyUsed}
		}
		log.Printf("Redeemed discount instance %d\n", userDiscountCodeId)
		return nil
	})
}
