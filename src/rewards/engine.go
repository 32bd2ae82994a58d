package rewards

import (
	"errors"
	"log"

	"cafe/src/models"
	"cafe/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientCoins = errors.New("insufficient coin balance")

// sourceTable maps a coin source to the rewardable type its payout rules are
// registered under. Sources without an entry (spending sources) never credit.
var sourceTable = map[types.CoinSource]types.RewardableType{
	types.COIN_SOURCE_QUIZ:        types.REWARDABLE_QUIZ,
	types.COIN_SOURCE_FORM:        types.REWARDABLE_FORM,
	types.COIN_SOURCE_FEED_VIEW:   types.REWARDABLE_FEED_ITEM,
	types.COIN_SOURCE_RESERVATION: types.REWARDABLE_RESERVATION,
}

// Engine is the only writer of the coin ledger. The ledger is append-only and
// the balance is always derived from it, never cached.
type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Credit pays out the active rule matching (source, sourceID). A missing or
// inactive rule is a no-op: unconfigured rewardables simply pay nothing.
func (e *Engine) Credit(userId uint, source types.CoinSource, sourceId uint, description string) error {
	rewardableType, ok := sourceTable[source]
	if !ok {
		return nil
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		var rule models.CoinRewardRule
		err := tx.
			Where("rewardable_type = ? AND rewardable_id = ? AND is_active = ?", rewardableType, sourceId, true).
			First(&rule).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) && sourceId != 0 {
			// fall back to the type-wide rule
			err = tx.
				Where("rewardable_type = ? AND rewardable_id = 0 AND is_active = ?", rewardableType, true).
				First(&rule).
				Error
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		entry := models.CoinTransaction{
			UserID:      userId,
			Type:        types.COIN_EARNED,
			Amount:      rule.Coins,
			Source:      source,
			Description: description,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		log.Printf("Credited %d coins to user %d for %s\n", rule.Coins, userId, source)
		return nil
	})
}

// Spend appends a spent entry when the derived balance covers amount. The user
// row is locked for the duration so concurrent spends serialize.
func (e *Engine) Spend(userId uint, amount int64, source types.CoinSource, description string) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(&models.User{ID: userId}).
			First(&user).
			Error; err != nil {
			return err
		}
		balance, err := balanceTx(tx, userId)
		if err != nil {
			return err
		}
		if balance < amount {
			return ErrInsufficientCoins
		}
		entry := models.CoinTransaction{
			UserID:      userId,
			Type:        types.COIN_SPENT,
			Amount:      amount,
			Source:      source,
			Description: description,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return nil
	})
}

func (e *Engine) GetBalance(userId uint) (int64, error) {
	return balanceTx(e.db, userId)
}

func balanceTx(tx *gorm.DB, userId uint) (int64, error) {
	var balance *int64
	err := tx.
		Model(&models.CoinTransaction{}).
		Where(&models.CoinTransaction{UserID: userId}).
		Select("COALESCE(SUM(CASE WHEN type = 'earned' THEN amount ELSE -amount END), 0)").
		Scan(&balance).
		Error
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return 0, nil
	}
	return *balance, nil
}

// History returns the user's ledger entries, newest first.
func (e *Engine) History(userId uint, limit int) ([]models.CoinTransaction, error) {
	var entries []models.CoinTransaction
	err := e.db.
		Model(&models.CoinTransaction{}).
		Where(&models.CoinTransaction{UserID: userId}).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).
		Error
	return entries, err
}
