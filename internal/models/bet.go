package models

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/game/outcome"
	"GoodGamingApi/internal/game/policy"
	"GoodGamingApi/pkg/logger"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRoundNotActive      = errors.New("round is not active")
	ErrStakeExceedsLimit   = errors.New("stake exceeds bet limit")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Bet is immutable once Settled is true. Payout stores the net credited
// amount (after the betting fee) for wins, the refunded stake for cancelled
// rounds, and zero for losses.
type Bet struct {
	ID        int64 `gorm:"primaryKey,autoIncrement"`
	RoundID   int64 `gorm:"index;not null;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	UserID    int64 `gorm:"index;not null;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Amount    float64
	Selection string
	PlacedAt  time.Time
	Settled   bool `gorm:"index"`
	Won       bool
	Payout    float64
	Fee       float64
}

// PlaceBet debits the stake, bumps lifetime bets and creates the bet record
// in one transaction. The user row is locked first, so concurrent bets from
// the same user cannot jointly pass the balance or limit checks.
func PlaceBet(userID int64, durationMinutes int, selection string, amount float64) (*Bet, error) {
	sel, err := outcome.ParseSelection(selection)
	if err != nil {
		return nil, err
	}

	var bet Bet
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		// Share lock on the round row: close, cancel and settle take it
		// exclusively, so a bet cannot commit into a round whose book has
		// already been swept.
		var round Round
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("duration_minutes = ? AND status = ?", durationMinutes, RoundActive).
			First(&round).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoundNotActive
			}
			return logger.WrapError(err, "")
		}
		if time.Now().After(round.EndTime) {
			return ErrRoundNotActive
		}

		user, err := GetUserForUpdate(tx, userID)
		if err != nil {
			return logger.WrapError(err, "")
		}

		snap, err := CurrentPolicySnapshot(tx)
		if err != nil {
			return logger.WrapError(err, "")
		}
		if limit := snap.MaxBetLimit(user.VIPLevel); limit > 0 && amount > limit {
			return ErrStakeExceedsLimit
		}

		if user.Balance < amount {
			return ErrInsufficientBalance
		}

		if err := tx.Model(user).
			Updates(map[string]interface{}{
				"balance":       gorm.Expr("balance - ?", amount),
				"lifetime_bets": gorm.Expr("lifetime_bets + ?", amount),
			}).Error; err != nil {
			return logger.WrapError(err, "")
		}

		bet = Bet{
			RoundID:   round.ID,
			UserID:    userID,
			Amount:    amount,
			Selection: sel.String(),
			PlacedAt:  time.Now(),
		}
		if err := tx.Create(&bet).Error; err != nil {
			return logger.WrapError(err, "")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &bet, nil
}

// RoundExposure aggregates the unsettled bet book of a round per candidate
// digit, the input of the result policy engine.
func RoundExposure(tx *gorm.DB, roundID int64) (policy.Exposure, error) {
	if tx == nil {
		tx = db.DB
	}

	var bets []Bet
	if err := tx.Where("round_id = ? AND settled = ?", roundID, false).
		Find(&bets).Error; err != nil {
		return policy.Exposure{}, logger.WrapError(err, "")
	}

	var exp policy.Exposure
	for i := range bets {
		sel, err := outcome.ParseSelection(bets[i].Selection)
		if err != nil {
			return policy.Exposure{}, logger.WrapError(err, "bet has unreadable selection")
		}

		exp.TotalStaked += bets[i].Amount
		for n := 0; n <= 9; n++ {
			if sel.Matches(n) {
				exp.StakeByOutcome[n] += bets[i].Amount
				exp.PayoutByOutcome[n] += bets[i].Amount * sel.Multiplier()
			}
		}
	}

	return exp, nil
}

// GetUserRecentBets returns the user's newest bets for the history screen.
func GetUserRecentBets(userID int64, limit int) ([]Bet, error) {
	var bets []Bet
	err := db.DB.Where("user_id = ?", userID).
		Order("placed_at desc").
		Limit(limit).
		Find(&bets).Error
	if err != nil {
		return nil, logger.WrapError(err, "")
	}

	return bets, nil
}
