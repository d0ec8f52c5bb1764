package models

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/game/outcome"
	"GoodGamingApi/pkg/logger"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoundStatus string

const (
	RoundActive    RoundStatus = "active"
	RoundClosing   RoundStatus = "closing"
	RoundSettled   RoundStatus = "settled"
	RoundCancelled RoundStatus = "cancelled"
)

var ErrInvalidStateTransition = errors.New("invalid round state transition")

// Round is one timed betting window on a duration track. Identifier is
// assigned at creation and immutable; Outcome is written exactly once at or
// after EndTime.
type Round struct {
	ID              int64  `gorm:"primaryKey,autoIncrement"`
	Identifier      string `gorm:"uniqueIndex"`
	DurationMinutes int    `gorm:"index"`
	StartTime       time.Time
	EndTime         time.Time
	Status          RoundStatus `gorm:"index"`
	Outcome         *int
	Color           string
	Size            string
	TotalStaked     float64
	TotalPayout     float64
	HouseProfit     float64
	ManualOverride  bool
	CreatedAt       time.Time
}

func forUpdateLock() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// GetActiveRound returns the Active round of a duration track, if one is
// open right now.
func GetActiveRound(tx *gorm.DB, durationMinutes int) (*Round, error) {
	if tx == nil {
		tx = db.DB
	}

	var round Round
	err := tx.Where("duration_minutes = ? AND status = ?", durationMinutes, RoundActive).
		First(&round).Error
	if err != nil {
		return nil, logger.WrapError(err, "")
	}

	return &round, nil
}

func GetRoundByIdentifier(tx *gorm.DB, identifier string) (*Round, error) {
	if tx == nil {
		tx = db.DB
	}

	var round Round
	if err := tx.Where("identifier = ?", identifier).First(&round).Error; err != nil {
		return nil, logger.WrapError(err, "")
	}

	return &round, nil
}

// GetRecentSettledRounds returns the newest resolved rounds of a track for
// the public history feed.
func GetRecentSettledRounds(tx *gorm.DB, durationMinutes, limit int) ([]Round, error) {
	if tx == nil {
		tx = db.DB
	}

	var rounds []Round
	err := tx.Where("duration_minutes = ? AND status = ?", durationMinutes, RoundSettled).
		Order("end_time desc").
		Limit(limit).
		Find(&rounds).Error
	if err != nil {
		return nil, logger.WrapError(err, "")
	}

	return rounds, nil
}

// CancelRound moves an Active round to Cancelled and refunds every stake.
// No payout and no fee: each bet is marked settled with a balance credit
// equal to its stake, and its lifetime-bets contribution is reversed.
// Cancelling a Closing or Settled round fails with
// ErrInvalidStateTransition.
func CancelRound(roundID int64) error {
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var round Round
		if err := tx.Clauses(forUpdateLock()).First(&round, roundID).Error; err != nil {
			return logger.WrapError(err, "")
		}

		if round.Status != RoundActive {
			return ErrInvalidStateTransition
		}

		var bets []Bet
		if err := tx.Where("round_id = ? AND settled = ?", roundID, false).
			Find(&bets).Error; err != nil {
			return logger.WrapError(err, "")
		}

		for i := range bets {
			bet := &bets[i]
			if err := tx.Model(&User{}).
				Where("id = ?", bet.UserID).
				Updates(map[string]interface{}{
					"balance":       gorm.Expr("balance + ?", bet.Amount),
					"lifetime_bets": gorm.Expr("lifetime_bets - ?", bet.Amount),
				}).Error; err != nil {
				return logger.WrapError(err, "")
			}

			bet.Settled = true
			bet.Won = false
			bet.Payout = bet.Amount
			if err := tx.Save(bet).Error; err != nil {
				return logger.WrapError(err, "")
			}
		}

		round.Status = RoundCancelled
		if err := tx.Save(&round).Error; err != nil {
			return logger.WrapError(err, "")
		}

		return nil
	})
	if err != nil && !errors.Is(err, ErrInvalidStateTransition) {
		return logger.WrapError(err, "")
	}
	return err
}

// SettleRound resolves every unsettled bet of a round against the drawn
// digit, exactly once. A second call for an already settled round is a
// no-op. All balance mutations and the round totals commit in one
// transaction; on error nothing is applied and the scheduler retries.
func SettleRound(roundID int64, digit int, manualOverride bool, feePercent float64) error {
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var round Round
		if err := tx.Clauses(forUpdateLock()).First(&round, roundID).Error; err != nil {
			return logger.WrapError(err, "")
		}

		if round.Status == RoundSettled || round.Status == RoundCancelled {
			return nil
		}

		color, size := outcome.Classify(digit)
		round.Outcome = &digit
		round.Color = string(color)
		round.Size = string(size)
		round.ManualOverride = manualOverride

		var bets []Bet
		if err := tx.Where("round_id = ? AND settled = ?", roundID, false).
			Find(&bets).Error; err != nil {
			return logger.WrapError(err, "")
		}

		entries := make([]outcome.BookEntry, len(bets))
		for i := range bets {
			entries[i] = outcome.BookEntry{
				Selection: bets[i].Selection,
				Amount:    bets[i].Amount,
			}
		}

		results, totals, err := outcome.SettleBook(entries, digit, feePercent)
		if err != nil {
			return logger.WrapError(err, "bet has unreadable selection")
		}

		for i := range bets {
			bet := &bets[i]
			bet.Settled = true
			bet.Won = results[i].Won
			bet.Payout = results[i].Payout
			bet.Fee = results[i].Fee
			if err := tx.Save(bet).Error; err != nil {
				return logger.WrapError(err, "")
			}

			updates := map[string]interface{}{}
			if bet.Won {
				updates["balance"] = gorm.Expr("balance + ?", bet.Payout)
				updates["lifetime_winnings"] = gorm.Expr("lifetime_winnings + ?", bet.Payout)
			} else {
				updates["lifetime_losses"] = gorm.Expr("lifetime_losses + ?", bet.Amount)
			}
			if err := tx.Model(&User{}).
				Where("id = ?", bet.UserID).
				Updates(updates).Error; err != nil {
				return logger.WrapError(err, "")
			}
		}

		round.TotalStaked = totals.TotalStaked
		round.TotalPayout = totals.TotalPayout
		round.HouseProfit = totals.HouseProfit
		round.Status = RoundSettled
		if err := tx.Save(&round).Error; err != nil {
			return logger.WrapError(err, "")
		}

		return nil
	})
	if err != nil {
		return logger.WrapError(err, "")
	}
	return nil
}
