package models

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/game/wagering"
	"GoodGamingApi/pkg/logger"
	"time"

	"gorm.io/gorm"
)

// CommissionCredit records one hop of the referral cascade for a qualifying
// deposit.
type CommissionCredit struct {
	ID          int64 `gorm:"primaryKey,autoIncrement"`
	UserID      int64 `gorm:"index;not null;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FromUserID  int64 `gorm:"index"`
	DepositID   int64 `gorm:"index"`
	Hop         int
	AmountCoins float64
	CreatedAt   time.Time
}

// CreditCommissionCascade walks the depositor's referrer chain and credits
// each hop its configured percentage of the deposit's USD value, converted
// to coins. Only the direct referrer reference is stored per user and the
// traversal is capped by configuration, so a referral cycle cannot recurse.
// Commission credit never touches the recipient's own wagering totals.
func CreditCommissionCascade(tx *gorm.DB, dep *Deposit, snap *PolicySnapshot) error {
	if tx == nil {
		tx = db.DB
	}

	rates := snap.CommissionRates()
	maxHops := rates.MaxHops
	if maxHops == 0 {
		maxHops = 2
	}

	var depositor User
	if err := tx.First(&depositor, dep.UserID).Error; err != nil {
		return logger.WrapError(err, "")
	}

	next := depositor.ReferrerID
	for hop := 1; hop <= maxHops && next != nil; hop++ {
		var recipient User
		if err := tx.First(&recipient, *next).Error; err != nil {
			return logger.WrapError(err, "")
		}

		percent := rates.Rate(hop, recipient.VIPLevel)
		if percent > 0 {
			amount := wagering.CommissionCoins(dep.AmountUSD, percent)

			if err := tx.Model(&User{}).
				Where("id = ?", recipient.ID).
				Updates(map[string]interface{}{
					"balance":             gorm.Expr("balance + ?", amount),
					"lifetime_commission": gorm.Expr("lifetime_commission + ?", amount),
				}).Error; err != nil {
				return logger.WrapError(err, "")
			}

			credit := CommissionCredit{
				UserID:      recipient.ID,
				FromUserID:  dep.UserID,
				DepositID:   dep.ID,
				Hop:         hop,
				AmountCoins: amount,
			}
			if err := tx.Create(&credit).Error; err != nil {
				return logger.WrapError(err, "")
			}
		}

		next = recipient.ReferrerID
	}

	return nil
}

// GetUserCommissionCredits returns the newest commission credits earned by
// the user.
func GetUserCommissionCredits(userID int64, limit int) ([]CommissionCredit, error) {
	var credits []CommissionCredit
	err := db.DB.Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&credits).Error
	if err != nil {
		return nil, logger.WrapError(err, "")
	}

	return credits, nil
}
