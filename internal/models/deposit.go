package models

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/game/wagering"
	"GoodGamingApi/pkg/logger"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

var MinDepositUSD = 5.0

// Deposit records a credited payment. AmountUSD is the provider value,
// AmountCoins the credited balance at the fixed platform rate.
type Deposit struct {
	ID          int64  `gorm:"primaryKey,autoIncrement"`
	UserID      int64  `gorm:"index;not null;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	OrderID     string `gorm:"uniqueIndex"`
	AmountUSD   float64
	AmountCoins float64
	CreatedAt   time.Time
}

func GetUserTotalDeposit(tx *gorm.DB, userID int64) (float64, error) {
	if tx == nil {
		tx = db.DB
	}

	var sum sql.NullFloat64
	if err := tx.Model(&Deposit{}).
		Where("user_id = ?", userID).
		Select("SUM(amount_coins)").
		Scan(&sum).Error; err != nil {
		return 0, logger.WrapError(err, "")
	}

	if sum.Valid {
		return sum.Float64, nil
	}

	return 0, nil
}

// AddDeposit credits a confirmed payment: balance and lifetime deposits in
// one transaction with the deposit record, then the referral commission
// cascade. Duplicate order ids are rejected by the unique index before any
// balance mutation.
func AddDeposit(userID int64, orderID string, amountUSD float64, snap *PolicySnapshot) (*Deposit, error) {
	coins := wagering.Coins(amountUSD)

	var dep Deposit
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		user, err := GetUserForUpdate(tx, userID)
		if err != nil {
			return logger.WrapError(err, "")
		}

		dep = Deposit{
			UserID:      userID,
			OrderID:     orderID,
			AmountUSD:   amountUSD,
			AmountCoins: coins,
		}
		if err := tx.Create(&dep).Error; err != nil {
			return logger.WrapError(err, "")
		}

		if err := tx.Model(user).
			Updates(map[string]interface{}{
				"balance":           gorm.Expr("balance + ?", coins),
				"lifetime_deposits": gorm.Expr("lifetime_deposits + ?", coins),
			}).Error; err != nil {
			return logger.WrapError(err, "")
		}

		if err := upgradeVIPIfEarned(tx, userID, snap); err != nil {
			return logger.WrapError(err, "")
		}

		if err := CreditCommissionCascade(tx, &dep, snap); err != nil {
			return logger.WrapError(err, "")
		}

		return nil
	})
	if err != nil {
		return nil, logger.WrapError(err, "")
	}

	return &dep, nil
}

// upgradeVIPIfEarned promotes the user to the highest VIP tier whose deposit
// requirement their lifetime deposits now meet. Levels are never taken away.
func upgradeVIPIfEarned(tx *gorm.DB, userID int64, snap *PolicySnapshot) error {
	var user User
	if err := tx.First(&user, userID).Error; err != nil {
		return logger.WrapError(err, "")
	}

	earned := user.VIPLevel
	for level, cfg := range snap.VIPLevels {
		if level > earned && user.LifetimeDeposits >= cfg.DepositRequirement {
			earned = level
		}
	}

	if earned == user.VIPLevel {
		return nil
	}

	if err := tx.Model(&user).Update("vip_level", earned).Error; err != nil {
		return logger.WrapError(err, "")
	}

	return nil
}
