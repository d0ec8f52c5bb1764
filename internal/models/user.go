package models

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/pkg/logger"
	"time"

	"gorm.io/gorm"
)

// User carries the ledger aggregate of one player. Balance changes only
// through bet placement, settlement payout, deposit, withdrawal or
// commission credit, always inside a transaction that records the
// triggering event.
type User struct {
	ID                 int64  `gorm:"primaryKey,autoIncrement"`
	Nickname           string `gorm:"unique"`
	Password           string `json:"-"`
	Balance            float64
	LifetimeDeposits   float64
	LifetimeBets       float64
	LifetimeWinnings   float64
	LifetimeLosses     float64
	LifetimeCommission float64
	VIPLevel           int    `gorm:"index"`
	ReferrerID         *int64 `gorm:"index"`
	LastWithdrawalAt   *time.Time
	CreatedAt          time.Time
}

func CheckIfUserExistsByID(userID int64) (bool, error) {
	var exists bool
	err := db.DB.Model(&User{}).
		Select("count(*) > 0").
		Where("id = ?", userID).
		Scan(&exists).Error
	if err != nil {
		return true, logger.WrapError(err, "")
	}

	return exists, nil
}

func GetUserWithPassword(nickname string) (*User, error) {
	var user User

	err := db.DB.
		Where("nickname = ?", nickname).
		First(&user).Error
	if err != nil {
		return nil, logger.WrapError(err, "")
	}

	return &user, nil
}

func CheckIfUserExistsByNickname(nn string) (bool, error) {
	var exists bool

	err := db.DB.Model(&User{}).
		Select("count(*) > 0").
		Where("nickname = ?", nn).
		Scan(&exists).Error
	if err != nil {
		return true, logger.WrapError(err, "")
	}

	return exists, nil
}

// GetUserForUpdate locks the user row for the rest of the transaction so
// concurrent bets cannot jointly pass balance and limit checks.
func GetUserForUpdate(tx *gorm.DB, userID int64) (*User, error) {
	var user User
	if err := tx.Clauses(forUpdateLock()).First(&user, userID).Error; err != nil {
		return nil, logger.WrapError(err, "")
	}
	return &user, nil
}
