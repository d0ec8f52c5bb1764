package models

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/pkg/logger"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Withdrawal struct {
	ID        int64  `gorm:"primaryKey,autoIncrement"`
	UserID    int64  `gorm:"index;not null;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	OrderID   string `gorm:"uniqueIndex"`
	Amount    float64
	Status    string
	CreatedAt time.Time
}

// Rollback returns a failed withdrawal's amount to the user balance and
// removes the record.
func (w *Withdrawal) Rollback(tx *gorm.DB) error {
	if tx == nil {
		tx = db.DB
	}

	if w.UserID == 0 || w.Amount == 0 {
		return nil
	}

	if err := tx.Model(&User{}).
		Where("id = ?", w.UserID).
		Update("balance",
			gorm.Expr("balance + ?", w.Amount)).Error; err != nil {
		return logger.WrapError(err, "")
	}

	if err := tx.Delete(w).Error; err != nil {
		return logger.WrapError(err, "")
	}

	logger.Debug("Withdrawal rolled back. Order id: %s", w.OrderID)

	return nil
}

// Checks by order id if there is a withdrawal and sets its new status with
// True return value. If there is no withdrawal record returns False.
func UpdateWithdrawalStatusIfRequired(orderID, status string) (bool, error) {
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var withdrawal Withdrawal
		if err := tx.First(&withdrawal, "order_id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return logger.WrapError(err, "")
		}

		if status != "Success" {
			if err := withdrawal.Rollback(tx); err != nil {
				return logger.WrapError(err, "")
			}
			return nil
		}

		withdrawal.Status = "Success"
		if err := tx.Save(&withdrawal).Error; err != nil {
			return logger.WrapError(err, "")
		}

		return nil
	})
	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	} else if err != nil {
		return false, logger.WrapError(err, "")
	}

	return true, nil
}
