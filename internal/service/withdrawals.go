package service

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/game/wagering"
	"GoodGamingApi/internal/middleware"
	"GoodGamingApi/internal/models"
	"GoodGamingApi/pkg/logger"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type withdrawalInput struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

func (i *withdrawalInput) Validate() error {
	return validate.Struct(i)
}

// CreateWithdrawal debits the balance and records a pending withdrawal,
// provided the wagering gate passes. The actual payout is confirmed or
// rolled back by the payment postback.
func CreateWithdrawal(c *gin.Context) {
	var input withdrawalInput

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": "Unable to unmarshal body"})
		return
	}

	if err := input.Validate(); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	userID, err := middleware.GetUserIDFromGinContext(c)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	var eligibility wagering.Eligibility
	var withdrawal models.Withdrawal
	errNotEligible := errors.New("withdrawal not allowed")

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		user, err := models.GetUserForUpdate(tx, userID)
		if err != nil {
			return logger.WrapError(err, "")
		}

		snap, err := models.CurrentPolicySnapshot(tx)
		if err != nil {
			return logger.WrapError(err, "")
		}

		eligibility = wagering.CanWithdraw(wagering.Totals{
			LifetimeDeposits: user.LifetimeDeposits,
			LifetimeBets:     user.LifetimeBets,
			VIPLevel:         user.VIPLevel,
			LastWithdrawalAt: user.LastWithdrawalAt,
		}, snap.WageringConfig(), time.Now())
		if !eligibility.Eligible {
			return errNotEligible
		}

		if user.Balance < input.Amount {
			return models.ErrInsufficientBalance
		}

		now := time.Now()
		if err = tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"balance":            gorm.Expr("balance - ?", input.Amount),
				"last_withdrawal_at": now,
			}).Error; err != nil {
			return logger.WrapError(err, "")
		}

		withdrawal = models.Withdrawal{
			UserID:    userID,
			OrderID:   uuid.NewString(),
			Amount:    input.Amount,
			Status:    "Pending",
			CreatedAt: now,
		}

		if err = tx.Create(&withdrawal).Error; err != nil {
			return logger.WrapError(err, "")
		}

		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, errNotEligible):
			c.JSON(403, eligibility)
		case errors.Is(err, models.ErrInsufficientBalance):
			c.JSON(402, gin.H{"error": err.Error()})
		default:
			logger.Error("%v", err)
			c.Status(500)
		}
		return
	}

	c.JSON(200, gin.H{
		"status":   "withdrawal request created",
		"order_id": withdrawal.OrderID,
	})
}

// GetWithdrawalEligibility reports the wagering gate verdict without
// creating a withdrawal, so the client can grey out the button.
func GetWithdrawalEligibility(c *gin.Context) {
	userID, err := middleware.GetUserIDFromGinContext(c)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	var user models.User
	if err = db.DB.First(&user, userID).Error; err != nil {
		logger.Error("%v", logger.WrapError(err, ""))
		c.Status(500)
		return
	}

	snap, err := models.CurrentPolicySnapshot(nil)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	eligibility := wagering.CanWithdraw(wagering.Totals{
		LifetimeDeposits: user.LifetimeDeposits,
		LifetimeBets:     user.LifetimeBets,
		VIPLevel:         user.VIPLevel,
		LastWithdrawalAt: user.LastWithdrawalAt,
	}, snap.WageringConfig(), time.Now())

	c.JSON(200, eligibility)
}

// GetUserWithdrawals lists the caller's withdrawal history, newest first.
func GetUserWithdrawals(c *gin.Context) {
	userID, err := middleware.GetUserIDFromGinContext(c)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	var withdrawals []models.Withdrawal
	if err = db.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&withdrawals).Error; err != nil {
		logger.Error("%v", logger.WrapError(err, ""))
		c.Status(500)
		return
	}

	c.JSON(200, withdrawals)
}
