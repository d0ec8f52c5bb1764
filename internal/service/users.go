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
	"gorm.io/gorm"
)

func GetUser(c *gin.Context) {
	var user models.User
	var err error

	user.ID, err = middleware.GetUserIDFromGinContext(c)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	err = db.DB.First(&user, user.ID).Error
	if err != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(404, gin.H{"error": "User not found"})
		return
	} else if err != nil {
		logger.Error("%v", err)
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

	c.JSON(200, gin.H{
		"user":       user,
		"withdrawal": eligibility,
	})
}

type referralEntry struct {
	UserID       int64     `json:"user_id"`
	Nickname     string    `json:"nickname"`
	TotalCoins   float64   `json:"total_deposit_coins"`
	RegisteredAt time.Time `json:"registered_at"`
}

// GetUserReferrals lists players referred by the caller alongside their
// lifetime deposit volume.
func GetUserReferrals(c *gin.Context) {
	userID, err := middleware.GetUserIDFromGinContext(c)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	var referrals []referralEntry
	err = db.DB.Model(&models.User{}).
		Select("id AS user_id, nickname, lifetime_deposits AS total_coins, created_at AS registered_at").
		Where("referrer_id = ?", userID).
		Order("created_at DESC").
		Find(&referrals).Error
	if err != nil {
		logger.Error("%v", logger.WrapError(err, ""))
		c.Status(500)
		return
	}

	c.JSON(200, referrals)
}

func Auth(c *gin.Context) {
	userID, err := middleware.GetUserIDFromGinContext(c)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	exists, err := models.CheckIfUserExistsByID(userID)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	if exists {
		c.Status(200)
		return
	}

	c.Status(401)
}
