package service

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/middleware"
	"GoodGamingApi/internal/models"
	"GoodGamingApi/pkg/logger"

	"github.com/gin-gonic/gin"
)

// GetUserDeposits lists the caller's credited deposits, newest first.
func GetUserDeposits(c *gin.Context) {
	userID, err := middleware.GetUserIDFromGinContext(c)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	var deps []models.Deposit
	err = db.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(50).
		Find(&deps).Error
	if err != nil {
		logger.Error("%v", logger.WrapError(err, ""))
		c.Status(500)
		return
	}

	c.JSON(200, deps)
}

// GetUserCommissions lists referral commission credits earned by the caller.
func GetUserCommissions(c *gin.Context) {
	userID, err := middleware.GetUserIDFromGinContext(c)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	credits, err := models.GetUserCommissionCredits(userID, 50)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	c.JSON(200, credits)
}
