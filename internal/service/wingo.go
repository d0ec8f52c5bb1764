package service

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/game/scheduler"
	"GoodGamingApi/internal/middleware"
	"GoodGamingApi/internal/models"
	"GoodGamingApi/pkg/logger"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type WingoBetInput struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Duration  int     `json:"duration" validate:"required,oneof=1 3 5 10"`
	Selection string  `json:"selection" validate:"required"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// PlaceWingoBet handles POST requests to place a bet on the active round of
// a duration track.
func PlaceWingoBet(c *gin.Context) {
	userID, err := middleware.GetUserIDFromGinContext(c)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	var input WingoBetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	if err := validate.Struct(input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	bet, err := models.PlaceBet(userID, input.Duration, input.Selection, input.Amount)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInsufficientBalance):
			c.JSON(402, gin.H{"error": "Insufficient balance"})
		case errors.Is(err, models.ErrStakeExceedsLimit):
			c.JSON(400, gin.H{"error": "Stake exceeds your VIP bet limit"})
		case errors.Is(err, models.ErrRoundNotActive):
			c.JSON(400, gin.H{"error": "Round is not accepting bets"})
		default:
			logger.Error("%v", err)
			c.Status(500)
		}
		return
	}

	WingoWS.BroadcastBetPlaced(input.Duration, bet)

	c.JSON(200, bet)
}

// GetCurrentWingoRounds returns the Active round of every track. The
// pending outcome is never part of a round before it settles, so there is
// nothing to leak.
func GetCurrentWingoRounds(c *gin.Context) {
	rounds := make([]gin.H, 0, len(scheduler.Tracks))
	for _, duration := range scheduler.Tracks {
		round, err := models.GetActiveRound(nil, duration)
		if err != nil {
			continue
		}
		rounds = append(rounds, gin.H{
			"identifier": round.Identifier,
			"duration":   round.DurationMinutes,
			"start_time": round.StartTime,
			"end_time":   round.EndTime,
		})
	}

	c.JSON(200, rounds)
}

// GetWingoHistory returns the recent settled rounds of one track, served
// from the redis cache when it is warm and from the database otherwise.
func GetWingoHistory(c *gin.Context) {
	duration := parseDurationQuery(c)
	if duration == 0 {
		c.JSON(400, gin.H{"error": "unknown duration track"})
		return
	}

	if rounds, ok := cachedRecentRounds(c.Request.Context(), duration, 20); ok {
		c.JSON(200, rounds)
		return
	}

	rounds, err := models.GetRecentSettledRounds(nil, duration, 20)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	c.JSON(200, rounds)
}

// GetLatestWingoResult returns the newest settled round of one track from
// the per-track latest-result cache, falling back to the database.
func GetLatestWingoResult(c *gin.Context) {
	duration := parseDurationQuery(c)
	if duration == 0 {
		c.JSON(400, gin.H{"error": "unknown duration track"})
		return
	}

	if round, ok := cachedLatestRound(c.Request.Context(), duration); ok {
		c.JSON(200, round)
		return
	}

	rounds, err := models.GetRecentSettledRounds(nil, duration, 1)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}
	if len(rounds) == 0 {
		c.JSON(404, gin.H{"error": "no settled rounds yet"})
		return
	}

	c.JSON(200, rounds[0])
}

// GetUserWingoBets returns the caller's latest bets together with the
// current balance.
func GetUserWingoBets(c *gin.Context) {
	userID, err := middleware.GetUserIDFromGinContext(c)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	bets, err := models.GetUserRecentBets(userID, 20)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	c.JSON(200, gin.H{
		"userBalance": user.Balance,
		"latestBets":  bets,
	})
}

func parseDurationQuery(c *gin.Context) int {
	switch c.Query("duration") {
	case "1":
		return 1
	case "3":
		return 3
	case "5":
		return 5
	case "10":
		return 10
	}
	return 0
}
