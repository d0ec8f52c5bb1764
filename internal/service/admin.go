package service

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/game/period"
	"GoodGamingApi/internal/game/scheduler"
	"GoodGamingApi/internal/models"
	"GoodGamingApi/pkg/logger"
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type stageOverrideInput struct {
	Identifier string `json:"identifier" validate:"required,len=14"`
	Digit      *int   `json:"digit" validate:"required"`
	// StakeHint is the operator's expected stake on the digit. It is
	// informational only and never affects settlement.
	StakeHint *float64 `json:"stake_hint" validate:"omitempty,gte=0"`
}

// StageOverride records an admin-forced outcome for a future round. The
// digit is applied when that round reaches its natural close, never before;
// staging for an already-settled identifier has no effect.
func StageOverride(c *gin.Context) {
	var input stageOverrideInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(400, gin.H{"error": "Unable to unmarshal body"})
		return
	}

	if err := validate.Struct(&input); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	if err := Overrides.Stage(input.Identifier, *input.Digit); err != nil {
		if errors.Is(err, scheduler.ErrInvalidOverride) || errors.Is(err, scheduler.ErrStaleOverride) {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	if input.StakeHint != nil {
		logger.Info("Override staged for round %s: digit %d (expected stake %.2f)",
			input.Identifier, *input.Digit, *input.StakeHint)
	} else {
		logger.Info("Override staged for round %s: digit %d", input.Identifier, *input.Digit)
	}
	c.JSON(200, gin.H{"status": "override staged", "identifier": input.Identifier})
}

// GetStagedOverrides lists pending overrides so admins can audit the book.
func GetStagedOverrides(c *gin.Context) {
	c.JSON(200, Overrides.Staged())
}

// DiscardOverride removes a staged override before its round closes.
func DiscardOverride(c *gin.Context) {
	identifier := c.Param("identifier")
	if _, ok := Overrides.Peek(identifier); !ok {
		c.JSON(404, gin.H{"error": "no override staged for this round"})
		return
	}

	Overrides.Discard(identifier)
	c.JSON(200, gin.H{"status": "override discarded"})
}

// CancelAdminRound voids an active round, refunding all stakes. Cancelling
// a round that is already closing or settled is rejected.
func CancelAdminRound(c *gin.Context) {
	identifier := c.Param("identifier")

	round, err := models.GetRoundByIdentifier(nil, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(404, gin.H{"error": "round not found"})
			return
		}
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	if err = models.CancelRound(round.ID); err != nil {
		if errors.Is(err, models.ErrInvalidStateTransition) {
			c.JSON(409, gin.H{"error": "round can only be cancelled while active"})
			return
		}
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	logger.Info("Round %s cancelled", identifier)
	c.JSON(200, gin.H{"status": "round cancelled"})
}

func GetPolicyConfig(c *gin.Context) {
	var cfg models.PolicyConfig
	if err := db.DB.First(&cfg).Error; err != nil {
		logger.Error("%v", logger.WrapError(err, ""))
		c.Status(500)
		return
	}

	c.JSON(200, cfg)
}

// UpdateAdminPolicyConfig replaces the policy configuration. The new values
// take effect at the next round close.
func UpdateAdminPolicyConfig(c *gin.Context) {
	var edited models.PolicyConfig
	if err := c.ShouldBindJSON(&edited); err != nil {
		c.JSON(400, gin.H{"error": "Unable to unmarshal body"})
		return
	}

	saved, err := models.UpdatePolicyConfig(edited)
	if err != nil {
		if errors.Is(err, models.ErrConfigurationInvalid) {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	logger.Info("Policy config updated to version %d", saved.Version)
	c.JSON(200, saved)
}

// GetUpcomingPeriods predicts the next period identifiers for one track so
// an admin can stage an override against a round that does not exist yet.
func GetUpcomingPeriods(c *gin.Context) {
	duration, err := strconv.Atoi(c.DefaultQuery("duration", "1"))
	if err != nil || !isKnownTrack(duration) {
		c.JSON(400, gin.H{"error": "unknown track duration"})
		return
	}

	count, err := strconv.Atoi(c.DefaultQuery("count", "10"))
	if err != nil || count < 1 || count > 100 {
		count = 10
	}

	now := time.Now()
	identifiers := make([]string, 0, count)
	for i := 0; i < count; i++ {
		at := now.Add(time.Duration(i*duration) * time.Minute)
		identifiers = append(identifiers, period.Encode(at, duration))
	}

	c.JSON(200, gin.H{"duration": duration, "identifiers": identifiers})
}

func isKnownTrack(duration int) bool {
	for _, d := range scheduler.Tracks {
		if d == duration {
			return true
		}
	}
	return false
}
