package service

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/middleware"
	"GoodGamingApi/internal/models"
	"GoodGamingApi/pkg/logger"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AccessExpiration is the access token lifetime in hours.
const AccessExpiration = 10

type Token struct {
	AccessToken string `json:"access_token"`
}

type loginInput struct {
	Nickname string `json:"nickname" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=6"`
}

type signUpInput struct {
	Nickname         string `json:"nickname" validate:"required,min=3,max=32"`
	Password         string `json:"password" validate:"required,min=6"`
	ReferrerNickname string `json:"referrer_nickname"`
}

func AuthLogin(c *gin.Context) {
	var req loginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}

	if err := validate.Struct(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}

	user, err := models.GetUserWithPassword(req.Nickname)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(401, gin.H{"error": "invalid nickname or password"})
			return
		}
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	if !middleware.ComparePasswords(user.Password, req.Password) {
		c.JSON(401, gin.H{"error": "invalid nickname or password"})
		return
	}

	issueToken(c, user.ID)
}

// SignUp registers a new player. An optional referrer nickname links the
// account into the commission cascade.
func SignUp(c *gin.Context) {
	var req signUpInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}

	if err := validate.Struct(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	exists, err := models.CheckIfUserExistsByNickname(req.Nickname)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}
	if exists {
		c.JSON(409, gin.H{"error": "nickname already taken"})
		return
	}

	var referrerID *int64
	if req.ReferrerNickname != "" {
		referrer, err := models.GetUserWithPassword(req.ReferrerNickname)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(400, gin.H{"error": "referrer not found"})
				return
			}
			logger.Error("%v", err)
			c.Status(500)
			return
		}
		referrerID = &referrer.ID
	}

	hash, err := middleware.HashPassword(req.Password)
	if err != nil {
		logger.Error("%v", err)
		c.Status(500)
		return
	}

	user := models.User{
		Nickname:   req.Nickname,
		Password:   hash,
		ReferrerID: referrerID,
		CreatedAt:  time.Now(),
	}

	if err = db.DB.Create(&user).Error; err != nil {
		logger.Error("%v", logger.WrapError(err, ""))
		c.Status(500)
		return
	}

	issueToken(c, user.ID)
}

func issueToken(c *gin.Context, userID int64) {
	expiresAt := time.Now().Unix() + int64(AccessExpiration*60*60)

	access, err := middleware.TokenNew(
		middleware.AccessTokenKey(), userID, expiresAt, middleware.TokenAccess)
	if err != nil {
		logger.Error("%v", err)
		c.AbortWithStatus(500)
		return
	}

	c.JSON(200, Token{AccessToken: access})
}
