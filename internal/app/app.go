package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/middleware"
	"GoodGamingApi/internal/service"
	"GoodGamingApi/pkg/logger"
	"GoodGamingApi/pkg/redis"
)

const apiPrefix = "api/"

func Start() {
	gin.DisableConsoleColor()

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.BlockBadActorsMiddleware())
	authorized := router.Group("/", middleware.AuthMiddleware())
	admin := router.Group("/", middleware.AdminKeyMiddleware())

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "redis:6379"
	}
	redisService := redis.NewRedisService(redisAddr, os.Getenv("REDIS_PASSWORD"))

	// Start the round schedulers, one per track duration.
	stopTracks := make(chan struct{})
	service.StartRoundTracks(redisService, stopTracks)

	// router
	{
		// payment system callback
		router.POST(apiPrefix+"payments/postback", service.PaymentSystemPostback)

		// auth
		router.POST(apiPrefix+"users/auth/signup", service.SignUp)
		router.POST(apiPrefix+"users/auth/login", service.AuthLogin)
	}

	// authorized
	{
		authorized.GET(apiPrefix+"users/auth", service.Auth)
		authorized.GET(apiPrefix+"users", service.GetUser)
		authorized.GET(apiPrefix+"users/referrals", service.GetUserReferrals)
		authorized.GET(apiPrefix+"users/commissions", service.GetUserCommissions)
		authorized.GET(apiPrefix+"users/deposits", service.GetUserDeposits)

		// payments
		authorized.POST(apiPrefix+"payments/withdrawal", service.CreateWithdrawal)
		authorized.GET(apiPrefix+"payments/withdrawal/eligibility", service.GetWithdrawalEligibility)
		authorized.GET(apiPrefix+"payments/withdrawals", service.GetUserWithdrawals)

		// wingo
		authorized.POST(apiPrefix+"games/wingo/place", service.PlaceWingoBet)
		authorized.GET(apiPrefix+"games/wingo/current", service.GetCurrentWingoRounds)
		authorized.GET(apiPrefix+"games/wingo/history", service.GetWingoHistory)
		authorized.GET(apiPrefix+"games/wingo/latest", service.GetLatestWingoResult)
		authorized.GET(apiPrefix+"games/wingo/bets", service.GetUserWingoBets)

		// Wingo WebSocket live feed
		authorized.GET(apiPrefix+"ws/wingo/live", service.WingoWS.LiveWingoWebsocketHandler)
	}

	// admin
	{
		admin.POST(apiPrefix+"admin/overrides", service.StageOverride)
		admin.GET(apiPrefix+"admin/overrides", service.GetStagedOverrides)
		admin.DELETE(apiPrefix+"admin/overrides/:identifier", service.DiscardOverride)
		admin.POST(apiPrefix+"admin/rounds/:identifier/cancel", service.CancelAdminRound)
		admin.GET(apiPrefix+"admin/policy", service.GetPolicyConfig)
		admin.PUT(apiPrefix+"admin/policy", service.UpdateAdminPolicyConfig)
		admin.GET(apiPrefix+"admin/periods", service.GetUpcomingPeriods)
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: router.Handler(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with
	// a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server...")

	close(stopTracks)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server Shutdown: %v", err)
	}

	logger.Info("Server exiting")
}
