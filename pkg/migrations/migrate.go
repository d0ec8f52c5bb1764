package main

import (
	"flag"

	"GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/models"
	"GoodGamingApi/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	drop := flag.Bool("drop", false, "drop tables before creating them")
	seed := flag.Bool("seed", true, "seed the default policy config and VIP tiers")
	flag.Parse()

	if *drop {
		dropTables()
	}
	createTables()
	if *seed {
		seedPolicy()
	}

	logger.Info("Migrated.")
}

func dropTables() {
	err := db.DB.Migrator().DropTable(
		&models.User{},
		&models.Round{},
		&models.Bet{},
		&models.Deposit{},
		&models.Withdrawal{},
		&models.CommissionCredit{},
		&models.PolicyConfig{},
		&models.VIPLevel{},
	)
	if err != nil {
		logger.Fatal("%v", err)
	}
}

func createTables() {
	err := db.DB.AutoMigrate(
		&models.User{},
		&models.Round{},
		&models.Bet{},
		&models.Deposit{},
		&models.Withdrawal{},
		&models.CommissionCredit{},
		&models.PolicyConfig{},
		&models.VIPLevel{},
	)
	if err != nil {
		logger.Fatal("%v", err)
	}
}

// seedPolicy writes the default policy row and VIP table if none exist.
func seedPolicy() {
	var count int64
	if err := db.DB.Model(&models.PolicyConfig{}).Count(&count).Error; err != nil {
		logger.Fatal("%v", err)
	}
	if count == 0 {
		cfg := models.PolicyConfig{
			Version:                   1,
			Mode:                      "fair_random",
			HouseProfitTargetPercent:  5,
			BettingFeePercent:         2,
			BettingRequirementPercent: 100,
			WithdrawalCooldownHours:   24,
			MinimumWithdrawalVIPLevel: 0,
			CommissionLv1Percent:      3,
			CommissionLv2Percent:      1,
			CommissionMaxHops:         2,
		}
		if err := db.DB.Create(&cfg).Error; err != nil {
			logger.Fatal("%v", err)
		}
	}

	if err := db.DB.Model(&models.VIPLevel{}).Count(&count).Error; err != nil {
		logger.Fatal("%v", err)
	}
	if count == 0 {
		levels := []models.VIPLevel{
			{Level: 0, MaxBetLimit: 1000, DepositRequirement: 0, CommissionPercent: 0.1},
			{Level: 1, MaxBetLimit: 5000, DepositRequirement: 10000, CommissionPercent: 0.2},
			{Level: 2, MaxBetLimit: 20000, DepositRequirement: 50000, CommissionPercent: 0.3},
			{Level: 3, MaxBetLimit: 50000, DepositRequirement: 200000, CommissionPercent: 0.5},
			{Level: 4, MaxBetLimit: 100000, DepositRequirement: 500000, CommissionPercent: 0.7},
			{Level: 5, MaxBetLimit: 500000, DepositRequirement: 2000000, CommissionPercent: 1},
		}
		if err := db.DB.Create(&levels).Error; err != nil {
			logger.Fatal("%v", err)
		}
	}
}
