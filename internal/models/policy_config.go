package models

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/game/policy"
	"GoodGamingApi/internal/game/wagering"
	"GoodGamingApi/pkg/logger"
	"errors"

	"gorm.io/gorm"
)

var ErrConfigurationInvalid = errors.New("policy configuration invalid")

// PolicyConfig is the single mutable configuration row administrators edit.
// Writes are validated here and take effect at the next round close: the
// scheduler reads a snapshot at the instant it needs one, never mid
// settlement.
type PolicyConfig struct {
	ID                        int64 `gorm:"primaryKey"`
	Version                   int64
	Mode                      string
	HouseProfitTargetPercent  float64
	BettingFeePercent         float64
	BettingRequirementPercent float64
	WithdrawalCooldownHours   int
	MinimumWithdrawalVIPLevel int
	CommissionLv1Percent      float64
	CommissionLv2Percent      float64
	CommissionMaxHops         int
}

// VIPLevel configures one tier: its bet ceiling, the lifetime deposit needed
// to reach it, and the flat commission rate used beyond the second referral
// hop.
type VIPLevel struct {
	Level              int `gorm:"primaryKey"`
	MaxBetLimit        float64
	DepositRequirement float64
	CommissionPercent  float64
}

func (c *PolicyConfig) Validate() error {
	switch policy.Mode(c.Mode) {
	case policy.ModeFairRandom, policy.ModeProfitGuaranteed, policy.ModePlayerFavored:
	default:
		return ErrConfigurationInvalid
	}

	percents := []float64{
		c.HouseProfitTargetPercent,
		c.BettingFeePercent,
		c.BettingRequirementPercent,
		c.CommissionLv1Percent,
		c.CommissionLv2Percent,
	}
	for _, p := range percents {
		if p < 0 || p > 100 {
			return ErrConfigurationInvalid
		}
	}

	if c.WithdrawalCooldownHours < 0 || c.MinimumWithdrawalVIPLevel < 0 || c.CommissionMaxHops < 0 {
		return ErrConfigurationInvalid
	}

	return nil
}

// PolicySnapshot is an immutable copy of the configuration plus the VIP
// table, handed to round close, bet placement and the withdrawal gate.
type PolicySnapshot struct {
	Version   int64
	Config    PolicyConfig
	VIPLevels map[int]VIPLevel
}

func (s *PolicySnapshot) PolicyConfig() policy.Config {
	return policy.Config{
		Mode:                     policy.Mode(s.Config.Mode),
		HouseProfitTargetPercent: s.Config.HouseProfitTargetPercent,
	}
}

func (s *PolicySnapshot) WageringConfig() wagering.Config {
	return wagering.Config{
		BettingRequirementPercent: s.Config.BettingRequirementPercent,
		WithdrawalCooldownHours:   s.Config.WithdrawalCooldownHours,
		MinimumWithdrawalVIPLevel: s.Config.MinimumWithdrawalVIPLevel,
	}
}

func (s *PolicySnapshot) CommissionRates() wagering.CommissionRates {
	vip := make(map[int]float64, len(s.VIPLevels))
	for level, cfg := range s.VIPLevels {
		vip[level] = cfg.CommissionPercent
	}
	return wagering.CommissionRates{
		Lv1Percent: s.Config.CommissionLv1Percent,
		Lv2Percent: s.Config.CommissionLv2Percent,
		VIPPercent: vip,
		MaxHops:    s.Config.CommissionMaxHops,
	}
}

// MaxBetLimit returns the bet ceiling of a VIP tier, 0 when the tier is
// unknown (no limit).
func (s *PolicySnapshot) MaxBetLimit(vipLevel int) float64 {
	if cfg, ok := s.VIPLevels[vipLevel]; ok {
		return cfg.MaxBetLimit
	}
	return 0
}

// CurrentPolicySnapshot loads the configuration row and VIP table.
func CurrentPolicySnapshot(tx *gorm.DB) (*PolicySnapshot, error) {
	if tx == nil {
		tx = db.DB
	}

	var cfg PolicyConfig
	if err := tx.First(&cfg).Error; err != nil {
		return nil, logger.WrapError(err, "")
	}

	var levels []VIPLevel
	if err := tx.Find(&levels).Error; err != nil {
		return nil, logger.WrapError(err, "")
	}

	snap := &PolicySnapshot{
		Version:   cfg.Version,
		Config:    cfg,
		VIPLevels: make(map[int]VIPLevel, len(levels)),
	}
	for _, l := range levels {
		snap.VIPLevels[l.Level] = l
	}

	return snap, nil
}

// UpdatePolicyConfig validates and persists an edited configuration,
// bumping its version. Invalid writes are rejected here, never surfacing at
// round close.
func UpdatePolicyConfig(edited PolicyConfig) (*PolicyConfig, error) {
	if err := edited.Validate(); err != nil {
		return nil, err
	}

	var saved PolicyConfig
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var current PolicyConfig
		if err := tx.Clauses(forUpdateLock()).First(&current).Error; err != nil {
			return logger.WrapError(err, "")
		}

		edited.ID = current.ID
		edited.Version = current.Version + 1
		if err := tx.Save(&edited).Error; err != nil {
			return logger.WrapError(err, "")
		}

		saved = edited
		return nil
	})
	if err != nil {
		return nil, logger.WrapError(err, "")
	}

	return &saved, nil
}
