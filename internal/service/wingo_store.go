package service

import (
	"GoodGamingApi/cmd/db"
	"GoodGamingApi/internal/game/policy"
	"GoodGamingApi/internal/game/scheduler"
	"GoodGamingApi/internal/models"
	"GoodGamingApi/pkg/logger"
	"GoodGamingApi/pkg/redis"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Overrides is the live book of admin-staged outcomes, shared between the
// track loops and the admin endpoints.
var Overrides = scheduler.NewOverrideBook()

// wingoCache is the shared redis handle the result cache is written to on
// settlement and read from by the history endpoints. Set in
// StartRoundTracks; nil when redis is not configured.
var wingoCache *redis.RedisService

func latestResultKey(durationMinutes int) string {
	return fmt.Sprintf("wingo_latest_%d", durationMinutes)
}

func recentResultsKey(durationMinutes int) string {
	return fmt.Sprintf("wingo_recent_%d", durationMinutes)
}

// cachedRecentRounds reads the recent-results list of a track from redis.
// A cold or unreachable cache reports !ok and the caller falls back to the
// database.
func cachedRecentRounds(ctx context.Context, durationMinutes, limit int) ([]models.Round, bool) {
	if wingoCache == nil {
		return nil, false
	}

	values, err := wingoCache.GetRecent(ctx, recentResultsKey(durationMinutes), int64(limit))
	if err != nil || len(values) == 0 {
		return nil, false
	}

	rounds := make([]models.Round, 0, len(values))
	for _, v := range values {
		var round models.Round
		if err := json.Unmarshal([]byte(v), &round); err != nil {
			logger.Error("unreadable cached round, falling back to database: %v", err)
			return nil, false
		}
		rounds = append(rounds, round)
	}

	return rounds, true
}

// cachedLatestRound reads the per-track latest-result key from redis.
func cachedLatestRound(ctx context.Context, durationMinutes int) (*models.Round, bool) {
	if wingoCache == nil {
		return nil, false
	}

	value, err := wingoCache.GetKey(ctx, latestResultKey(durationMinutes))
	if err != nil {
		return nil, false
	}

	var round models.Round
	if err := json.Unmarshal([]byte(value), &round); err != nil {
		logger.Error("unreadable cached round, falling back to database: %v", err)
		return nil, false
	}

	return &round, true
}

// wingoStore backs the round scheduler with gorm and fans settled results
// out to redis and the websocket hub.
type wingoStore struct {
	redisService *redis.RedisService
}

func (s *wingoStore) OpenRound(identifier string, durationMinutes int, start, end time.Time) (scheduler.RoundRef, error) {
	round := models.Round{
		Identifier:      identifier,
		DurationMinutes: durationMinutes,
		StartTime:       start,
		EndTime:         end,
		Status:          models.RoundActive,
	}

	err := db.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identifier"}},
		DoNothing: true,
	}).Create(&round).Error
	if err != nil {
		return scheduler.RoundRef{}, logger.WrapError(err, "")
	}

	// On conflict the insert returns no id; load the existing row.
	if round.ID == 0 {
		existing, err := models.GetRoundByIdentifier(nil, identifier)
		if err != nil {
			return scheduler.RoundRef{}, logger.WrapError(err, "")
		}
		round = *existing
	}

	WingoWS.BroadcastRoundOpened(&round)

	return roundRef(&round), nil
}

func (s *wingoStore) ResumeRound(durationMinutes int) (scheduler.RoundRef, scheduler.RoundState, bool, error) {
	var round models.Round
	err := db.DB.Where("duration_minutes = ? AND status IN ?",
		durationMinutes, []models.RoundStatus{models.RoundActive, models.RoundClosing}).
		Order("end_time desc").
		First(&round).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return scheduler.RoundRef{}, "", false, nil
		}
		return scheduler.RoundRef{}, "", false, logger.WrapError(err, "")
	}

	return roundRef(&round), scheduler.RoundState(round.Status), true, nil
}

func (s *wingoStore) CloseRound(roundID int64) (scheduler.RoundState, error) {
	var state scheduler.RoundState
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var round models.Round
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&round, roundID).Error; err != nil {
			return logger.WrapError(err, "")
		}

		if round.Status == models.RoundCancelled {
			state = scheduler.StateCancelled
			return nil
		}

		if round.Status == models.RoundActive {
			if err := tx.Model(&round).
				Update("status", models.RoundClosing).Error; err != nil {
				return logger.WrapError(err, "")
			}
		}
		state = scheduler.StateClosing
		return nil
	})
	if err != nil {
		return "", logger.WrapError(err, "")
	}

	return state, nil
}

func (s *wingoStore) Exposure(roundID int64) (policy.Exposure, error) {
	return models.RoundExposure(nil, roundID)
}

func (s *wingoStore) SettleRound(roundID int64, digit int, manualOverride bool) error {
	snap, err := models.CurrentPolicySnapshot(nil)
	if err != nil {
		return logger.WrapError(err, "")
	}

	if err := models.SettleRound(roundID, digit, manualOverride, snap.Config.BettingFeePercent); err != nil {
		return logger.WrapError(err, "")
	}

	var round models.Round
	if err := db.DB.First(&round, roundID).Error; err != nil {
		return logger.WrapError(err, "")
	}

	s.cacheResult(&round)
	WingoWS.BroadcastRoundSettled(&round)
	broadcastBalanceChanges(roundID)

	return nil
}

func (s *wingoStore) PolicyConfig() (policy.Config, error) {
	snap, err := models.CurrentPolicySnapshot(nil)
	if err != nil {
		return policy.Config{}, logger.WrapError(err, "")
	}
	return snap.PolicyConfig(), nil
}

// cacheResult keeps the latest result per track and a short recent-results
// list in redis for the public feed. Cache failures only log: the database
// already holds the settled round.
func (s *wingoStore) cacheResult(round *models.Round) {
	if s.redisService == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, err := json.Marshal(round)
	if err != nil {
		logger.Error("%v", err)
		return
	}

	if err := s.redisService.SetKey(ctx, latestResultKey(round.DurationMinutes), payload, 24*time.Hour); err != nil {
		logger.Error("%v", err)
	}

	if err := s.redisService.PushRecent(ctx, recentResultsKey(round.DurationMinutes), payload, 50); err != nil {
		logger.Error("%v", err)
	}
}

func roundRef(round *models.Round) scheduler.RoundRef {
	return scheduler.RoundRef{
		ID:              round.ID,
		Identifier:      round.Identifier,
		DurationMinutes: round.DurationMinutes,
		StartTime:       round.StartTime,
		EndTime:         round.EndTime,
	}
}

func broadcastBalanceChanges(roundID int64) {
	var bets []models.Bet
	if err := db.DB.Where("round_id = ?", roundID).Find(&bets).Error; err != nil {
		logger.Error("%v", err)
		return
	}

	for i := range bets {
		WingoWS.SendBetResultToUser(&bets[i])
	}
}

// StartRoundTracks launches one supervised scheduling loop per duration
// track. They share the policy configuration and the ledger through the
// store, nothing else.
func StartRoundTracks(redisService *redis.RedisService, stop <-chan struct{}) {
	wingoCache = redisService
	store := &wingoStore{redisService: redisService}
	engine := policy.NewEngine(time.Now().UnixNano())

	for _, duration := range scheduler.Tracks {
		track := scheduler.NewTrack(duration, store, engine, Overrides)
		go scheduler.Supervise(track, stop)
	}
}
