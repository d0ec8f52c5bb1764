package policy_test

import (
	"math"
	"testing"

	"GoodGamingApi/internal/game/outcome"
	"GoodGamingApi/internal/game/policy"
)

// buildExposure aggregates a synthetic bet book the way the scheduler does
// at round close: stake and gross payout attributed to every digit a
// selection would win on.
func buildExposure(t *testing.T, bets map[string]float64) policy.Exposure {
	t.Helper()

	var exp policy.Exposure
	for raw, stake := range bets {
		sel, err := outcome.ParseSelection(raw)
		if err != nil {
			t.Fatalf("bad selection %q: %v", raw, err)
		}
		exp.TotalStaked += stake
		for n := 0; n <= 9; n++ {
			if sel.Matches(n) {
				exp.StakeByOutcome[n] += stake
				exp.PayoutByOutcome[n] += stake * sel.Multiplier()
			}
		}
	}
	return exp
}

func TestFairRandomRange(t *testing.T) {
	engine := policy.NewEngine(1)
	cfg := policy.Config{Mode: policy.ModeFairRandom}

	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		n := engine.ChooseOutcome(policy.Exposure{}, cfg)
		if n < 0 || n > 9 {
			t.Fatalf("outcome %d out of range", n)
		}
		seen[n] = true
	}
	if len(seen) != 10 {
		t.Errorf("uniform pick visited %d digits in 1000 draws, want 10", len(seen))
	}
}

func TestProfitGuaranteedConvergence(t *testing.T) {
	// Fixed synthetic book: unit number bets on every digit, two units on 0.
	const unitStake = 1.0
	exp := buildExposure(t, map[string]float64{
		"0": 2 * unitStake,
		"1": unitStake, "2": unitStake, "3": unitStake, "4": unitStake,
		"5": unitStake, "6": unitStake, "7": unitStake, "8": unitStake,
		"9": unitStake,
	})
	engine := policy.NewEngine(7)
	cfg := policy.Config{Mode: policy.ModeProfitGuaranteed, HouseProfitTargetPercent: 20}

	// Total staked 11, target profit 2.2. Digits 1-9 all realize profit 2
	// (distance 0.2); digit 0 realizes -7. Equal distance and exposure among
	// digits 1-9 breaks to the lowest digit.
	n := engine.ChooseOutcome(exp, cfg)
	if n != 1 {
		t.Errorf("outcome = %d, want 1", n)
	}

	profit := exp.TotalStaked - exp.PayoutByOutcome[n]
	target := cfg.HouseProfitTargetPercent / 100 * exp.TotalStaked
	if math.Abs(profit-target) > unitStake {
		t.Errorf("realized profit %v not within one unit stake of target %v", profit, target)
	}
}

func TestProfitGuaranteedPicksClosestToTarget(t *testing.T) {
	// Only a red color bet of 100. Red digits pay 200, all others pay 0.
	exp := buildExposure(t, map[string]float64{"red": 100})
	engine := policy.NewEngine(3)
	cfg := policy.Config{Mode: policy.ModeProfitGuaranteed, HouseProfitTargetPercent: 20}

	// Target profit 20. Non-red digits give profit 100 (distance 80), red
	// digits give -100 (distance 120). Ties among non-red digits break to
	// zero exposure then lowest digit: 0.
	for i := 0; i < 20; i++ {
		if n := engine.ChooseOutcome(exp, cfg); n != 0 {
			t.Fatalf("outcome = %d, want 0", n)
		}
	}
}

func TestProfitGuaranteedTieBreakLowestExposure(t *testing.T) {
	// Two digits with equal payout distance but different stake exposure.
	var exp policy.Exposure
	exp.TotalStaked = 100
	exp.PayoutByOutcome[2] = 80
	exp.StakeByOutcome[2] = 40
	exp.PayoutByOutcome[5] = 80
	exp.StakeByOutcome[5] = 10
	// All other digits pay 0: profit 100, distance |100-20| = 80. Digits 2
	// and 5 give profit 20, distance 0 - both optimal, 5 has lower exposure.
	engine := policy.NewEngine(11)
	cfg := policy.Config{Mode: policy.ModeProfitGuaranteed, HouseProfitTargetPercent: 20}

	if n := engine.ChooseOutcome(exp, cfg); n != 5 {
		t.Errorf("outcome = %d, want 5 (lowest exposure among ties)", n)
	}
}

func TestProfitGuaranteedZeroStakeFallsBackToRandom(t *testing.T) {
	engine := policy.NewEngine(5)
	cfg := policy.Config{Mode: policy.ModeProfitGuaranteed, HouseProfitTargetPercent: 20}

	seen := make(map[int]bool)
	for i := 0; i < 500; i++ {
		seen[engine.ChooseOutcome(policy.Exposure{}, cfg)] = true
	}
	if len(seen) < 8 {
		t.Errorf("zero-stake fallback visited only %d digits, want near uniform", len(seen))
	}
}

func TestPlayerFavoredMixesStrategies(t *testing.T) {
	exp := buildExposure(t, map[string]float64{"7": 100})
	engine := policy.NewEngine(42)
	cfg := policy.Config{Mode: policy.ModePlayerFavored, HouseProfitTargetPercent: 20}

	favorable := 0
	const draws = 2000
	for i := 0; i < draws; i++ {
		if engine.ChooseOutcome(exp, cfg) == 7 {
			favorable++
		}
	}

	// Digit 7 is the uniquely most player-favorable pick (payout 900) and
	// never the profit-guaranteed pick, so its frequency estimates the 0.6
	// branch probability.
	ratio := float64(favorable) / draws
	if ratio < 0.55 || ratio > 0.65 {
		t.Errorf("player-favorable branch ratio = %.3f, want about 0.6", ratio)
	}
}
