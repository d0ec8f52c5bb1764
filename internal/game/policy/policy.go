// Package policy chooses the winning digit for a closing round. The engine
// is pure given its random source: it reads accumulated bet exposure and a
// configuration snapshot and never touches the ledger.
package policy

import (
	"math"
	"math/rand"
	"sync"
)

type Mode string

const (
	ModeFairRandom       Mode = "fair_random"
	ModeProfitGuaranteed Mode = "profit_guaranteed"
	ModePlayerFavored    Mode = "player_favored"
)

// playerFavoredChance is the probability that PlayerFavored picks the most
// player-favorable digit instead of falling back to ProfitGuaranteed.
const playerFavoredChance = 0.6

// Config is the slice of the policy configuration the engine reads at round
// close. Writes to the live configuration take effect on the next close.
type Config struct {
	Mode                     Mode
	HouseProfitTargetPercent float64
}

// Exposure is the finalized bet book of one round, aggregated per candidate
// digit before any outcome is chosen.
type Exposure struct {
	// StakeByOutcome[n] is the total stake on selections that would win if
	// digit n were drawn.
	StakeByOutcome [10]float64
	// PayoutByOutcome[n] is the total gross payout owed if digit n were
	// drawn.
	PayoutByOutcome [10]float64
	TotalStaked     float64
}

// Engine picks winning digits. Safe for concurrent use by multiple duration
// tracks.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewEngine(seed int64) *Engine {
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// ChooseOutcome returns the winning digit for the given exposure under the
// configured mode.
func (e *Engine) ChooseOutcome(exp Exposure, cfg Config) int {
	switch cfg.Mode {
	case ModeProfitGuaranteed:
		return e.chooseProfitGuaranteed(exp, cfg)
	case ModePlayerFavored:
		if e.roll() < playerFavoredChance {
			return choosePlayerFavorable(exp)
		}
		return e.chooseProfitGuaranteed(exp, cfg)
	default:
		return e.uniform()
	}
}

func (e *Engine) uniform() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(10)
}

func (e *Engine) roll() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

// chooseProfitGuaranteed picks the digit whose hypothetical house profit is
// closest to houseProfitTargetPercent of the total staked. Ties break to the
// lowest aggregate exposure, then to the lowest digit.
func (e *Engine) chooseProfitGuaranteed(exp Exposure, cfg Config) int {
	if exp.TotalStaked == 0 {
		return e.uniform()
	}

	target := cfg.HouseProfitTargetPercent / 100 * exp.TotalStaked

	best := 0
	bestDistance := math.Inf(1)
	for n := 0; n <= 9; n++ {
		profit := exp.TotalStaked - exp.PayoutByOutcome[n]
		distance := math.Abs(profit - target)
		if distance < bestDistance ||
			(distance == bestDistance && exp.StakeByOutcome[n] < exp.StakeByOutcome[best]) {
			best = n
			bestDistance = distance
		}
	}
	return best
}

// choosePlayerFavorable picks the digit that maximizes aggregate payout to
// bettors, lowest digit on ties.
func choosePlayerFavorable(exp Exposure) int {
	best := 0
	for n := 1; n <= 9; n++ {
		if exp.PayoutByOutcome[n] > exp.PayoutByOutcome[best] {
			best = n
		}
	}
	return best
}
