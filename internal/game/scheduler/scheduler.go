// Package scheduler owns the lifecycle of every concurrently ticking betting
// round. Each duration track runs an independent state machine: Active until
// the period's natural end time, Closing while the outcome is chosen and the
// book settles, then the next round opens immediately. A round that fails to
// settle stays Closing and is retried until it succeeds; it is never
// skipped, because every placed bet must resolve exactly once.
package scheduler

import (
	"time"

	"GoodGamingApi/internal/game/period"
	"GoodGamingApi/internal/game/policy"
	"GoodGamingApi/pkg/logger"
)

type RoundState string

const (
	StateActive    RoundState = "active"
	StateClosing   RoundState = "closing"
	StateSettled   RoundState = "settled"
	StateCancelled RoundState = "cancelled"
)

// Tracks lists the round durations, in minutes, the engine runs.
var Tracks = []int{1, 3, 5, 10}

// RoundRef identifies a live round without carrying ledger state.
type RoundRef struct {
	ID              int64
	Identifier      string
	DurationMinutes int
	StartTime       time.Time
	EndTime         time.Time
}

// Store is the persistence surface a track needs. The gorm-backed
// implementation lives in the service layer.
type Store interface {
	// OpenRound creates the Active round for the identifier, or returns the
	// existing one after a restart.
	OpenRound(identifier string, durationMinutes int, start, end time.Time) (RoundRef, error)
	// ResumeRound returns the newest unresolved round on the track, if any.
	ResumeRound(durationMinutes int) (RoundRef, RoundState, bool, error)
	// CloseRound moves an Active round to Closing and reports the resulting
	// state. A Cancelled round is reported as-is.
	CloseRound(roundID int64) (RoundState, error)
	// Exposure aggregates the finalized bet book of a Closing round.
	Exposure(roundID int64) (policy.Exposure, error)
	// SettleRound resolves every bet of the round against the digit, exactly
	// once. It must be idempotent per round.
	SettleRound(roundID int64, digit int, manualOverride bool) error
	// PolicyConfig returns the current policy snapshot slice the engine
	// reads at close time.
	PolicyConfig() (policy.Config, error)
}

const (
	tickInterval      = time.Second
	settleBackoffBase = time.Second
	settleBackoffMax  = 30 * time.Second
	restartDelay      = 5 * time.Second
)

// Track is the state machine of one duration track. Tick is driven by a
// wall-clock ticker in Run and is also callable directly with a synthetic
// clock in tests.
type Track struct {
	durationMinutes int
	store           Store
	engine          *policy.Engine
	overrides       *OverrideBook
	now             func() time.Time

	current RoundRef
	closing bool
}

func NewTrack(durationMinutes int, store Store, engine *policy.Engine, overrides *OverrideBook) *Track {
	return &Track{
		durationMinutes: durationMinutes,
		store:           store,
		engine:          engine,
		overrides:       overrides,
		now:             time.Now,
	}
}

// SetNowFunc replaces the track's clock for tests.
func (t *Track) SetNowFunc(now func() time.Time) {
	t.now = now
}

// Current returns the round the track is working on.
func (t *Track) Current() RoundRef {
	return t.current
}

// Start resumes an unresolved round left over from a previous run, or opens
// the round containing the current instant.
func (t *Track) Start() error {
	ref, state, found, err := t.store.ResumeRound(t.durationMinutes)
	if err != nil {
		return logger.WrapError(err, "")
	}

	if found {
		t.current = ref
		t.closing = state == StateClosing
		return nil
	}

	return t.openRound(t.now())
}

func (t *Track) openRound(at time.Time) error {
	start, end := period.Window(at, t.durationMinutes)
	identifier := period.Encode(at, t.durationMinutes)

	ref, err := t.store.OpenRound(identifier, t.durationMinutes, start, end)
	if err != nil {
		return logger.WrapError(err, "")
	}

	t.current = ref
	t.closing = false
	return nil
}

// Tick advances the state machine. Before the round's natural end time it
// does nothing; at or after it, the round is closed, resolved and the next
// round opened. A settlement error leaves the round Closing so the next Tick
// retries it.
func (t *Track) Tick() error {
	now := t.now()
	if now.Before(t.current.EndTime) {
		return nil
	}

	if !t.closing {
		state, err := t.store.CloseRound(t.current.ID)
		if err != nil {
			return logger.WrapError(err, "")
		}

		if state == StateCancelled {
			// Admin cancelled mid-flight: stakes were already refunded, no
			// outcome is chosen.
			t.overrides.Discard(t.current.Identifier)
			return t.openRound(now)
		}
		t.closing = true
	}

	digit, manual := t.overrides.Peek(t.current.Identifier)
	if !manual {
		cfg, err := t.store.PolicyConfig()
		if err != nil {
			return logger.WrapError(err, "")
		}
		exposure, err := t.store.Exposure(t.current.ID)
		if err != nil {
			return logger.WrapError(err, "")
		}
		digit = t.engine.ChooseOutcome(exposure, cfg)
	}

	if err := t.store.SettleRound(t.current.ID, digit, manual); err != nil {
		return logger.WrapError(err, "")
	}

	t.overrides.Discard(t.current.Identifier)
	return t.openRound(now)
}

// Run drives the track with a wall-clock ticker until stop is closed.
// Settlement failures back off exponentially but never give up.
func (t *Track) Run(stop <-chan struct{}) {
	for {
		err := t.Start()
		if err == nil {
			break
		}
		logger.Error("track %dm: unable to open initial round; retrying: %v", t.durationMinutes, err)
		select {
		case <-stop:
			return
		case <-time.After(restartDelay):
		}
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	backoff := settleBackoffBase
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if err := t.Tick(); err != nil {
			logger.Error("track %dm round %s: %v; retrying in %v",
				t.durationMinutes, t.current.Identifier, err, backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > settleBackoffMax {
				backoff = settleBackoffMax
			}
			continue
		}
		backoff = settleBackoffBase
	}
}

// Supervise restarts a track loop if it panics, the same way the rest of the
// game loops are supervised.
func Supervise(t *Track, stop <-chan struct{}) {
	for {
		logger.Info("starting %dm round track", t.durationMinutes)

		done := make(chan bool)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("%dm round track panicked: %v", t.durationMinutes, r)
					done <- true
				}
			}()

			t.Run(stop)
			done <- false
		}()

		if panicked := <-done; !panicked {
			return
		}
		time.Sleep(restartDelay)
	}
}
