package scheduler

import (
	"errors"
	"sync"
	"time"

	"GoodGamingApi/internal/game/period"
)

var (
	ErrInvalidOverride = errors.New("invalid manual override")
	ErrStaleOverride   = errors.New("override round already ended")
)

// OverrideBook holds admin-staged outcomes keyed by period identifier. An
// override is consulted only inside the close transition when the round's
// timer naturally elapses: staging one never shortens or extends a round.
type OverrideBook struct {
	mu     sync.Mutex
	staged map[string]int
	now    func() time.Time
}

func NewOverrideBook() *OverrideBook {
	return &OverrideBook{
		staged: make(map[string]int),
		now:    time.Now,
	}
}

// SetNowFunc replaces the book's clock for tests.
func (b *OverrideBook) SetNowFunc(now func() time.Time) {
	b.now = now
}

// Stage records an outcome for the round with the given identifier,
// replacing any earlier staged outcome for it. An identifier whose window
// has already ended is rejected: its round is settled or about to be, and
// the override could never be consumed.
func (b *OverrideBook) Stage(identifier string, digit int) error {
	if digit < 0 || digit > 9 {
		return ErrInvalidOverride
	}
	date, duration, sequence, err := period.Decode(identifier)
	if err != nil {
		return ErrInvalidOverride
	}

	end := date.Add(time.Duration(sequence*duration) * time.Minute)
	if !b.now().Before(end) {
		return ErrStaleOverride
	}

	b.mu.Lock()
	b.staged[identifier] = digit
	b.mu.Unlock()
	return nil
}

// Peek returns the staged outcome without consuming it, so a failed
// settlement can retry with the same digit.
func (b *OverrideBook) Peek(identifier string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	digit, ok := b.staged[identifier]
	return digit, ok
}

// Discard drops the staged outcome once the round is settled or cancelled.
func (b *OverrideBook) Discard(identifier string) {
	b.mu.Lock()
	delete(b.staged, identifier)
	b.mu.Unlock()
}

// Staged returns a copy of all currently staged overrides.
func (b *OverrideBook) Staged() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]int, len(b.staged))
	for id, digit := range b.staged {
		out[id] = digit
	}
	return out
}
