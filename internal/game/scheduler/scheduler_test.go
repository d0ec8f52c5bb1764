package scheduler_test

import (
	"errors"
	"testing"
	"time"

	"GoodGamingApi/internal/game/period"
	"GoodGamingApi/internal/game/policy"
	"GoodGamingApi/internal/game/scheduler"
)

type settledRound struct {
	roundID int64
	digit   int
	manual  bool
}

// fakeStore drives a track in memory. Settlement can be forced to fail to
// exercise the retry path.
type fakeStore struct {
	nextID     int64
	rounds     map[int64]scheduler.RoundState
	cancelled  map[int64]bool
	opened     []scheduler.RoundRef
	settled    []settledRound
	settleErr  error
	settleTrys int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rounds:    make(map[int64]scheduler.RoundState),
		cancelled: make(map[int64]bool),
	}
}

func (s *fakeStore) OpenRound(identifier string, durationMinutes int, start, end time.Time) (scheduler.RoundRef, error) {
	s.nextID++
	ref := scheduler.RoundRef{
		ID:              s.nextID,
		Identifier:      identifier,
		DurationMinutes: durationMinutes,
		StartTime:       start,
		EndTime:         end,
	}
	s.rounds[ref.ID] = scheduler.StateActive
	s.opened = append(s.opened, ref)
	return ref, nil
}

func (s *fakeStore) ResumeRound(durationMinutes int) (scheduler.RoundRef, scheduler.RoundState, bool, error) {
	return scheduler.RoundRef{}, "", false, nil
}

func (s *fakeStore) CloseRound(roundID int64) (scheduler.RoundState, error) {
	if s.cancelled[roundID] {
		return scheduler.StateCancelled, nil
	}
	s.rounds[roundID] = scheduler.StateClosing
	return scheduler.StateClosing, nil
}

func (s *fakeStore) Exposure(roundID int64) (policy.Exposure, error) {
	return policy.Exposure{}, nil
}

func (s *fakeStore) SettleRound(roundID int64, digit int, manualOverride bool) error {
	s.settleTrys++
	if s.settleErr != nil {
		return s.settleErr
	}
	s.rounds[roundID] = scheduler.StateSettled
	s.settled = append(s.settled, settledRound{roundID: roundID, digit: digit, manual: manualOverride})
	return nil
}

func (s *fakeStore) PolicyConfig() (policy.Config, error) {
	return policy.Config{Mode: policy.ModeFairRandom}, nil
}

// testTrack builds a one-minute track with a controllable clock shared by
// the override book.
func testTrack(t *testing.T, store *fakeStore, overrides *scheduler.OverrideBook) (*scheduler.Track, *time.Time) {
	t.Helper()

	now := time.Date(2024, 3, 15, 10, 0, 10, 0, time.Local)
	overrides.SetNowFunc(func() time.Time { return now })
	track := scheduler.NewTrack(1, store, policy.NewEngine(1), overrides)
	track.SetNowFunc(func() time.Time { return now })
	if err := track.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return track, &now
}

func TestTickBeforeEndTimeDoesNothing(t *testing.T) {
	store := newFakeStore()
	track, now := testTrack(t, store, scheduler.NewOverrideBook())

	end := track.Current().EndTime
	*now = end.Add(-time.Second)
	if err := track.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(store.settled) != 0 {
		t.Error("round settled before its natural end time")
	}
	if track.Current().EndTime != end {
		t.Error("round changed before its natural end time")
	}
}

func TestTickResolvesAndOpensNext(t *testing.T) {
	store := newFakeStore()
	track, now := testTrack(t, store, scheduler.NewOverrideBook())

	first := track.Current()
	*now = first.EndTime
	if err := track.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(store.settled) != 1 || store.settled[0].roundID != first.ID {
		t.Fatalf("settled = %v, want round %d settled once", store.settled, first.ID)
	}
	if store.settled[0].manual {
		t.Error("natural close reported as manual override")
	}

	next := track.Current()
	if next.ID == first.ID {
		t.Fatal("no new round opened after close")
	}
	if next.Identifier != period.Encode(first.EndTime, 1) {
		t.Errorf("next identifier = %s, want %s", next.Identifier, period.Encode(first.EndTime, 1))
	}
	if got := period.Encode(first.StartTime, 1); got == next.Identifier {
		t.Error("identifier did not advance between consecutive rounds")
	}
}

func TestOverrideHonoredOnlyAtNaturalClose(t *testing.T) {
	store := newFakeStore()
	overrides := scheduler.NewOverrideBook()
	track, now := testTrack(t, store, overrides)

	first := track.Current()
	if err := overrides.Stage(first.Identifier, 7); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	// Just before the end time the round must not resolve.
	*now = first.EndTime.Add(-time.Millisecond)
	if err := track.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(store.settled) != 0 {
		t.Fatal("staged override resolved the round early")
	}

	// Past the end time it resolves to exactly the staged digit.
	*now = first.EndTime
	if err := track.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(store.settled) != 1 {
		t.Fatal("round did not resolve at natural close")
	}
	if got := store.settled[0]; got.digit != 7 || !got.manual {
		t.Errorf("settled with (digit=%d, manual=%v), want (7, true)", got.digit, got.manual)
	}

	// Consumed after settlement.
	if _, ok := overrides.Peek(first.Identifier); ok {
		t.Error("override still staged after settlement")
	}
}

func TestSettlementRetriedWithSameOverride(t *testing.T) {
	store := newFakeStore()
	overrides := scheduler.NewOverrideBook()
	track, now := testTrack(t, store, overrides)

	first := track.Current()
	if err := overrides.Stage(first.Identifier, 3); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	store.settleErr = errors.New("storage unavailable")
	*now = first.EndTime
	for i := 0; i < 3; i++ {
		if err := track.Tick(); err == nil {
			t.Fatal("Tick succeeded while settlement is failing")
		}
	}

	// The round stayed in Closing and the override was not consumed.
	if track.Current().ID != first.ID {
		t.Fatal("track moved on past an unsettled round")
	}
	if _, ok := overrides.Peek(first.Identifier); !ok {
		t.Fatal("override lost during settlement retries")
	}

	store.settleErr = nil
	if err := track.Tick(); err != nil {
		t.Fatalf("Tick after recovery: %v", err)
	}
	if len(store.settled) != 1 || store.settled[0].digit != 3 {
		t.Fatalf("settled = %v, want one settlement with digit 3", store.settled)
	}
	if store.settleTrys != 4 {
		t.Errorf("settle attempts = %d, want 4", store.settleTrys)
	}
}

func TestCancelledRoundSkipsOutcomeSelection(t *testing.T) {
	store := newFakeStore()
	overrides := scheduler.NewOverrideBook()
	track, now := testTrack(t, store, overrides)

	first := track.Current()
	store.cancelled[first.ID] = true
	overrides.Stage(first.Identifier, 9)

	*now = first.EndTime
	if err := track.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(store.settled) != 0 {
		t.Error("cancelled round was settled")
	}
	if track.Current().ID == first.ID {
		t.Error("no new round opened after cancelled close")
	}
	if _, ok := overrides.Peek(first.Identifier); ok {
		t.Error("override for cancelled round not discarded")
	}
}

func TestStageValidation(t *testing.T) {
	overrides := scheduler.NewOverrideBook()

	valid := period.Encode(time.Now(), 1)
	if err := overrides.Stage(valid, 10); !errors.Is(err, scheduler.ErrInvalidOverride) {
		t.Errorf("Stage digit 10 error = %v, want ErrInvalidOverride", err)
	}
	if err := overrides.Stage("not-an-identifier", 5); !errors.Is(err, scheduler.ErrInvalidOverride) {
		t.Errorf("Stage bad identifier error = %v, want ErrInvalidOverride", err)
	}
	if err := overrides.Stage(valid, 0); err != nil {
		t.Errorf("Stage valid override error = %v", err)
	}
}

func TestStageRejectsEndedRounds(t *testing.T) {
	overrides := scheduler.NewOverrideBook()
	now := time.Date(2024, 3, 15, 10, 0, 30, 0, time.Local)
	overrides.SetNowFunc(func() time.Time { return now })

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)

	// Sequence 601 on the one-minute track is the 10:00-10:01 window.
	current := period.EncodeAt(day, 1, 601)
	if err := overrides.Stage(current, 4); err != nil {
		t.Errorf("Stage current round error = %v", err)
	}

	future := period.EncodeAt(day, 1, 700)
	if err := overrides.Stage(future, 4); err != nil {
		t.Errorf("Stage future round error = %v", err)
	}

	past := period.EncodeAt(day, 1, 600) // ended at 10:00:00
	if err := overrides.Stage(past, 4); !errors.Is(err, scheduler.ErrStaleOverride) {
		t.Errorf("Stage past round error = %v, want ErrStaleOverride", err)
	}

	yesterday := period.EncodeAt(day.AddDate(0, 0, -1), 1, 1440)
	if err := overrides.Stage(yesterday, 4); !errors.Is(err, scheduler.ErrStaleOverride) {
		t.Errorf("Stage yesterday's round error = %v, want ErrStaleOverride", err)
	}

	// A round ending exactly now is already closing; too late to stage.
	now = time.Date(2024, 3, 15, 10, 1, 0, 0, time.Local)
	if err := overrides.Stage(current, 4); !errors.Is(err, scheduler.ErrStaleOverride) {
		t.Errorf("Stage at window end error = %v, want ErrStaleOverride", err)
	}

	// Rejected identifiers never enter the book.
	staged := overrides.Staged()
	if _, ok := staged[past]; ok {
		t.Error("stale override found in the book")
	}
	if len(staged) != 2 {
		t.Errorf("staged overrides = %v, want the current and future rounds only", staged)
	}
}
