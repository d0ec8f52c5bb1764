package period_test

import (
	"errors"
	"testing"
	"time"

	"GoodGamingApi/internal/game/period"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		at       time.Time
		duration int
		want     string
	}{
		{
			name:     "first round of the day",
			at:       time.Date(2024, 3, 15, 0, 0, 30, 0, time.Local),
			duration: 1,
			want:     "20240315010001",
		},
		{
			name:     "one minute track mid day",
			at:       time.Date(2024, 3, 15, 12, 34, 0, 0, time.Local),
			duration: 1,
			want:     "20240315010755",
		},
		{
			name:     "three minute track",
			at:       time.Date(2024, 3, 15, 0, 5, 0, 0, time.Local),
			duration: 3,
			want:     "20240315030002",
		},
		{
			name:     "ten minute track last round of day",
			at:       time.Date(2024, 3, 15, 23, 59, 59, 0, time.Local),
			duration: 10,
			want:     "20240315100144",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := period.Encode(tt.at, tt.duration); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSequenceResetsAtMidnight(t *testing.T) {
	lastOfDay := time.Date(2024, 3, 15, 23, 59, 0, 0, time.Local)
	firstOfNext := time.Date(2024, 3, 16, 0, 0, 0, 0, time.Local)

	if seq := period.Sequence(lastOfDay, 1); seq != 1440 {
		t.Errorf("last sequence of day = %d, want 1440", seq)
	}
	if seq := period.Sequence(firstOfNext, 1); seq != 1 {
		t.Errorf("first sequence after midnight = %d, want 1", seq)
	}
}

func TestSequenceStrictlyIncreasing(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)
	for _, duration := range []int{1, 3, 5, 10} {
		prev := 0
		for m := 0; m < 24*60; m += duration {
			seq := period.Sequence(day.Add(time.Duration(m)*time.Minute), duration)
			if seq != prev+1 {
				t.Fatalf("duration %d at minute %d: sequence %d, want %d", duration, m, seq, prev+1)
			}
			prev = seq
		}
	}
}

func TestRoundTrip(t *testing.T) {
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.Local)
	for _, duration := range []int{1, 3, 5, 10} {
		maxSeq := 24 * 60 / duration
		for _, seq := range []int{1, 2, maxSeq / 2, maxSeq} {
			id := period.EncodeAt(date, duration, seq)
			gotDate, gotDuration, gotSeq, err := period.Decode(id)
			if err != nil {
				t.Fatalf("Decode(%q) error: %v", id, err)
			}
			if !gotDate.Equal(date) || gotDuration != duration || gotSeq != seq {
				t.Errorf("Decode(%q) = (%v, %d, %d), want (%v, %d, %d)",
					id, gotDate, gotDuration, gotSeq, date, duration, seq)
			}
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	bad := []string{
		"",
		"2024031501001",   // too short
		"202403150100011", // too long
		"2024031501000x",  // non-digit
		"20240315000001",  // zero duration
		"20240315010000",  // zero sequence
		"20241399010001",  // impossible date
		"id-not-numeric!!",
	}

	for _, id := range bad {
		if _, _, _, err := period.Decode(id); !errors.Is(err, period.ErrMalformedIdentifier) {
			t.Errorf("Decode(%q) error = %v, want ErrMalformedIdentifier", id, err)
		}
	}
}

func TestWindowContainsInstant(t *testing.T) {
	at := time.Date(2024, 3, 15, 14, 7, 42, 0, time.Local)
	start, end := period.Window(at, 5)

	wantStart := time.Date(2024, 3, 15, 14, 5, 0, 0, time.Local)
	wantEnd := time.Date(2024, 3, 15, 14, 10, 0, 0, time.Local)
	if !start.Equal(wantStart) || !end.Equal(wantEnd) {
		t.Errorf("Window() = (%v, %v), want (%v, %v)", start, end, wantStart, wantEnd)
	}

	// Identifier of the window start matches the identifier of any instant inside.
	if period.Encode(start, 5) != period.Encode(at, 5) {
		t.Error("window start and contained instant encode to different identifiers")
	}
}
