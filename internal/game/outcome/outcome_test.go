package outcome_test

import (
	"errors"
	"math"
	"testing"

	"GoodGamingApi/internal/game/outcome"
)

func TestClassify(t *testing.T) {
	wantColor := map[int]outcome.Color{
		0: outcome.Violet, 1: outcome.Green, 2: outcome.Red, 3: outcome.Green,
		4: outcome.Red, 5: outcome.Violet, 6: outcome.Red, 7: outcome.Green,
		8: outcome.Red, 9: outcome.Green,
	}

	for n := 0; n <= 9; n++ {
		color, size := outcome.Classify(n)
		if color != wantColor[n] {
			t.Errorf("Classify(%d) color = %s, want %s", n, color, wantColor[n])
		}
		wantSize := outcome.Small
		if n >= 5 {
			wantSize = outcome.Big
		}
		if size != wantSize {
			t.Errorf("Classify(%d) size = %s, want %s", n, size, wantSize)
		}
	}
}

func TestParseSelection(t *testing.T) {
	for _, s := range []string{"green", "violet", "red", "small", "big", "0", "5", "9"} {
		sel, err := outcome.ParseSelection(s)
		if err != nil {
			t.Errorf("ParseSelection(%q) error: %v", s, err)
			continue
		}
		if sel.String() != s {
			t.Errorf("ParseSelection(%q).String() = %q", s, sel.String())
		}
	}

	for _, s := range []string{"", "blue", "10", "-1", "05", "Green"} {
		if _, err := outcome.ParseSelection(s); !errors.Is(err, outcome.ErrInvalidSelection) {
			t.Errorf("ParseSelection(%q) error = %v, want ErrInvalidSelection", s, err)
		}
	}
}

func TestMatches(t *testing.T) {
	green, _ := outcome.ParseSelection("green")
	big, _ := outcome.ParseSelection("big")
	seven, _ := outcome.ParseSelection("7")

	tests := []struct {
		sel  outcome.Selection
		n    int
		want bool
	}{
		{green, 3, true},
		{green, 0, false}, // violet, not green
		{green, 2, false},
		{big, 5, true},
		{big, 4, false},
		{seven, 7, true},
		{seven, 8, false},
	}

	for _, tt := range tests {
		if got := tt.sel.Matches(tt.n); got != tt.want {
			t.Errorf("%s.Matches(%d) = %v, want %v", tt.sel, tt.n, got, tt.want)
		}
	}
}

func TestMultipliers(t *testing.T) {
	tests := []struct {
		sel  string
		want float64
	}{
		{"green", 2}, {"red", 2}, {"violet", 4.5},
		{"small", 2}, {"big", 2},
		{"4", 9},
	}

	for _, tt := range tests {
		sel, _ := outcome.ParseSelection(tt.sel)
		if got := sel.Multiplier(); got != tt.want {
			t.Errorf("Multiplier(%s) = %v, want %v", tt.sel, got, tt.want)
		}
	}
}

func TestPayoutFeeOnWinsOnly(t *testing.T) {
	green, _ := outcome.ParseSelection("green")

	// Winning color bet: stake 10 at 2x with 3% fee.
	won, gross, fee, net := outcome.Payout(green, 1, 10, 3)
	if !won || gross != 20 || math.Abs(fee-0.6) > 1e-9 || math.Abs(net-19.4) > 1e-9 {
		t.Errorf("winning payout = (%v, %v, %v, %v), want (true, 20, 0.6, 19.4)", won, gross, fee, net)
	}

	// Losing bet pays nothing and is charged nothing.
	won, gross, fee, net = outcome.Payout(green, 2, 10, 3)
	if won || gross != 0 || fee != 0 || net != 0 {
		t.Errorf("losing payout = (%v, %v, %v, %v), want all zero", won, gross, fee, net)
	}
}
