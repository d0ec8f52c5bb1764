package outcome_test

import (
	"math"
	"testing"

	"GoodGamingApi/internal/game/outcome"
)

const epsilon = 1e-9

func TestSettleBookResolvesEveryEntry(t *testing.T) {
	entries := []outcome.BookEntry{
		{Selection: "7", Amount: 10},
		{Selection: "green", Amount: 20},
		{Selection: "big", Amount: 5},
		{Selection: "red", Amount: 50},
	}

	results, totals, err := outcome.SettleBook(entries, 7, 2)
	if err != nil {
		t.Fatalf("SettleBook: %v", err)
	}

	// Digit 7 is green and big: number, color and size bets win, red loses.
	want := []outcome.BetResult{
		{Won: true, Payout: 88.2, Fee: 1.8}, // 10 * 9 = 90 gross
		{Won: true, Payout: 39.2, Fee: 0.8}, // 20 * 2 = 40 gross
		{Won: true, Payout: 9.8, Fee: 0.2},  // 5 * 2 = 10 gross
		{Won: false, Payout: 0, Fee: 0},
	}
	for i := range want {
		if results[i].Won != want[i].Won ||
			math.Abs(results[i].Payout-want[i].Payout) > epsilon ||
			math.Abs(results[i].Fee-want[i].Fee) > epsilon {
			t.Errorf("results[%d] = %+v, want %+v", i, results[i], want[i])
		}
	}

	if math.Abs(totals.TotalStaked-85) > epsilon {
		t.Errorf("TotalStaked = %v, want 85", totals.TotalStaked)
	}
	if math.Abs(totals.TotalPayout-137.2) > epsilon {
		t.Errorf("TotalPayout = %v, want 137.2", totals.TotalPayout)
	}
}

func TestSettleBookConservation(t *testing.T) {
	books := []struct {
		name  string
		book  []outcome.BookEntry
		digit int
		fee   float64
	}{
		{
			name: "mixed winners and losers",
			book: []outcome.BookEntry{
				{Selection: "green", Amount: 100},
				{Selection: "violet", Amount: 30},
				{Selection: "small", Amount: 12.5},
				{Selection: "0", Amount: 7},
				{Selection: "9", Amount: 42},
			},
			digit: 0, fee: 3,
		},
		{
			name: "all losers",
			book: []outcome.BookEntry{
				{Selection: "red", Amount: 80},
				{Selection: "big", Amount: 15},
			},
			digit: 1, fee: 2,
		},
		{
			name:  "empty book",
			book:  nil,
			digit: 5, fee: 2,
		},
		{
			name: "zero fee",
			book: []outcome.BookEntry{
				{Selection: "5", Amount: 1},
				{Selection: "violet", Amount: 200},
			},
			digit: 5, fee: 0,
		},
	}

	for _, tc := range books {
		t.Run(tc.name, func(t *testing.T) {
			results, totals, err := outcome.SettleBook(tc.book, tc.digit, tc.fee)
			if err != nil {
				t.Fatalf("SettleBook: %v", err)
			}

			var credited float64
			for i := range results {
				credited += results[i].Payout
				if !results[i].Won && (results[i].Payout != 0 || results[i].Fee != 0) {
					t.Errorf("losing entry %d credited payout %v fee %v",
						i, results[i].Payout, results[i].Fee)
				}
			}

			// Every coin staked is either paid back out or kept as profit.
			if diff := credited + totals.HouseProfit - totals.TotalStaked; math.Abs(diff) > epsilon {
				t.Errorf("payouts (%v) + house profit (%v) != staked (%v), off by %v",
					credited, totals.HouseProfit, totals.TotalStaked, diff)
			}
		})
	}
}

func TestSettleBookSecondPassCreditsNothing(t *testing.T) {
	entries := []outcome.BookEntry{
		{Selection: "green", Amount: 100},
		{Selection: "3", Amount: 25},
		{Selection: "red", Amount: 60},
	}

	first, totals, err := outcome.SettleBook(entries, 3, 2)
	if err != nil {
		t.Fatalf("SettleBook: %v", err)
	}
	if totals.TotalStaked == 0 {
		t.Fatal("first pass settled nothing")
	}

	for i := range entries {
		entries[i].Settled = true
	}

	second, totals, err := outcome.SettleBook(entries, 3, 2)
	if err != nil {
		t.Fatalf("SettleBook second pass: %v", err)
	}

	if totals != (outcome.BookTotals{}) {
		t.Errorf("second pass totals = %+v, want zero", totals)
	}
	for i := range second {
		if second[i].Won || second[i].Payout != 0 || second[i].Fee != 0 {
			t.Errorf("second pass credited entry %d: %+v (first pass: %+v)",
				i, second[i], first[i])
		}
	}
}

func TestSettleBookRejectsUnreadableSelection(t *testing.T) {
	entries := []outcome.BookEntry{
		{Selection: "green", Amount: 10},
		{Selection: "banana", Amount: 10},
	}

	if _, _, err := outcome.SettleBook(entries, 1, 2); err == nil {
		t.Fatal("SettleBook accepted an unreadable selection")
	}
}
