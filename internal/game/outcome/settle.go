package outcome

// BookEntry is one bet of a round's book as settlement sees it.
type BookEntry struct {
	Selection string
	Amount    float64
	Settled   bool
}

// BetResult is the resolution of one book entry. Payout is the net credited
// amount after the fee; losing entries carry zero payout and zero fee.
type BetResult struct {
	Won    bool
	Payout float64
	Fee    float64
}

// BookTotals aggregates one settlement pass. HouseProfit is TotalStaked
// minus the net TotalPayout, so sum of credited payouts plus HouseProfit
// always equals TotalStaked.
type BookTotals struct {
	TotalStaked float64
	TotalPayout float64
	HouseProfit float64
}

// SettleBook resolves every unsettled entry of a round's book against the
// drawn digit. Entries already marked settled are skipped and contribute
// nothing, so running a pass over an already-settled book credits nothing.
// Results are index-aligned with entries.
func SettleBook(entries []BookEntry, digit int, feePercent float64) ([]BetResult, BookTotals, error) {
	results := make([]BetResult, len(entries))
	var totals BookTotals

	for i := range entries {
		if entries[i].Settled {
			continue
		}

		sel, err := ParseSelection(entries[i].Selection)
		if err != nil {
			return nil, BookTotals{}, err
		}

		won, _, fee, net := Payout(sel, digit, entries[i].Amount, feePercent)
		results[i] = BetResult{Won: won, Fee: fee}
		if won {
			results[i].Payout = net
		}

		totals.TotalStaked += entries[i].Amount
		totals.TotalPayout += results[i].Payout
	}

	totals.HouseProfit = totals.TotalStaked - totals.TotalPayout
	return results, totals, nil
}
