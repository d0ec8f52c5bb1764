// Package wagering derives withdrawal eligibility from a user's lifetime
// deposit and bet totals, and prices the referral commission cascade for
// qualifying deposits. It reads ledger totals but never mutates round or
// balance state.
package wagering

import (
	"time"

	"github.com/shopspring/decimal"
)

// CoinsPerUSD is the fixed platform conversion rate used for commission
// attribution.
const CoinsPerUSD = 100

// Config is the slice of the policy configuration the gate reads.
type Config struct {
	BettingRequirementPercent float64
	WithdrawalCooldownHours   int
	MinimumWithdrawalVIPLevel int
}

// Totals is the ledger subset of one user the gate needs.
type Totals struct {
	LifetimeDeposits float64
	LifetimeBets     float64
	VIPLevel         int
	LastWithdrawalAt *time.Time
}

// Eligibility is the gate's verdict. Reason is set when Eligible is false.
type Eligibility struct {
	Eligible          bool    `json:"eligible"`
	RequiredBetAmount float64 `json:"required_bet_amount"`
	CurrentBetAmount  float64 `json:"current_bet_amount"`
	Reason            string  `json:"reason,omitempty"`
}

// CanWithdraw checks the wagering requirement, the VIP floor and the
// cooldown since the last withdrawal request.
func CanWithdraw(totals Totals, cfg Config, now time.Time) Eligibility {
	e := Eligibility{
		RequiredBetAmount: totals.LifetimeDeposits * cfg.BettingRequirementPercent / 100,
		CurrentBetAmount:  totals.LifetimeBets,
	}

	if totals.LifetimeBets < e.RequiredBetAmount {
		e.Reason = "betting requirement not met"
		return e
	}
	if totals.VIPLevel < cfg.MinimumWithdrawalVIPLevel {
		e.Reason = "vip level too low for withdrawal"
		return e
	}
	if totals.LastWithdrawalAt != nil {
		cooldown := time.Duration(cfg.WithdrawalCooldownHours) * time.Hour
		if now.Sub(*totals.LastWithdrawalAt) < cooldown {
			e.Reason = "withdrawal cooldown active"
			return e
		}
	}

	e.Eligible = true
	return e
}

// CommissionRates configures the referral cascade. Hop 1 is the depositor's
// direct referrer, hop 2 the referrer's referrer; hops beyond that earn the
// recipient's flat VIP-tier rate. Traversal is capped by MaxHops, two by
// default, so a referral cycle can never recurse.
type CommissionRates struct {
	Lv1Percent float64
	Lv2Percent float64
	// VIPPercent maps a recipient VIP level to its flat rate for hops
	// beyond the second.
	VIPPercent map[int]float64
	MaxHops    int
}

// Rate returns the commission percentage for the given hop and recipient VIP
// level, or 0 when the hop is beyond the cap.
func (r CommissionRates) Rate(hop, recipientVIPLevel int) float64 {
	maxHops := r.MaxHops
	if maxHops == 0 {
		maxHops = 2
	}
	if hop > maxHops {
		return 0
	}

	switch hop {
	case 1:
		return r.Lv1Percent
	case 2:
		return r.Lv2Percent
	default:
		return r.VIPPercent[recipientVIPLevel]
	}
}

// Coins converts a USD amount to platform coins at the fixed rate.
func Coins(usd float64) float64 {
	f, _ := decimal.NewFromFloat(usd).
		Mul(decimal.NewFromInt(CoinsPerUSD)).
		Round(4).Float64()
	return f
}

// CommissionCoins converts a deposit's USD value to coins at the fixed rate
// and applies the hop percentage. Decimal arithmetic keeps repeated
// percentage cuts from drifting.
func CommissionCoins(depositUSD float64, percent float64) float64 {
	coins := decimal.NewFromFloat(depositUSD).
		Mul(decimal.NewFromInt(CoinsPerUSD)).
		Mul(decimal.NewFromFloat(percent)).
		Div(decimal.NewFromInt(100))
	f, _ := coins.Round(4).Float64()
	return f
}
