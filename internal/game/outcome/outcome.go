// Package outcome maps a winning digit to its color and size and prices
// every kind of bet selection. The mapping is fixed: configuration may bias
// which digit wins, never how a digit is classified or paid.
package outcome

import (
	"errors"
	"strconv"
)

type Color string

const (
	Green  Color = "green"
	Violet Color = "violet"
	Red    Color = "red"
)

type Size string

const (
	Small Size = "small"
	Big   Size = "big"
)

// Payout multipliers by selection kind. Green and red each cover four
// digits, violet covers two, hence the higher violet price.
const (
	ColorMultiplier       = 2.0
	VioletColorMultiplier = 4.5
	SizeMultiplier        = 2.0
	NumberMultiplier      = 9.0
)

var ErrInvalidSelection = errors.New("invalid bet selection")

// Classify returns the color and size of a winning digit.
// Digits 1,3,7,9 are green; 0 and 5 are violet; 2,4,6,8 are red.
// Digits 0-4 are small, 5-9 are big.
func Classify(n int) (Color, Size) {
	size := Small
	if n >= 5 {
		size = Big
	}

	switch n {
	case 1, 3, 7, 9:
		return Green, size
	case 0, 5:
		return Violet, size
	default:
		return Red, size
	}
}

type SelectionKind int

const (
	KindColor SelectionKind = iota
	KindSize
	KindNumber
)

// Selection is a parsed bet selection: a color, a size, or an exact digit.
type Selection struct {
	Kind   SelectionKind
	Color  Color
	Size   Size
	Number int
}

// ParseSelection accepts "green", "violet", "red", "small", "big" or a
// single digit "0".."9".
func ParseSelection(s string) (Selection, error) {
	switch s {
	case "green":
		return Selection{Kind: KindColor, Color: Green}, nil
	case "violet":
		return Selection{Kind: KindColor, Color: Violet}, nil
	case "red":
		return Selection{Kind: KindColor, Color: Red}, nil
	case "small":
		return Selection{Kind: KindSize, Size: Small}, nil
	case "big":
		return Selection{Kind: KindSize, Size: Big}, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 9 || len(s) != 1 {
		return Selection{}, ErrInvalidSelection
	}
	return Selection{Kind: KindNumber, Number: n}, nil
}

func (s Selection) String() string {
	switch s.Kind {
	case KindColor:
		return string(s.Color)
	case KindSize:
		return string(s.Size)
	default:
		return strconv.Itoa(s.Number)
	}
}

// Matches reports whether the selection wins when digit n is drawn.
func (s Selection) Matches(n int) bool {
	color, size := Classify(n)
	switch s.Kind {
	case KindColor:
		return s.Color == color
	case KindSize:
		return s.Size == size
	default:
		return s.Number == n
	}
}

// Multiplier returns the gross payout multiplier for the selection.
func (s Selection) Multiplier() float64 {
	switch s.Kind {
	case KindColor:
		if s.Color == Violet {
			return VioletColorMultiplier
		}
		return ColorMultiplier
	case KindSize:
		return SizeMultiplier
	default:
		return NumberMultiplier
	}
}

// Payout prices a single bet against a drawn digit. The betting fee is
// charged on winning payouts only; losing bets pay nothing and are never
// charged.
func Payout(sel Selection, n int, stake, feePercent float64) (won bool, gross, fee, net float64) {
	if !sel.Matches(n) {
		return false, 0, 0, 0
	}

	gross = stake * sel.Multiplier()
	fee = gross * feePercent / 100
	return true, gross, fee, gross - fee
}
