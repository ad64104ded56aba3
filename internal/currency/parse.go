package currency

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("amount must be positive")

	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// ParseAmount converts a decimal amount string to integer minor units. Both
// dot and comma decimal separators are accepted; the third decimal place
// rounds half away from zero. Zero and negative amounts are rejected, since
// every stored row carries a non-negative magnitude with direction expressed
// by its kind.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.Sign() < 0 {
		return 0, ErrNegativeAmount
	}

	cents := d.Shift(2).Round(0)
	if cents.Cmp(maxCents) > 0 {
		return 0, ErrInvalidAmount
	}
	v := cents.IntPart()
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}
