package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	// CollateralDecimals is the scale of CSPR amounts (motes).
	CollateralDecimals uint = 9
	// StablecoinDecimals is the scale of cUSD amounts.
	StablecoinDecimals uint = 18
	// PriceDecimals is the scale of oracle prices.
	PriceDecimals uint = 9
)

// ErrInvalidFormat is returned when a decimal string cannot be parsed.
var ErrInvalidFormat = errors.New("invalid decimal format")

// Pow10 returns 10^n as a new big.Int.
func Pow10(n uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// ToMinorUnits parses a human decimal string into integer minor units at the
// given scale. Extra fractional digits are truncated.
func ToMinorUnits(s string, scale uint) (*big.Int, error) {
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %q has more than one decimal point", ErrInvalidFormat, s)
	}
	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("%w: %q has no digits", ErrInvalidFormat, s)
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if whole == "" {
		whole = "0"
	}
	if uint(len(frac)) > scale {
		frac = frac[:scale]
	} else {
		frac += strings.Repeat("0", int(scale)-len(frac))
	}

	v, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return v, nil
}

// ToDecimalString renders minor units as a decimal string without trailing
// fractional zeros.
func ToDecimalString(v *big.Int, scale uint) string {
	if v == nil {
		return "0"
	}
	neg := v.Sign() < 0
	abs := new(big.Int).Abs(v)
	whole, frac := new(big.Int).QuoRem(abs, Pow10(scale), new(big.Int))

	out := whole.String()
	if frac.Sign() != 0 {
		fs := frac.String()
		fs = strings.Repeat("0", int(scale)-len(fs)) + fs
		out += "." + strings.TrimRight(fs, "0")
	}
	if neg {
		out = "-" + out
	}
	return out
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
