package fixedpoint

import (
	"fmt"
	"math/big"
	"strings"
)

const stablecoinDisplayDigits = 6

// FormatCollateral renders motes as CSPR at full precision.
func FormatCollateral(v *big.Int) string {
	return ToDecimalString(v, CollateralDecimals)
}

// FormatStablecoin renders cUSD with the fraction truncated to 6 digits.
func FormatStablecoin(v *big.Int) string {
	s := ToDecimalString(v, StablecoinDecimals)
	dot := strings.IndexByte(s, '.')
	if dot < 0 || len(s)-dot-1 <= stablecoinDisplayDigits {
		return s
	}
	s = strings.TrimRight(s[:dot+1+stablecoinDisplayDigits], "0")
	return strings.TrimSuffix(s, ".")
}

// FormatPrice renders a 9-decimal oracle price in dollars.
func FormatPrice(v *big.Int) string {
	return "$" + ToDecimalString(v, PriceDecimals)
}

// FormatBps renders basis points as a percentage with two decimals.
func FormatBps(bps uint64) string {
	return fmt.Sprintf("%.2f%%", float64(bps)/100)
}

// FormatRatio renders a collateral ratio; nil means no debt.
func FormatRatio(bps *big.Int) string {
	if bps == nil {
		return "∞"
	}
	if !bps.IsUint64() {
		return ToDecimalString(bps, 2) + "%"
	}
	return FormatBps(bps.Uint64())
}
