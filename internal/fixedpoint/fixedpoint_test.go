package fixedpoint

import (
	"errors"
	"math/big"
	"testing"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad big int %q", s)
	}
	return v
}

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		in    string
		scale uint
		want  string
	}{
		{"1", 9, "1000000000"},
		{"1.5", 9, "1500000000"},
		{".5", 9, "500000000"},
		{"5.", 9, "5000000000"},
		{"0.0234", 9, "23400000"},
		{"250000", 9, "250000000000000"},
		{"2500", 18, "2500000000000000000000"},
		{"1.1234567891", 9, "1123456789"},
		{"000.000000001", 9, "1"},
	}
	for _, tc := range cases {
		got, err := ToMinorUnits(tc.in, tc.scale)
		if err != nil {
			t.Fatalf("ToMinorUnits(%q): %v", tc.in, err)
		}
		if got.Cmp(mustBig(t, tc.want)) != 0 {
			t.Fatalf("ToMinorUnits(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestToMinorUnitsInvalid(t *testing.T) {
	for _, in := range []string{"", ".", "1.2.3", "abc", "1,5", "-1", "1e9", " 1"} {
		if _, err := ToMinorUnits(in, 9); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("ToMinorUnits(%q) err = %v, want ErrInvalidFormat", in, err)
		}
	}
}

func TestToDecimalString(t *testing.T) {
	cases := []struct {
		in    string
		scale uint
		want  string
	}{
		{"0", 9, "0"},
		{"1000000000", 9, "1"},
		{"1500000000", 9, "1.5"},
		{"1", 9, "0.000000001"},
		{"23400000", 9, "0.0234"},
		{"2500000000000000000000", 18, "2500"},
	}
	for _, tc := range cases {
		if got := ToDecimalString(mustBig(t, tc.in), tc.scale); got != tc.want {
			t.Fatalf("ToDecimalString(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	values := []string{"0", "1", "9", "10", "999999999", "1000000001", "123456789012345678901234567890"}
	for _, scale := range []uint{CollateralDecimals, StablecoinDecimals} {
		for _, s := range values {
			v := mustBig(t, s)
			back, err := ToMinorUnits(ToDecimalString(v, scale), scale)
			if err != nil {
				t.Fatalf("round trip %s@%d: %v", s, scale, err)
			}
			if back.Cmp(v) != 0 {
				t.Fatalf("round trip %s@%d = %s", s, scale, back)
			}
		}
	}
}

func TestFormatters(t *testing.T) {
	if got := FormatStablecoin(mustBig(t, "1234567890123456789")); got != "1.234567" {
		t.Fatalf("FormatStablecoin = %q", got)
	}
	if got := FormatStablecoin(mustBig(t, "1000000000000000001")); got != "1" {
		t.Fatalf("FormatStablecoin = %q", got)
	}
	if got := FormatPrice(big.NewInt(23400000)); got != "$0.0234" {
		t.Fatalf("FormatPrice = %q", got)
	}
	if got := FormatCollateral(big.NewInt(1)); got != "0.000000001" {
		t.Fatalf("FormatCollateral = %q", got)
	}
	if got := FormatBps(23400); got != "234.00%" {
		t.Fatalf("FormatBps = %q", got)
	}
	if got := FormatRatio(nil); got != "∞" {
		t.Fatalf("FormatRatio(nil) = %q", got)
	}
	if got := FormatRatio(big.NewInt(15050)); got != "150.50%" {
		t.Fatalf("FormatRatio = %q", got)
	}
}
