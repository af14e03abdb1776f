// Package fixedpoint implements signed fixed-point arithmetic for the
// accounting engine. Amounts are int64 micro-units (1e-6), the native
// precision of USDC and CTF outcome tokens; intermediate products go through
// big.Int so a*b never overflows. No float64 exists in the accounting path.
package fixedpoint

import (
	"fmt"
	"math"
	"math/big"
)

// Scale is the fixed-point denominator: one unit equals 1e6 micro-units.
const Scale = 1_000_000

// CentScale converts micro-units to cents (two-decimal currency contract).
const CentScale = 10_000

// MulDiv computes a*b/c with half-even (banker's) rounding, using big.Int
// for the intermediate product. Division by zero returns 0.
func MulDiv(a, b, c int64) int64 {
	if c == 0 {
		return 0
	}
	num := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	return divRound(num, c)
}

// MulScale computes a*b/Scale: multiplying two micro-unit quantities into a
// micro-unit result (e.g. tokens * price-per-token -> USD).
func MulScale(a, b int64) int64 {
	return MulDiv(a, b, Scale)
}

// divRound divides num by den with half-even rounding.
func divRound(num *big.Int, den int64) int64 {
	d := big.NewInt(den)
	q, r := new(big.Int).QuoRem(num, d, new(big.Int))

	// QuoRem truncates toward zero; r carries the sign of num.
	r2 := new(big.Int).Abs(r)
	r2.Lsh(r2, 1) // 2*|r|
	dAbs := new(big.Int).Abs(d)

	switch r2.Cmp(dAbs) {
	case 1: // |r|*2 > |d|: round away from zero
		q.Add(q, big.NewInt(int64(sign(num) * sign(d))))
	case 0: // exact half: round to even
		if q.Bit(0) == 1 {
			q.Add(q, big.NewInt(int64(sign(num)*sign(d))))
		}
	}

	if !q.IsInt64() {
		// Out of range results are clamped; callers treat saturation as an
		// arithmetic anomaly.
		if q.Sign() > 0 {
			return math.MaxInt64
		}
		return math.MinInt64
	}
	return q.Int64()
}

func sign(v *big.Int) int {
	if v.Sign() < 0 {
		return -1
	}
	return 1
}

// ToCents rounds a micro-unit amount to whole cents, half-even.
func ToCents(micro int64) int64 {
	return divRound(big.NewInt(micro), CentScale)
}

// Dollars converts a micro-unit amount to a two-decimal float dollar value.
// The cent rounding happens in integer space so the float carries no extra
// precision to drift on.
func Dollars(micro int64) float64 {
	return float64(ToCents(micro)) / 100
}

// FromFloat converts a float unit amount (e.g. a ClickHouse Float64 column)
// to micro-units. NaN and ±Inf are rejected so they can be clamped with a
// warning at the read boundary instead of propagating.
func FromFloat(v float64) (int64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	scaled := v * Scale
	if scaled >= math.MaxInt64 || scaled <= math.MinInt64 {
		return 0, false
	}
	return int64(math.RoundToEven(scaled)), true
}

// Abs returns |v|, saturating at MaxInt64 for MinInt64.
func Abs(v int64) int64 {
	if v == math.MinInt64 {
		return math.MaxInt64
	}
	if v < 0 {
		return -v
	}
	return v
}

// Format renders a micro-unit amount as a two-decimal dollar string, used in
// warning messages and reports.
func Format(micro int64) string {
	cents := ToCents(micro)
	neg := ""
	if cents < 0 {
		neg = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", neg, cents/100, cents%100)
}
