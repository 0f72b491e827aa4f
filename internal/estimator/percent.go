package estimator

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// Arithmetic selects how the per-mille completion is computed.
type Arithmetic int

const (
	// WideArithmetic multiplies in a 128-bit intermediate; exact for every uint64 total.
	WideArithmetic Arithmetic = iota
	// ShiftedArithmetic scales both operands down so every intermediate fits 32 bits.
	ShiftedArithmetic
)

// String returns the flag name of the arithmetic mode.
func (a Arithmetic) String() string {
	switch a {
	case WideArithmetic:
		return "wide"
	case ShiftedArithmetic:
		return "shifted"
	default:
		return "unknown"
	}
}

// ParseArithmetic parses "wide" or "shifted".
func ParseArithmetic(s string) (Arithmetic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wide", "exact":
		return WideArithmetic, nil
	case "shifted", "narrow":
		return ShiftedArithmetic, nil
	default:
		return WideArithmetic, fmt.Errorf("invalid arithmetic: %q (valid: wide, shifted)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg
func (a *Arithmetic) UnmarshalText(text []byte) error {
	parsed, err := ParseArithmetic(string(text))
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

// Exported constants.
const (
	// PermilleScale is 100% expressed in tenths of a percent.
	PermilleScale = 1000
)

// unexported constants.
const (
	narrowShift = 10
	wideShift   = 16
	// Largest scaled operand whose product with PermilleScale still fits a uint32.
	maxScaledUnits = math.MaxUint32 / PermilleScale
)

// PercentDonePermille returns the completed fraction of total in tenths of a percent.
// remaining > total yields 0; an empty operation (total 0, remaining 0) is complete.
func PercentDonePermille(remaining, total WorkUnit) uint32 {
	if remaining > total {
		return 0
	}

	if total == 0 {
		return PermilleScale
	}

	// hi < total always holds here since remaining <= total, so Div64 cannot panic.
	hi, lo := bits.Mul64(remaining, PermilleScale)
	left, _ := bits.Div64(hi, lo, total)

	return PermilleScale - uint32(left)
}

// PercentDonePermilleShifted computes the same value with 32-bit intermediates.
// Both operands are shifted right by 10, or by 16 once total no longer fits in
// 32 bits, and the scaled total gets +1 so it can never be zero. Totals past
// 2^38 units shift further until the scaled remainder times 1000 fits again.
// The result is coarser than PercentDonePermille and can stay a few per-mille
// above zero when nothing has been done yet.
func PercentDonePermilleShifted(remaining, total WorkUnit) uint32 {
	if remaining > total {
		return 0
	}

	shift := uint(narrowShift)
	if total > math.MaxUint32 {
		shift = wideShift
	}

	for total>>shift > maxScaledUnits {
		shift++
	}

	left := uint32(remaining >> shift)
	scaledTotal := 1 + uint32(total>>shift)
	done := PermilleScale - left*PermilleScale/scaledTotal

	return min(done, PermilleScale)
}

func percentDone(remaining, total WorkUnit, arithmetic Arithmetic) uint32 {
	if arithmetic == ShiftedArithmetic {
		return PercentDonePermilleShifted(remaining, total)
	}

	return PercentDonePermille(remaining, total)
}
