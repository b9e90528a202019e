package recycler

import "math"

// UIToMinor converts a ui-decimal amount into integer minor units. The
// conversion always floors; a fraction below one minor unit becomes 0 and is
// rejected later during validation, never silently rounded up.
func UIToMinor(amount float64, decimals uint8) uint64 {
	if amount <= 0 {
		return 0
	}
	return uint64(math.Floor(amount * math.Pow10(int(decimals))))
}

// FeeAmount computes the protocol fee in minor units from a quoted out
// amount. Integer basis-point math, flooring: the fee is never over-collected
// due to rounding.
func FeeAmount(outAmount uint64, feeBps int) uint64 {
	if feeBps <= 0 {
		return 0
	}
	return outAmount * uint64(feeBps) / 10000
}
