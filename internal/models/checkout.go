package models

import "time"

// SellOrder is the minimal per-item input of a recycle build: which mint to
// sell, how much of it (ui amount), and the mint's decimals for the
// minor-unit conversion.
type SellOrder struct {
	Mint         string  `json:"mint"`
	AmountToSell float64 `json:"amountToSell"`
	Decimals     uint8   `json:"decimals"`
}

// UnsignedSwapTransaction is one router-built, fee-bearing swap transaction.
// The payload is an opaque base64 blob; it references a single quote and is
// consumed exactly once by the broadcast coordinator.
type UnsignedSwapTransaction struct {
	Mint            string `json:"mint"`
	SwapTransaction string `json:"swapTransaction"` // base64
}

// BroadcastResult records the outcome of one submitted transaction. Exactly
// one of Signature or Error is set.
type BroadcastResult struct {
	Mint      string `json:"mint"`
	Success   bool   `json:"success"`
	Signature string `json:"signature,omitempty"`
	Error     string `json:"error,omitempty"`
}

// CheckoutReport aggregates one checkout's per-item outcomes.
type CheckoutReport struct {
	Owner      string            `json:"owner"`
	Results    []BroadcastResult `json:"results"`
	Succeeded  int               `json:"succeeded"`
	Failed     int               `json:"failed"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Tally fills the Succeeded/Failed counters from Results.
func (r *CheckoutReport) Tally() {
	r.Succeeded, r.Failed = 0, 0
	for _, res := range r.Results {
		if res.Success {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
}
