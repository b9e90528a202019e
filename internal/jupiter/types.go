package jupiter

type QuoteRequest struct {
	InputMint  string
	OutputMint string
	Amount     string // raw integer minor units as string (uint64)

	SlippageBps int
	SwapMode    string // ExactIn | ExactOut

	OnlyDirectRoutes *bool
}

type QuoteResponse struct {
	InputMint            string          `json:"inputMint"`
	OutputMint           string          `json:"outputMint"`
	InAmount             string          `json:"inAmount"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          uint16          `json:"slippageBps"`
	PlatformFee          *PlatformFee    `json:"platformFee,omitempty"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            []RoutePlanStep `json:"routePlan"`

	ContextSlot uint64  `json:"contextSlot,omitempty"`
	TimeTaken   float64 `json:"timeTaken,omitempty"`
}

type PlatformFee struct {
	Amount string `json:"amount,omitempty"`
	FeeBps uint16 `json:"feeBps,omitempty"`
}

type RoutePlanStep struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  *uint8   `json:"percent,omitempty"`
	Bps      uint16   `json:"bps"`
}

type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label,omitempty"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
}

// SwapRequest builds one unsigned swap transaction from a quote. FeeAmount
// and FeeAccount route the protocol fee to the operator account.
type SwapRequest struct {
	QuoteResponse    *QuoteResponse `json:"quoteResponse"`
	UserPublicKey    string         `json:"userPublicKey"`
	WrapAndUnwrapSol bool           `json:"wrapAndUnwrapSol"`
	FeeAccount       string         `json:"feeAccount,omitempty"`
	FeeAmount        string         `json:"feeAmount,omitempty"`
}

type SwapResponse struct {
	SwapTransaction      string `json:"swapTransaction"` // base64
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight,omitempty"`
}
