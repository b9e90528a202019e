package models

// TokenMetadata is one entry of the token directory snapshot.
type TokenMetadata struct {
	Mint    string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	LogoURI string `json:"logoURI,omitempty"`
}

// TokenHolding is one scanned wallet position. Produced wholesale per scan
// cycle and immutable afterwards; Value is always recomputed as
// Balance * Price, never read back from a cache.
type TokenHolding struct {
	Mint     string  `json:"mint"`
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	LogoURI  string  `json:"logoURI,omitempty"`
	Balance  float64 `json:"balance"` // ui amount
	Decimals uint8   `json:"decimals"`
	Price    float64 `json:"price"` // USD
	Value    float64 `json:"value"` // USD

	// Reserved analytics fields, always zero for now.
	PriceChange24h float64 `json:"priceChange24h"`
	Volume24h      float64 `json:"volume24h"`
}
