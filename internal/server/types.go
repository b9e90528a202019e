package server

import "github.com/dustfolio/solana-dust-recycler/internal/models"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// ScanRequest asks for one owner's ranked portfolio
type ScanRequest struct {
	OwnerAddress string `json:"ownerAddress"`
}

// RecycleRequest builds the unsigned swap batch for a cart snapshot
type RecycleRequest struct {
	OwnerAddress string             `json:"ownerAddress"`
	CartItems    []models.SellOrder `json:"cartItems"`
}

// RecycleResponse carries the base64 transaction blobs, same order as the
// cart items in the request
type RecycleResponse struct {
	SwapTransactions []string `json:"swapTransactions"`
}

// DenylistAddRequest puts one mint on the scam denylist
type DenylistAddRequest struct {
	Mint string `json:"mint"`
}

// AIAskRequest represents a natural language query request
type AIAskRequest struct {
	Question string `json:"question"` // Natural language question about checkout history
	Model    string `json:"model"`    // Optional AI model override
}

// AIAskResponse represents the response from an AI query
type AIAskResponse struct {
	SQL    string `json:"sql"`     // Generated SQL query
	Answer string `json:"answer"`  // Natural language answer
	TookMs int64  `json:"took_ms"` // Execution time in milliseconds
}
