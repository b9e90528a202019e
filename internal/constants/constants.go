package constants

import "time"

// Well-known mints
const (
	// WSOLMint is wrapped SOL, the universal recycling target.
	WSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	// TokenProgramID owns all classic SPL token accounts.
	TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

// Fee schedule defaults (basis points, integer math only)
const (
	DefaultFeeBps      = 500 // 5% protocol fee routed to the operator account
	DefaultSlippageBps = 150
	MaxFeeBps          = 10000
)

// Metadata directory
const (
	TokenDirectoryTTL = 15 * time.Minute
)

// Placeholder metadata for mints absent from the directory
const (
	UnknownTokenName   = "Unknown Token"
	UnknownTokenSymbol = "UNKNOWN"
)

// Redis keys
const (
	RedisKeyRecentCheckouts = "checkouts:recent"
	RedisKeyDenylist        = "denylist:mints"
)

// Redis Pub/Sub channels
const (
	PubSubChannelCheckouts = "checkouts:live"
)

// Limits
const (
	MaxRecentCheckouts = 100
	MaxCartItems       = 20 // one signing prompt covers at most this many swaps
)

// Broadcast settings
const (
	SubmitMaxRetries   = 3
	ConfirmTimeout     = 60 * time.Second
	ConfirmPollInitial = 500 * time.Millisecond
	ConfirmPollMax     = 4 * time.Second
)
