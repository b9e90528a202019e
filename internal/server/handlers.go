package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustfolio/solana-dust-recycler/internal/ai"
	"github.com/dustfolio/solana-dust-recycler/internal/constants"
	"github.com/dustfolio/solana-dust-recycler/internal/denylist"
	"github.com/dustfolio/solana-dust-recycler/internal/models"
	"github.com/dustfolio/solana-dust-recycler/internal/recycler"
	"github.com/dustfolio/solana-dust-recycler/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Scanner produces the ranked portfolio for an owner.
type Scanner interface {
	Scan(ctx context.Context, owner string) ([]models.TokenHolding, error)
}

// Builder turns a cart snapshot into unsigned swap transactions.
type Builder interface {
	Build(ctx context.Context, owner string, orders []models.SellOrder) ([]models.UnsignedSwapTransaction, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Scanner      Scanner
	Builder      Builder
	Feed         storage.CheckoutFeed // Redis-backed recent checkout feed (optional)
	Denylist     *denylist.Store      // Redis-backed scam-mint denylist
	AI           *ai.Agent            // AI agent for natural language queries (optional)
	AIBaseConfig ai.AgentConfig       // Base configuration for AI agents
	DevMode      bool                 // Enable detailed error responses in development
	Logger       *logrus.Logger       // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Scan returns the owner's fungible holdings ranked by USD value. An empty
// wallet is an empty array, not an error.
func (h *Handlers) Scan(c echo.Context) error {
	var req ScanRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	owner := strings.TrimSpace(req.OwnerAddress)
	if owner == "" {
		return h.err(c, http.StatusBadRequest, "invalid ownerAddress", map[string]any{"ownerAddress": "required"})
	}
	if err := denylist.ValidateMint(owner); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid ownerAddress", map[string]any{"ownerAddress": "must be a base58 public key"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 20*time.Second)
	defer cancel()

	holdings, err := h.Scanner.Scan(ctx, owner)
	if err != nil {
		return h.err(c, http.StatusBadGateway, "scan failed", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, holdings)
}

// Recycle builds one fee-bearing unsigned swap transaction per cart item,
// same order as the request. Build is all-or-nothing: any upstream failure
// returns an error naming the failing mint and no transactions.
func (h *Handlers) Recycle(c echo.Context) error {
	var req RecycleRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	owner := strings.TrimSpace(req.OwnerAddress)
	if owner == "" {
		return h.err(c, http.StatusBadRequest, "invalid ownerAddress", map[string]any{"ownerAddress": "required"})
	}
	if err := denylist.ValidateMint(owner); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid ownerAddress", map[string]any{"ownerAddress": "must be a base58 public key"})
	}
	if len(req.CartItems) == 0 {
		return h.err(c, http.StatusBadRequest, "cartItems is empty", nil)
	}
	if len(req.CartItems) > constants.MaxCartItems {
		return h.err(c, http.StatusBadRequest, "too many cart items", map[string]any{"max": constants.MaxCartItems})
	}

	seen := make(map[string]struct{}, len(req.CartItems))
	for i, item := range req.CartItems {
		if err := denylist.ValidateMint(item.Mint); err != nil {
			return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"index": i, "mint": item.Mint})
		}
		if _, dup := seen[item.Mint]; dup {
			return h.err(c, http.StatusBadRequest, "duplicate mint in cart", map[string]any{"mint": item.Mint})
		}
		seen[item.Mint] = struct{}{}
		if item.Decimals > 18 {
			return h.err(c, http.StatusBadRequest, "invalid decimals", map[string]any{"index": i})
		}
		if recycler.UIToMinor(item.AmountToSell, item.Decimals) == 0 {
			return h.err(c, http.StatusBadRequest, "amount below one minor unit", map[string]any{"index": i, "mint": item.Mint})
		}
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	txs, err := h.Builder.Build(ctx, owner, req.CartItems)
	if err != nil {
		return h.err(c, http.StatusBadGateway, "recycle build failed", map[string]any{"err": err.Error()})
	}

	blobs := make([]string, len(txs))
	for i, tx := range txs {
		blobs[i] = tx.SwapTransaction
	}
	return c.JSON(http.StatusOK, RecycleResponse{SwapTransactions: blobs})
}

// RecentCheckouts returns the most recent checkout reports with optional
// limit parameter (default: 20, range: 1-100)
func (h *Handlers) RecentCheckouts(c echo.Context) error {
	if h.Feed == nil {
		return h.err(c, http.StatusBadRequest, "checkout feed is not configured", nil)
	}

	limitStr := c.QueryParam("limit")
	limit := 20
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > constants.MaxRecentCheckouts {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 100"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Feed.GetRecentCheckouts(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get checkouts", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// DenylistList returns all denylisted mints
func (h *Handlers) DenylistList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	mints, err := h.Denylist.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list denylist", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": mints})
}

// DenylistAdd puts a mint on the denylist
func (h *Handlers) DenylistAdd(c echo.Context) error {
	var req DenylistAddRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Denylist.Add(ctx, req.Mint); err != nil {
		if errors.Is(err, denylist.ErrInvalidMint) {
			return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": "must be a base58 public key"})
		}
		return h.err(c, http.StatusInternalServerError, "failed to add mint", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"mint": req.Mint})
}

// DenylistRemove takes a mint off the denylist
// Returns 204 No Content on successful removal
func (h *Handlers) DenylistRemove(c echo.Context) error {
	mint := c.Param("mint")

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Denylist.Remove(ctx, mint); err != nil {
		if errors.Is(err, denylist.ErrInvalidMint) {
			return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": "must be a base58 public key"})
		}
		return h.err(c, http.StatusInternalServerError, "failed to remove mint", nil)
	}
	return c.NoContent(http.StatusNoContent)
}

// AIAsk processes natural language questions about checkout history using AI
// Supports optional model override for one-off requests
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	agent := h.AI
	var tmp *ai.Agent
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.AIBaseConfig
		cfg.Model = m
		a, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
		}
		tmp = a
		agent = a
		defer func() {
			_ = tmp.Close()
		}()
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}
