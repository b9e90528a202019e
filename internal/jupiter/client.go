package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the Jupiter router: quotes, fee-bearing swap builds, the
// token directory and the batched price feed.
type Client struct {
	BaseURL   string // quote/swap endpoints
	PriceURL  string
	TokensURL string
	APIKey    string
	HTTP      *http.Client
}

type ClientConfig struct {
	BaseURL   string
	PriceURL  string
	TokensURL string
	APIKey    string
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://quote-api.jup.ag/v6"
	}
	priceURL := strings.TrimRight(strings.TrimSpace(cfg.PriceURL), "/")
	if priceURL == "" {
		priceURL = "https://lite-api.jup.ag/price/v2"
	}
	tokensURL := strings.TrimSpace(cfg.TokensURL)
	if tokensURL == "" {
		tokensURL = "https://token.jup.ag/all"
	}
	return &Client{
		BaseURL:   baseURL,
		PriceURL:  priceURL,
		TokensURL: tokensURL,
		APIKey:    strings.TrimSpace(cfg.APIKey),
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("jupiter http %d", e.StatusCode)
	}
	return fmt.Sprintf("jupiter http %d: %s", e.StatusCode, b)
}

// Quote requests a single ExactIn quote for converting amount of inputMint
// into outputMint.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if strings.TrimSpace(req.InputMint) == "" {
		return nil, fmt.Errorf("inputMint is required")
	}
	if strings.TrimSpace(req.OutputMint) == "" {
		return nil, fmt.Errorf("outputMint is required")
	}
	if strings.TrimSpace(req.Amount) == "" {
		return nil, fmt.Errorf("amount is required")
	}

	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", req.Amount)
	if req.SlippageBps > 0 {
		q.Set("slippageBps", fmt.Sprintf("%d", req.SlippageBps))
	}
	if req.SwapMode != "" {
		q.Set("swapMode", req.SwapMode)
	}
	if req.OnlyDirectRoutes != nil {
		q.Set("onlyDirectRoutes", fmt.Sprintf("%t", *req.OnlyDirectRoutes))
	}

	u := c.BaseURL + "/quote?" + q.Encode()
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var out QuoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode jupiter quote response: %w", err)
	}
	return &out, nil
}

// Swap exchanges a consumed quote for an unsigned, fee-bearing swap
// transaction blob. The quote is scoped to one (input, output, amount)
// triple and must not be reused.
func (c *Client) Swap(ctx context.Context, req SwapRequest) (*SwapResponse, error) {
	if req.QuoteResponse == nil {
		return nil, fmt.Errorf("quoteResponse is required")
	}
	if strings.TrimSpace(req.UserPublicKey) == "" {
		return nil, fmt.Errorf("userPublicKey is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jupiter swap request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("accept", "application/json")
	httpReq.Header.Set("content-type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("x-api-key", c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	var out SwapResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode jupiter swap response: %w", err)
	}
	if strings.TrimSpace(out.SwapTransaction) == "" {
		return nil, fmt.Errorf("jupiter swap response has no transaction")
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("accept", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("x-api-key", c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}
	return body, nil
}
