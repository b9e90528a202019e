package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dustfolio/solana-dust-recycler/internal/models"
)

// ListAllTokens pulls the full token directory snapshot. There is no
// pagination contract; the directory is a single pull and the caller owns
// caching.
func (c *Client) ListAllTokens(ctx context.Context) ([]models.TokenMetadata, error) {
	body, err := c.get(ctx, c.TokensURL)
	if err != nil {
		return nil, err
	}

	var out []models.TokenMetadata
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode token directory: %w", err)
	}
	return out, nil
}

type priceEntry struct {
	ID    string `json:"id"`
	Price string `json:"price"`
}

type priceResponse struct {
	Data map[string]*priceEntry `json:"data"`
}

// Prices fetches USD prices for a mint set in one batched request. Mints the
// feed does not know are simply absent from the result, not an error.
func (c *Client) Prices(ctx context.Context, mints []string) (map[string]float64, error) {
	if len(mints) == 0 {
		return map[string]float64{}, nil
	}

	q := url.Values{}
	q.Set("ids", strings.Join(mints, ","))
	body, err := c.get(ctx, c.PriceURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode price response: %w", err)
	}

	out := make(map[string]float64, len(resp.Data))
	for mint, entry := range resp.Data {
		if entry == nil {
			continue
		}
		p, err := strconv.ParseFloat(entry.Price, 64)
		if err != nil {
			continue
		}
		out[mint] = p
	}
	return out, nil
}
