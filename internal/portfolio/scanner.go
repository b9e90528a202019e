package portfolio

import (
	"context"
	"fmt"
	"sort"

	"github.com/dustfolio/solana-dust-recycler/internal/constants"
	"github.com/dustfolio/solana-dust-recycler/internal/models"
	"github.com/dustfolio/solana-dust-recycler/internal/rpc"
	"github.com/sirupsen/logrus"
)

// ChainClient fetches the owner's parsed token-account list in one call.
type ChainClient interface {
	GetTokenAccountsByOwner(ctx context.Context, owner string) ([]rpc.TokenAccount, error)
}

// PriceSource resolves USD prices for a mint set in one batched call.
type PriceSource interface {
	Prices(ctx context.Context, mints []string) (map[string]float64, error)
}

// MetadataSource supplies the token directory snapshot. It never fails;
// missing entries degrade to placeholders.
type MetadataSource interface {
	Get(ctx context.Context) map[string]models.TokenMetadata
}

// Denylist reports the mint set excluded from scans. Optional.
type Denylist interface {
	Denied(ctx context.Context) (map[string]struct{}, error)
}

// Scanner builds a ranked portfolio for an owner address.
type Scanner struct {
	chain    ChainClient
	prices   PriceSource
	metadata MetadataSource
	denylist Denylist
	logger   *logrus.Logger
}

func NewScanner(chain ChainClient, prices PriceSource, metadata MetadataSource, logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{
		chain:    chain,
		prices:   prices,
		metadata: metadata,
		logger:   logger,
	}
}

// WithDenylist excludes the given mint set from scan results.
func (s *Scanner) WithDenylist(d Denylist) *Scanner {
	s.denylist = d
	return s
}

// Scan returns the owner's fungible holdings sorted by USD value descending,
// ties broken by mint ascending. A chain or price-feed failure aborts the
// whole scan; an empty wallet is an empty slice, not an error. Holdings are
// produced wholesale per call and never partially updated.
func (s *Scanner) Scan(ctx context.Context, owner string) ([]models.TokenHolding, error) {
	accounts, err := s.chain.GetTokenAccountsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token accounts for %s: %w", owner, err)
	}

	denied := s.deniedMints(ctx)

	positive := accounts[:0:0]
	for _, acc := range accounts {
		if acc.UIAmount <= 0 {
			continue
		}
		if _, ok := denied[acc.Mint]; ok {
			continue
		}
		positive = append(positive, acc)
	}
	if len(positive) == 0 {
		return []models.TokenHolding{}, nil
	}

	mints := make([]string, 0, len(positive))
	for _, acc := range positive {
		mints = append(mints, acc.Mint)
	}

	prices, err := s.prices.Prices(ctx, mints)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	directory := s.metadata.Get(ctx)

	holdings := make([]models.TokenHolding, 0, len(positive))
	for _, acc := range positive {
		price := prices[acc.Mint] // missing price is 0, not an error

		h := models.TokenHolding{
			Mint:     acc.Mint,
			Name:     constants.UnknownTokenName,
			Symbol:   constants.UnknownTokenSymbol,
			Balance:  acc.UIAmount,
			Decimals: acc.Decimals,
			Price:    price,
			Value:    acc.UIAmount * price,
		}
		if meta, ok := directory[acc.Mint]; ok {
			h.Name = meta.Name
			h.Symbol = meta.Symbol
			h.LogoURI = meta.LogoURI
		}
		holdings = append(holdings, h)
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		if holdings[i].Value != holdings[j].Value {
			return holdings[i].Value > holdings[j].Value
		}
		return holdings[i].Mint < holdings[j].Mint
	})

	s.logger.WithFields(logrus.Fields{
		"owner":    owner,
		"holdings": len(holdings),
	}).Debug("portfolio scan complete")

	return holdings, nil
}

// deniedMints degrades to an empty set on any denylist error: a broken
// denylist must not abort scans.
func (s *Scanner) deniedMints(ctx context.Context) map[string]struct{} {
	if s.denylist == nil {
		return nil
	}
	denied, err := s.denylist.Denied(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("denylist unavailable, scanning without it")
		return nil
	}
	return denied
}
