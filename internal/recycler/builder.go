package recycler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustfolio/solana-dust-recycler/internal/jupiter"
	"github.com/dustfolio/solana-dust-recycler/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Router is the external liquidity router the builder aggregates against.
type Router interface {
	Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error)
	Swap(ctx context.Context, req jupiter.SwapRequest) (*jupiter.SwapResponse, error)
}

// BuilderConfig is the fixed fee schedule and routing target. Configured
// once per process; never derived at request time.
type BuilderConfig struct {
	BaseMint    string // recycling target, normally wrapped SOL
	FeeBps      int
	FeeAccount  string
	SlippageBps int
}

// Builder turns a set of sell orders into fee-bearing unsigned swap
// transactions, one per order, in order.
type Builder struct {
	router Router
	cfg    BuilderConfig
	logger *logrus.Logger
}

func NewBuilder(router Router, cfg BuilderConfig, logger *logrus.Logger) *Builder {
	if logger == nil {
		logger = logrus.New()
	}
	return &Builder{router: router, cfg: cfg, logger: logger}
}

// Build quotes every order concurrently, then builds every swap transaction
// concurrently, and returns the blobs re-joined in input order.
//
// Failure policy: first error aborts the whole batch (errgroup cancels the
// in-flight siblings) and the error names the failing mint. Nothing has been
// signed at this stage, so aborting is cheap and no partial set is returned.
func (b *Builder) Build(ctx context.Context, owner string, orders []models.SellOrder) ([]models.UnsignedSwapTransaction, error) {
	if len(orders) == 0 {
		return nil, fmt.Errorf("no orders to build")
	}

	// Stage 1: quote fan-out.
	quotes := make([]*jupiter.QuoteResponse, len(orders))
	g, gctx := errgroup.WithContext(ctx)
	for i, order := range orders {
		minor := UIToMinor(order.AmountToSell, order.Decimals)
		if minor == 0 {
			return nil, fmt.Errorf("amount for mint %s is below one minor unit", order.Mint)
		}
		g.Go(func() error {
			quote, err := b.router.Quote(gctx, jupiter.QuoteRequest{
				InputMint:   order.Mint,
				OutputMint:  b.cfg.BaseMint,
				Amount:      strconv.FormatUint(minor, 10),
				SlippageBps: b.cfg.SlippageBps,
				SwapMode:    "ExactIn",
			})
			if err != nil {
				return fmt.Errorf("quote failed for mint %s: %w", order.Mint, err)
			}
			quotes[i] = quote
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Stage 2: swap-build fan-out, fee attached per quote.
	txs := make([]models.UnsignedSwapTransaction, len(orders))
	g, gctx = errgroup.WithContext(ctx)
	for i, order := range orders {
		quote := quotes[i]
		g.Go(func() error {
			out, err := strconv.ParseUint(quote.OutAmount, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid outAmount %q for mint %s: %w", quote.OutAmount, order.Mint, err)
			}
			fee := FeeAmount(out, b.cfg.FeeBps)

			req := jupiter.SwapRequest{
				QuoteResponse:    quote,
				UserPublicKey:    owner,
				WrapAndUnwrapSol: true,
			}
			if fee > 0 {
				req.FeeAccount = b.cfg.FeeAccount
				req.FeeAmount = strconv.FormatUint(fee, 10)
			}

			swap, err := b.router.Swap(gctx, req)
			if err != nil {
				return fmt.Errorf("swap build failed for mint %s: %w", order.Mint, err)
			}
			txs[i] = models.UnsignedSwapTransaction{
				Mint:            order.Mint,
				SwapTransaction: swap.SwapTransaction,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.logger.WithFields(logrus.Fields{
		"owner": owner,
		"txs":   len(txs),
	}).Debug("recycle batch built")

	return txs, nil
}
