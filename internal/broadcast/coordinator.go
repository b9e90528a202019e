package broadcast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustfolio/solana-dust-recycler/internal/cart"
	"github.com/dustfolio/solana-dust-recycler/internal/models"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// ErrUserRejected is returned by a Signer when the holder declines the
// signing prompt. The coordinator aborts with zero broadcasts and zero
// state mutation.
var ErrUserRejected = errors.New("user rejected signing")

// Signer authorizes the entire batch in one interaction.
type Signer interface {
	SignAll(ctx context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error)
}

// Chain submits signed transactions and polls for their confirmation.
type Chain interface {
	Submit(ctx context.Context, tx *solana.Transaction) (string, error)
	Confirm(ctx context.Context, signature string) error
}

// ReportSink records the finished checkout report. Optional; recording
// failures are logged, never surfaced.
type ReportSink interface {
	RecordCheckout(ctx context.Context, report *models.CheckoutReport) error
}

// State is the coordinator's per-checkout phase.
type State int

const (
	StateBuilding State = iota
	StateAwaitingSignature
	StateBroadcasting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateAwaitingSignature:
		return "awaiting_signature"
	case StateBroadcasting:
		return "broadcasting"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Coordinator decodes a recycle batch, obtains one batch signature, and
// submits each transaction sequentially in original cart order, recording a
// per-item outcome. Later swaps may depend on balances freed by earlier ones
// (wrapped-SOL unwrapping), so submission order is strict; confirmation
// order is only enforced when confirmEach is set.
type Coordinator struct {
	signer      Signer
	chain       Chain
	cart        *cart.Cart // optional, cleared on any success
	sink        ReportSink // optional
	confirmEach bool
	logger      *logrus.Logger
}

func NewCoordinator(signer Signer, chain Chain, logger *logrus.Logger) *Coordinator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Coordinator{signer: signer, chain: chain, logger: logger}
}

// BindCart attaches the cart to clear when a checkout lands at least one
// transaction. Clearing is full-cart, failed items included; retry of failed
// items means re-scanning, not cart surgery.
func (c *Coordinator) BindCart(ct *cart.Cart) *Coordinator {
	c.cart = ct
	return c
}

// WithReportSink records every finished checkout report.
func (c *Coordinator) WithReportSink(s ReportSink) *Coordinator {
	c.sink = s
	return c
}

// WithConfirmEach waits for confirmation of each submission before starting
// the next one. Slower, but required when a later swap spends a balance the
// previous swap settles.
func (c *Coordinator) WithConfirmEach(v bool) *Coordinator {
	c.confirmEach = v
	return c
}

// Execute runs one checkout: Building -> AwaitingSignature -> Broadcasting ->
// Done. A decode failure aborts before any signing prompt; a signature
// rejection aborts before any broadcast; once broadcasting starts, every
// remaining item is attempted and its outcome recorded independently.
func (c *Coordinator) Execute(ctx context.Context, owner string, unsigned []models.UnsignedSwapTransaction) (*models.CheckoutReport, error) {
	if len(unsigned) == 0 {
		return nil, fmt.Errorf("nothing to broadcast")
	}

	report := &models.CheckoutReport{
		Owner:     owner,
		StartedAt: time.Now().UTC(),
	}

	// Building: decode every opaque blob before showing any prompt.
	c.logState(StateBuilding, len(unsigned))
	txs := make([]*solana.Transaction, len(unsigned))
	for i, u := range unsigned {
		tx, err := solana.TransactionFromBase64(u.SwapTransaction)
		if err != nil {
			return nil, fmt.Errorf("failed to decode transaction for mint %s: %w", u.Mint, err)
		}
		txs[i] = tx
	}

	// AwaitingSignature: the whole batch in one request, one user interaction.
	c.logState(StateAwaitingSignature, len(txs))
	signed, err := c.signer.SignAll(ctx, txs)
	if err != nil {
		if errors.Is(err, ErrUserRejected) {
			return nil, err
		}
		return nil, fmt.Errorf("batch signing failed: %w", err)
	}
	if len(signed) != len(txs) {
		return nil, fmt.Errorf("signer returned %d transactions, expected %d", len(signed), len(txs))
	}

	// Broadcasting: strictly sequential, original order, no early exit.
	c.logState(StateBroadcasting, len(signed))
	for i, tx := range signed {
		mint := unsigned[i].Mint

		sig, err := c.chain.Submit(ctx, tx)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"mint":  mint,
				"index": i,
			}).WithError(err).Warn("submission failed")
			report.Results = append(report.Results, models.BroadcastResult{
				Mint:  mint,
				Error: err.Error(),
			})
			continue
		}

		if c.confirmEach {
			if err := c.chain.Confirm(ctx, sig); err != nil {
				report.Results = append(report.Results, models.BroadcastResult{
					Mint:      mint,
					Signature: sig,
					Error:     fmt.Sprintf("submitted but not confirmed: %v", err),
				})
				continue
			}
		}

		report.Results = append(report.Results, models.BroadcastResult{
			Mint:      mint,
			Success:   true,
			Signature: sig,
		})
	}

	// Done.
	report.FinishedAt = time.Now().UTC()
	report.Tally()
	c.logState(StateDone, len(report.Results))

	if report.Succeeded > 0 && c.cart != nil {
		c.cart.Clear()
	}
	if c.sink != nil {
		if err := c.sink.RecordCheckout(ctx, report); err != nil {
			c.logger.WithError(err).Warn("failed to record checkout report")
		}
	}

	return report, nil
}

func (c *Coordinator) logState(s State, n int) {
	c.logger.WithFields(logrus.Fields{
		"state": s.String(),
		"txs":   n,
	}).Debug("checkout state")
}
