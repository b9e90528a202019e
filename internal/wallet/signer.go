package wallet

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dustfolio/solana-dust-recycler/internal/constants"
	"github.com/gagliardetto/solana-go"
)

// SignAll signs every transaction of a batch with the wallet key. One call
// authorizes the whole checkout, mirroring a browser wallet's
// signAllTransactions prompt.
func (w *Wallet) SignAll(ctx context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error) {
	for i, tx := range txs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.signTx(tx); err != nil {
			return nil, fmt.Errorf("failed to sign transaction %d: %w", i, err)
		}
	}
	return txs, nil
}

func (w *Wallet) signTx(tx *solana.Transaction) error {
	_, err := tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pub) {
			return &w.priv
		}
		return nil
	})
	return err
}

// Submit serializes a signed transaction and sends it with preflight
// skipped; the router quote already validated feasibility.
func (w *Wallet) Submit(ctx context.Context, tx *solana.Transaction) (string, error) {
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return w.rpc.SendTransaction(ctx, base64.StdEncoding.EncodeToString(txBytes))
}

// Confirm polls signature status with exponential backoff until the
// transaction reaches confirmed/finalized or the confirmation window closes.
func (w *Wallet) Confirm(ctx context.Context, signature string) error {
	deadline := time.Now().Add(constants.ConfirmTimeout)
	backoff := constants.ConfirmPollInitial

	for time.Now().Before(deadline) {
		statuses, err := w.rpc.GetSignatureStatuses(ctx, []string{signature})
		if err != nil {
			return fmt.Errorf("failed to check signature status: %w", err)
		}
		if len(statuses) > 0 && statuses[0] != nil {
			st := statuses[0]
			if st.Err != nil {
				return fmt.Errorf("transaction %s failed on-chain: %v", signature, st.Err)
			}
			if st.ConfirmationStatus == "confirmed" || st.ConfirmationStatus == "finalized" {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
			if backoff > constants.ConfirmPollMax {
				backoff = constants.ConfirmPollMax
			}
		}
	}

	return fmt.Errorf("confirmation timeout for %s", signature)
}
