package broadcast

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dustfolio/solana-dust-recycler/internal/cart"
	"github.com/dustfolio/solana-dust-recycler/internal/models"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsignedBlob builds a real serialized transaction so the decode path runs
// against genuine wire bytes.
func unsignedBlob(t *testing.T, mint string) models.UnsignedSwapTransaction {
	t.Helper()

	from := solana.NewWallet()
	to := solana.NewWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, from.PublicKey(), to.PublicKey()).Build(),
		},
		solana.Hash{},
		solana.TransactionPayer(from.PublicKey()),
	)
	require.NoError(t, err)

	blob, err := tx.ToBase64()
	require.NoError(t, err)

	return models.UnsignedSwapTransaction{Mint: mint, SwapTransaction: blob}
}

type fakeSigner struct {
	err    error
	called int
}

func (f *fakeSigner) SignAll(_ context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error) {
	f.called++
	if f.err != nil {
		return nil, f.err
	}
	return txs, nil
}

// shortSigner drops a transaction to simulate a misbehaving wallet.
type shortSigner struct{}

func (shortSigner) SignAll(_ context.Context, txs []*solana.Transaction) ([]*solana.Transaction, error) {
	return txs[:len(txs)-1], nil
}

type fakeChain struct {
	submitErrs map[int]error // by submission index
	confirmErr error
	submitted  int
	confirmed  []string
}

func (f *fakeChain) Submit(_ context.Context, _ *solana.Transaction) (string, error) {
	idx := f.submitted
	f.submitted++
	if err := f.submitErrs[idx]; err != nil {
		return "", err
	}
	return fmt.Sprintf("sig-%d", idx), nil
}

func (f *fakeChain) Confirm(_ context.Context, sig string) error {
	f.confirmed = append(f.confirmed, sig)
	return f.confirmErr
}

type fakeSink struct {
	report *models.CheckoutReport
	err    error
}

func (f *fakeSink) RecordCheckout(_ context.Context, r *models.CheckoutReport) error {
	f.report = r
	return f.err
}

func seededCart() *cart.Cart {
	c := cart.New()
	c.Add(models.TokenHolding{Mint: "A", Balance: 1, Price: 1, Value: 1})
	return c
}

func TestCoordinator_AllSucceed(t *testing.T) {
	chain := &fakeChain{}
	coord := NewCoordinator(&fakeSigner{}, chain, nil)

	report, err := coord.Execute(context.Background(), "owner", []models.UnsignedSwapTransaction{
		unsignedBlob(t, "A"),
		unsignedBlob(t, "B"),
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, "owner", report.Owner)
	assert.Equal(t, "A", report.Results[0].Mint)
	assert.Equal(t, "sig-0", report.Results[0].Signature)
	assert.Equal(t, "B", report.Results[1].Mint)
	assert.Equal(t, "sig-1", report.Results[1].Signature)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestCoordinator_DecodeFailureAbortsBeforeSigning(t *testing.T) {
	signer := &fakeSigner{}
	chain := &fakeChain{}
	coord := NewCoordinator(signer, chain, nil)

	report, err := coord.Execute(context.Background(), "owner", []models.UnsignedSwapTransaction{
		unsignedBlob(t, "A"),
		{Mint: "B", SwapTransaction: "%%% not base64 %%%"},
	})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "mint B")
	assert.Equal(t, 0, signer.called)
	assert.Equal(t, 0, chain.submitted)
}

func TestCoordinator_SignRejectionAbortsWithZeroBroadcasts(t *testing.T) {
	chain := &fakeChain{}
	c := seededCart()
	coord := NewCoordinator(&fakeSigner{err: ErrUserRejected}, chain, nil).BindCart(c)

	report, err := coord.Execute(context.Background(), "owner", []models.UnsignedSwapTransaction{
		unsignedBlob(t, "A"),
	})
	require.ErrorIs(t, err, ErrUserRejected)
	assert.Nil(t, report)
	assert.Equal(t, 0, chain.submitted)
	// Nothing landed, so the cart keeps its items for a retry.
	assert.Equal(t, 1, c.Len())
}

func TestCoordinator_ShortSignerBatchRejected(t *testing.T) {
	chain := &fakeChain{}
	coord := NewCoordinator(shortSigner{}, chain, nil)

	_, err := coord.Execute(context.Background(), "owner", []models.UnsignedSwapTransaction{
		unsignedBlob(t, "A"),
		unsignedBlob(t, "B"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2")
	assert.Equal(t, 0, chain.submitted)
}

func TestCoordinator_FailureDoesNotStopLaterSubmissions(t *testing.T) {
	chain := &fakeChain{submitErrs: map[int]error{0: errors.New("blockhash expired")}}
	c := seededCart()
	sink := &fakeSink{}
	coord := NewCoordinator(&fakeSigner{}, chain, nil).BindCart(c).WithReportSink(sink)

	report, err := coord.Execute(context.Background(), "owner", []models.UnsignedSwapTransaction{
		unsignedBlob(t, "A"),
		unsignedBlob(t, "B"),
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)

	assert.False(t, report.Results[0].Success)
	assert.Contains(t, report.Results[0].Error, "blockhash expired")
	assert.Empty(t, report.Results[0].Signature)

	assert.True(t, report.Results[1].Success)
	assert.Equal(t, "sig-1", report.Results[1].Signature)

	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	// One landed, so the whole cart is cleared and the report recorded.
	assert.Equal(t, 0, c.Len())
	require.NotNil(t, sink.report)
	assert.Equal(t, report, sink.report)
}

func TestCoordinator_AllFailLeavesCartIntact(t *testing.T) {
	chain := &fakeChain{submitErrs: map[int]error{
		0: errors.New("boom"),
		1: errors.New("boom"),
	}}
	c := seededCart()
	coord := NewCoordinator(&fakeSigner{}, chain, nil).BindCart(c)

	report, err := coord.Execute(context.Background(), "owner", []models.UnsignedSwapTransaction{
		unsignedBlob(t, "A"),
		unsignedBlob(t, "B"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 1, c.Len())
}

func TestCoordinator_ConfirmEach(t *testing.T) {
	chain := &fakeChain{}
	coord := NewCoordinator(&fakeSigner{}, chain, nil).WithConfirmEach(true)

	report, err := coord.Execute(context.Background(), "owner", []models.UnsignedSwapTransaction{
		unsignedBlob(t, "A"),
		unsignedBlob(t, "B"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, []string{"sig-0", "sig-1"}, chain.confirmed)
}

func TestCoordinator_ConfirmFailureMarksItemFailed(t *testing.T) {
	chain := &fakeChain{confirmErr: errors.New("timed out")}
	coord := NewCoordinator(&fakeSigner{}, chain, nil).WithConfirmEach(true)

	report, err := coord.Execute(context.Background(), "owner", []models.UnsignedSwapTransaction{
		unsignedBlob(t, "A"),
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Success)
	assert.Equal(t, "sig-0", report.Results[0].Signature)
	assert.Contains(t, report.Results[0].Error, "submitted but not confirmed")
}

func TestCoordinator_SinkFailureDoesNotFailCheckout(t *testing.T) {
	chain := &fakeChain{}
	sink := &fakeSink{err: errors.New("clickhouse down")}
	coord := NewCoordinator(&fakeSigner{}, chain, nil).WithReportSink(sink)

	report, err := coord.Execute(context.Background(), "owner", []models.UnsignedSwapTransaction{
		unsignedBlob(t, "A"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
}

func TestCoordinator_EmptyBatchRejected(t *testing.T) {
	coord := NewCoordinator(&fakeSigner{}, &fakeChain{}, nil)
	_, err := coord.Execute(context.Background(), "owner", nil)
	require.Error(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "building", StateBuilding.String())
	assert.Equal(t, "awaiting_signature", StateAwaitingSignature.String())
	assert.Equal(t, "broadcasting", StateBroadcasting.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "unknown", State(42).String())
}
