package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dustfolio/solana-dust-recycler/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOwner = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
	testMintA = "So11111111111111111111111111111111111111112"
	testMintB = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

type fakeScanner struct {
	holdings []models.TokenHolding
	err      error
	owner    string
}

func (f *fakeScanner) Scan(_ context.Context, owner string) ([]models.TokenHolding, error) {
	f.owner = owner
	return f.holdings, f.err
}

type fakeBuilder struct {
	txs    []models.UnsignedSwapTransaction
	err    error
	owner  string
	orders []models.SellOrder
}

func (f *fakeBuilder) Build(_ context.Context, owner string, orders []models.SellOrder) ([]models.UnsignedSwapTransaction, error) {
	f.owner = owner
	f.orders = orders
	return f.txs, f.err
}

func newTestHandlers(scanner Scanner, builder Builder) *Handlers {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &Handlers{
		Scanner: scanner,
		Builder: builder,
		DevMode: true,
		Logger:  logger,
	}
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h(c))
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestHandlers(&fakeScanner{}, &fakeBuilder{})
	rec := doJSON(t, h.Health, http.MethodGet, "/v1/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
}

func TestScan_ReturnsHoldings(t *testing.T) {
	scanner := &fakeScanner{holdings: []models.TokenHolding{
		{Mint: testMintA, Symbol: "SOL", Balance: 1.5, Value: 300},
	}}
	h := newTestHandlers(scanner, &fakeBuilder{})

	body := fmt.Sprintf(`{"ownerAddress":%q}`, testOwner)
	rec := doJSON(t, h.Scan, http.MethodPost, "/v1/scan", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testOwner, scanner.owner)

	var holdings []models.TokenHolding
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &holdings))
	require.Len(t, holdings, 1)
	assert.Equal(t, testMintA, holdings[0].Mint)
}

func TestScan_EmptyWalletIsEmptyArray(t *testing.T) {
	h := newTestHandlers(&fakeScanner{holdings: []models.TokenHolding{}}, &fakeBuilder{})

	body := fmt.Sprintf(`{"ownerAddress":%q}`, testOwner)
	rec := doJSON(t, h.Scan, http.MethodPost, "/v1/scan", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestScan_Validation(t *testing.T) {
	h := newTestHandlers(&fakeScanner{}, &fakeBuilder{})

	tests := []struct {
		name string
		body string
	}{
		{"missing owner", `{}`},
		{"blank owner", `{"ownerAddress":"   "}`},
		{"not base58", `{"ownerAddress":"not-a-key-0OIl"}`},
		{"malformed json", `{"ownerAddress":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h.Scan, http.MethodPost, "/v1/scan", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, http.StatusBadRequest, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestScan_UpstreamFailureIs502(t *testing.T) {
	h := newTestHandlers(&fakeScanner{err: errors.New("rpc down")}, &fakeBuilder{})

	body := fmt.Sprintf(`{"ownerAddress":%q}`, testOwner)
	rec := doJSON(t, h.Scan, http.MethodPost, "/v1/scan", body)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRecycle_ReturnsBlobsInOrder(t *testing.T) {
	builder := &fakeBuilder{txs: []models.UnsignedSwapTransaction{
		{Mint: testMintA, SwapTransaction: "blob-a"},
		{Mint: testMintB, SwapTransaction: "blob-b"},
	}}
	h := newTestHandlers(&fakeScanner{}, builder)

	body := fmt.Sprintf(`{"ownerAddress":%q,"cartItems":[
		{"mint":%q,"amountToSell":1.5,"decimals":9},
		{"mint":%q,"amountToSell":0.25,"decimals":6}
	]}`, testOwner, testMintA, testMintB)
	rec := doJSON(t, h.Recycle, http.MethodPost, "/v1/recycle", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testOwner, builder.owner)
	require.Len(t, builder.orders, 2)
	assert.Equal(t, testMintA, builder.orders[0].Mint)

	var resp RecycleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"blob-a", "blob-b"}, resp.SwapTransactions)
}

func TestRecycle_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"empty cart",
			fmt.Sprintf(`{"ownerAddress":%q,"cartItems":[]}`, testOwner),
			"cartItems is empty",
		},
		{
			"invalid owner",
			fmt.Sprintf(`{"ownerAddress":"bad","cartItems":[{"mint":%q,"amountToSell":1,"decimals":9}]}`, testMintA),
			"invalid ownerAddress",
		},
		{
			"invalid mint",
			fmt.Sprintf(`{"ownerAddress":%q,"cartItems":[{"mint":"bad","amountToSell":1,"decimals":9}]}`, testOwner),
			"invalid mint",
		},
		{
			"duplicate mint",
			fmt.Sprintf(`{"ownerAddress":%q,"cartItems":[{"mint":%q,"amountToSell":1,"decimals":9},{"mint":%q,"amountToSell":2,"decimals":9}]}`, testOwner, testMintA, testMintA),
			"duplicate mint in cart",
		},
		{
			"decimals out of range",
			fmt.Sprintf(`{"ownerAddress":%q,"cartItems":[{"mint":%q,"amountToSell":1,"decimals":19}]}`, testOwner, testMintA),
			"invalid decimals",
		},
		{
			"amount floors to zero",
			fmt.Sprintf(`{"ownerAddress":%q,"cartItems":[{"mint":%q,"amountToSell":0.0000000001,"decimals":9}]}`, testOwner, testMintA),
			"amount below one minor unit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := &fakeBuilder{}
			h := newTestHandlers(&fakeScanner{}, builder)

			rec := doJSON(t, h.Recycle, http.MethodPost, "/v1/recycle", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Error)
			// Invalid requests never reach the builder.
			assert.Nil(t, builder.orders)
		})
	}
}

func TestRecycle_TooManyItems(t *testing.T) {
	items := make([]string, 21)
	for i := range items {
		items[i] = fmt.Sprintf(`{"mint":"%s","amountToSell":1,"decimals":9}`, distinctMint(i))
	}
	body := fmt.Sprintf(`{"ownerAddress":%q,"cartItems":[%s]}`, testOwner, strings.Join(items, ","))

	h := newTestHandlers(&fakeScanner{}, &fakeBuilder{})
	rec := doJSON(t, h.Recycle, http.MethodPost, "/v1/recycle", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "too many cart items", resp.Error)
}

// distinctMint varies the tail of a known valid base58 key. The result stays
// a 32-byte decode because only the last characters change within the base58
// alphabet.
func distinctMint(i int) string {
	alphabet := "123456789ABCDEFGHJKLMNP"
	base := testMintA
	return base[:len(base)-1] + string(alphabet[i%len(alphabet)])
}

func TestRecycle_BuildFailureIs502(t *testing.T) {
	builder := &fakeBuilder{err: fmt.Errorf("quote failed for mint %s: no route", testMintA)}
	h := newTestHandlers(&fakeScanner{}, builder)

	body := fmt.Sprintf(`{"ownerAddress":%q,"cartItems":[{"mint":%q,"amountToSell":1,"decimals":9}]}`, testOwner, testMintA)
	rec := doJSON(t, h.Recycle, http.MethodPost, "/v1/recycle", body)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "recycle build failed", resp.Error)
	// Dev mode surfaces the failing mint.
	assert.Contains(t, fmt.Sprint(resp.Details), testMintA)
}

func TestRecentCheckouts_UnconfiguredFeed(t *testing.T) {
	h := newTestHandlers(&fakeScanner{}, &fakeBuilder{})
	rec := doJSON(t, h.RecentCheckouts, http.MethodGet, "/v1/checkouts/recent", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAIAsk_Unconfigured(t *testing.T) {
	h := newTestHandlers(&fakeScanner{}, &fakeBuilder{})
	rec := doJSON(t, h.AIAsk, http.MethodPost, "/v1/ai/ask", `{"question":"how many checkouts today"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
