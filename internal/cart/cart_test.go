package cart

import (
	"testing"

	"github.com/dustfolio/solana-dust-recycler/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func holding(mint string, balance, price float64) models.TokenHolding {
	return models.TokenHolding{
		Mint:     mint,
		Name:     "Token " + mint,
		Symbol:   mint,
		Balance:  balance,
		Decimals: 9,
		Price:    price,
		Value:    balance * price,
	}
}

func TestCart_AddDefaultsToFullBalance(t *testing.T) {
	c := New()
	c.Add(holding("A", 2, 5)) // $10

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2.0, items[0].AmountToSell)
	assert.Equal(t, 10.0, items[0].ValueToSell)
	assert.Equal(t, 10.0, c.TotalValue())
}

func TestCart_AddIsIdempotentPerMint(t *testing.T) {
	c := New()
	c.Add(holding("A", 2, 5))
	c.UpdateAmount("A", 1)

	// Second add of the same mint must not reset the edited amount.
	c.Add(holding("A", 2, 5))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1.0, items[0].AmountToSell)
	assert.Equal(t, 5.0, c.TotalValue())
}

func TestCart_UpdateAmountRecomputesValue(t *testing.T) {
	c := New()
	c.Add(holding("A", 10, 1.5)) // $15

	c.UpdateAmount("A", 4)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 4.0, items[0].AmountToSell)
	assert.Equal(t, 6.0, items[0].ValueToSell)
	assert.Equal(t, 6.0, c.TotalValue())
}

func TestCart_UpdateAmountOnAbsentMintIsNoOp(t *testing.T) {
	c := New()
	c.Add(holding("A", 2, 5))

	c.UpdateAmount("B", 1)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].Mint)
	assert.Equal(t, 10.0, c.TotalValue())
}

func TestCart_TotalTracksRemove(t *testing.T) {
	c := New()
	c.Add(holding("A", 10, 1)) // $10
	c.Add(holding("B", 5, 1))  // $5
	assert.Equal(t, 15.0, c.TotalValue())

	c.Remove("A")
	assert.Equal(t, 5.0, c.TotalValue())
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "B", c.Items()[0].Mint)
}

func TestCart_ClearEmptiesEverything(t *testing.T) {
	c := New()
	c.Add(holding("A", 10, 1))
	c.Add(holding("B", 5, 1))

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Items())
	assert.Equal(t, 0.0, c.TotalValue())
}

func TestCart_ItemsPreserveInsertionOrder(t *testing.T) {
	c := New()
	c.Add(holding("C", 1, 1))
	c.Add(holding("A", 1, 1))
	c.Add(holding("B", 1, 1))

	mints := []string{}
	for _, item := range c.Items() {
		mints = append(mints, item.Mint)
	}
	assert.Equal(t, []string{"C", "A", "B"}, mints)
}

func TestCart_ItemsAreCopies(t *testing.T) {
	c := New()
	c.Add(holding("A", 2, 5))

	items := c.Items()
	items[0].AmountToSell = 99

	assert.Equal(t, 2.0, c.Items()[0].AmountToSell)
}
