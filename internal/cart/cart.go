package cart

import (
	"sync"

	"github.com/dustfolio/solana-dust-recycler/internal/models"
)

// Item is one selected holding plus the user-adjustable sell amount.
// ValueToSell is recomputed from AmountToSell * Price on every edit.
type Item struct {
	models.TokenHolding
	AmountToSell float64 `json:"amountToSell"`
	ValueToSell  float64 `json:"valueToSell"`
}

// SellOrder converts the item into the minimal build input.
func (i Item) SellOrder() models.SellOrder {
	return models.SellOrder{
		Mint:         i.Mint,
		AmountToSell: i.AmountToSell,
		Decimals:     i.Decimals,
	}
}

// Cart is an explicitly owned selection store keyed by mint, at most one
// item per mint. All transitions are synchronous and total; the derived
// total is recomputed from scratch after each one, never incrementally.
type Cart struct {
	mu    sync.Mutex
	items map[string]*Item
	order []string // insertion order of mints
	total float64
}

func New() *Cart {
	return &Cart{items: make(map[string]*Item)}
}

// Add inserts the holding defaulted to its full balance and value. Adding a
// mint already in the cart is an idempotent no-op.
func (c *Cart) Add(h models.TokenHolding) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[h.Mint]; ok {
		return
	}
	c.items[h.Mint] = &Item{
		TokenHolding: h,
		AmountToSell: h.Balance,
		ValueToSell:  h.Value,
	}
	c.order = append(c.order, h.Mint)
	c.recompute()
}

// UpdateAmount sets the sell amount for a mint and recomputes its value.
// Clamping to [0, balance] is the caller's responsibility. Absent mints are
// a no-op.
func (c *Cart) UpdateAmount(mint string, amount float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[mint]
	if !ok {
		return
	}
	item.AmountToSell = amount
	item.ValueToSell = amount * item.Price
	c.recompute()
}

// Remove deletes the entry for a mint, if present.
func (c *Cart) Remove(mint string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[mint]; !ok {
		return
	}
	delete(c.items, mint)
	for i, m := range c.order {
		if m == mint {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.recompute()
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*Item)
	c.order = nil
	c.recompute()
}

// Items returns copies of the current items in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Item, 0, len(c.order))
	for _, mint := range c.order {
		out = append(out, *c.items[mint])
	}
	return out
}

// TotalValue is the sum of the current items' ValueToSell.
func (c *Cart) TotalValue() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Len returns the number of items in the cart.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cart) recompute() {
	total := 0.0
	for _, item := range c.items {
		total += item.ValueToSell
	}
	c.total = total
}
