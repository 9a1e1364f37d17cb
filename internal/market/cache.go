package market

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is the most recently fetched price for a symbol.
type PriceQuote struct {
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observed_at"`
}

// Cache holds the latest quote per symbol. Reads never touch the network;
// a stale quote is served until the next successful fetch overwrites it.
type Cache struct {
	mu     sync.RWMutex
	quotes map[string]PriceQuote
}

func NewCache() *Cache {
	return &Cache{quotes: make(map[string]PriceQuote)}
}

func (c *Cache) Set(quote PriceQuote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[quote.Symbol] = quote
}

// PriceOf returns the cached quote for symbol, or false if the symbol has
// never been successfully fetched.
func (c *Cache) PriceOf(symbol string) (PriceQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	quote, ok := c.quotes[symbol]
	return quote, ok
}

// AllPrices returns a copy of every cached quote.
func (c *Cache) AllPrices() map[string]PriceQuote {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]PriceQuote, len(c.quotes))
	for symbol, quote := range c.quotes {
		out[symbol] = quote
	}
	return out
}
