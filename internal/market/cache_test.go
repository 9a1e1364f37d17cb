package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCacheSetAndGet(t *testing.T) {
	cache := NewCache()

	if _, ok := cache.PriceOf("AAPL"); ok {
		t.Errorf("never-fetched symbol must be absent")
	}

	quote := PriceQuote{Symbol: "AAPL", Price: decimal.NewFromInt(230), ObservedAt: time.Now()}
	cache.Set(quote)

	got, ok := cache.PriceOf("AAPL")
	if !ok || !got.Price.Equal(quote.Price) {
		t.Errorf("PriceOf = %+v, %v; want %+v", got, ok, quote)
	}
}

func TestCacheOverwrite(t *testing.T) {
	cache := NewCache()
	cache.Set(PriceQuote{Symbol: "AAPL", Price: decimal.NewFromInt(230)})
	cache.Set(PriceQuote{Symbol: "AAPL", Price: decimal.NewFromInt(231)})

	got, _ := cache.PriceOf("AAPL")
	if !got.Price.Equal(decimal.NewFromInt(231)) {
		t.Errorf("expected latest price 231, got %s", got.Price)
	}
}

func TestAllPricesReturnsCopy(t *testing.T) {
	cache := NewCache()
	cache.Set(PriceQuote{Symbol: "AAPL", Price: decimal.NewFromInt(230)})

	prices := cache.AllPrices()
	delete(prices, "AAPL")

	if _, ok := cache.PriceOf("AAPL"); !ok {
		t.Errorf("mutating the returned map must not affect the cache")
	}
}
