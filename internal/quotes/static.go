package quotes

import (
	"context"
	"sync"
	"time"
)

// StaticSource is a deterministic in-memory Source used in development and
// tests. Prices are fixed until SetPrice is called.
type StaticSource struct {
	mu     sync.RWMutex
	prices map[string]int64
}

// NewStaticSource creates a StaticSource with a small default price table.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		prices: map[string]int64{
			"AAPL":  19050,   // $190.50
			"GOOGL": 14230,   // $142.30
			"MSFT":  41520,   // $415.20
			"VTI":   26880,   // $268.80
			"BND":   7210,    // $72.10
			"BTC":   6450000, // $64,500.00
		},
	}
}

// SetPrice sets or replaces the price for a symbol, in cents.
func (s *StaticSource) SetPrice(symbol string, price int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

// GetCurrentPrice returns the fixed price for a symbol.
func (s *StaticSource) GetCurrentPrice(ctx context.Context, symbol string) (*Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.prices[symbol]
	if !ok {
		return nil, &ErrUnknownSymbol{Symbol: symbol}
	}
	return &Quote{Symbol: symbol, Price: price, Timestamp: time.Now()}, nil
}

// GetBatchQuotes returns prices for all known symbols in the batch; unknown
// symbols are omitted.
func (s *StaticSource) GetBatchQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	result := make(map[string]*Quote, len(symbols))
	for _, symbol := range symbols {
		quote, err := s.GetCurrentPrice(ctx, symbol)
		if err != nil {
			continue
		}
		result[symbol] = quote
	}
	return result, nil
}

// Fetch implements Fetcher so a StaticSource can sit behind a Client in
// development wiring.
func (s *StaticSource) Fetch(ctx context.Context, symbol string) (*Quote, error) {
	return s.GetCurrentPrice(ctx, symbol)
}
