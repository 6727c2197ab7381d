// Package quotes provides access to security price quotes behind a
// rate-limited, short-TTL-cached client. The external provider quota is the
// binding constraint here (5 calls/minute on the free tier), so every lookup
// path goes through a token bucket rather than ad hoc delays.
package quotes

import (
	"context"
	"fmt"
	"time"
)

// Quote is a point-in-time price for a symbol. Price is in cents.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     int64     `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Source looks up current prices. Implementations must be safe for
// concurrent use. Batch lookups tolerate per-symbol failure: symbols that
// could not be priced are simply absent from the result map.
type Source interface {
	GetCurrentPrice(ctx context.Context, symbol string) (*Quote, error)
	GetBatchQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error)
}

// Fetcher performs the raw, uncached, unthrottled price lookup against the
// external provider. Client decorates a Fetcher with rate limiting and
// caching.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (*Quote, error)
}

// ErrUnknownSymbol is returned when the provider has no data for a symbol.
type ErrUnknownSymbol struct {
	Symbol string
}

func (e *ErrUnknownSymbol) Error() string {
	return fmt.Sprintf("quotes: unknown symbol %q", e.Symbol)
}
