package quotes

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/time/rate"

	"finsight/internal/logger"
)

// Options configures a Client. Zero values fall back to defaults sized for
// a 5-calls/minute provider quota with a 60 second quote cache and a 5
// second per-lookup deadline.
type Options struct {
	RatePerMinute int
	Burst         int
	CacheTTL      time.Duration
	Timeout       time.Duration
}

func (o *Options) defaults() {
	if o.RatePerMinute <= 0 {
		o.RatePerMinute = 5
	}
	if o.Burst <= 0 {
		o.Burst = 1
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 60 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
}

// Client is a Source that throttles and caches an underlying Fetcher.
// Cache hits do not consume limiter tokens.
type Client struct {
	fetcher Fetcher
	limiter *rate.Limiter
	cache   *ristretto.Cache
	ttl     time.Duration
	timeout time.Duration
}

// NewClient creates a rate-limited, caching quote client around fetcher.
func NewClient(fetcher Fetcher, opts Options) (*Client, error) {
	opts.defaults()

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	interval := time.Minute / time.Duration(opts.RatePerMinute)
	return &Client{
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Every(interval), opts.Burst),
		cache:   cache,
		ttl:     opts.CacheTTL,
		timeout: opts.Timeout,
	}, nil
}

// GetCurrentPrice returns the quote for a symbol, serving from cache when a
// fresh entry exists. Uncached lookups wait for a limiter token; the wait is
// bounded by the client timeout so a drained limiter cannot hold a request
// open for the full token interval.
func (c *Client) GetCurrentPrice(ctx context.Context, symbol string) (*Quote, error) {
	if cached, ok := c.cache.Get(symbol); ok {
		return cached.(*Quote), nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	quote, err := c.fetcher.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}

	c.cache.SetWithTTL(symbol, quote, 1, c.ttl)
	// Ristretto sets are buffered; wait so an immediate re-read hits the cache
	// instead of burning another limiter token.
	c.cache.Wait()

	return quote, nil
}

// GetBatchQuotes prices multiple symbols. A symbol that cannot be priced is
// logged and omitted from the result; one bad symbol never fails the batch.
// The whole batch shares a single timeout, so symbols stuck behind a drained
// limiter cannot stack waits.
func (c *Client) GetBatchQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result := make(map[string]*Quote, len(symbols))
	for _, symbol := range symbols {
		quote, err := c.GetCurrentPrice(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				// Deadline hit: return whatever was priced so far.
				return result, ctx.Err()
			}
			logger.Get().Warnw("quote lookup failed", "symbol", symbol, "error", err)
			continue
		}
		result[symbol] = quote
	}
	return result, nil
}
