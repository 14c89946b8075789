package anthropic

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// rateLimitedClient throttles CreateMessage calls so repeated passes
// cannot exceed the configured call budget against the API.
type rateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

// NewRateLimited wraps a client with a calls-per-minute limiter. A
// non-positive rate returns the client unwrapped.
func NewRateLimited(inner Client, perMinute int) Client {
	if perMinute <= 0 {
		return inner
	}
	interval := time.Minute / time.Duration(perMinute)
	return &rateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (c *rateLimitedClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "anthropic: rate limit wait")
	}
	return c.inner.CreateMessage(ctx, req)
}
