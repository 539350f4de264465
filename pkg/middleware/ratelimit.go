package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	libredis "github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

type RateLimitConfig struct {
	// RequestsPerPeriod is the number of requests allowed per Period.
	RequestsPerPeriod int
	// Period defaults to one second.
	Period time.Duration
	// Store defaults to an in-memory store, which rate-limits per process.
	Store limiter.Store
}

// NewMemoryStore keeps counters in process memory. Suitable for a single
// instance; multi-instance deployments need the Redis store.
func NewMemoryStore() limiter.Store {
	return memory.NewStore()
}

// NewRedisStore shares counters across instances through the Redis node at
// redisURL (redis://host:port/db).
func NewRedisStore(redisURL string) (limiter.Store, error) {
	opts, err := libredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := libredis.NewClient(opts)
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "plantboard:ratelimit",
	})
}

// RateLimit rejects requests above the configured rate with 429 responses,
// keyed by client IP.
func RateLimit(config RateLimitConfig) mux.MiddlewareFunc {
	period := config.Period
	if period == 0 {
		period = time.Second
	}
	store := config.Store
	if store == nil {
		store = NewMemoryStore()
	}
	instance := limiter.New(store, limiter.Rate{
		Period: period,
		Limit:  int64(config.RequestsPerPeriod),
	})
	mw := stdlib.NewMiddleware(instance)
	return func(next http.Handler) http.Handler {
		return mw.Handler(next)
	}
}
