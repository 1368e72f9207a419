package stats

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/guildstats/guildstats/pkg/observability"
	"github.com/guildstats/guildstats/pkg/platform"
	"github.com/guildstats/guildstats/pkg/registry"
	"github.com/guildstats/guildstats/pkg/store"
)

// DefaultLimit is used when a caller passes a non-positive limit.
const DefaultLimit = 10

// cacheEntries bounds the result cache; one guild produces at most a
// handful of distinct (query, limit, order) keys.
const cacheEntries = 256

// Aggregator runs ranking queries through the tenant registry.
type Aggregator struct {
	reg     *registry.Registry
	log     *observability.Logger
	metrics *observability.Metrics
	cache   *lru.LRU[string, []store.Ranked]
}

// New creates an aggregator. cacheTTL of zero disables result caching.
func New(reg *registry.Registry, log *observability.Logger, metrics *observability.Metrics, cacheTTL time.Duration) *Aggregator {
	a := &Aggregator{reg: reg, log: log, metrics: metrics}
	if cacheTTL > 0 {
		a.cache = lru.NewLRU[string, []store.Ranked](cacheEntries, nil, cacheTTL)
	}
	return a
}

// TopEmoji returns emoji ranked by usage count, descending for top or
// ascending for bottom, truncated to limit. Emoji with zero recorded usage
// are included with count 0. Ties keep underlying row order.
func (a *Aggregator) TopEmoji(ctx context.Context, guildID platform.GuildID, limit int, ascending bool) ([]store.Ranked, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	key := fmt.Sprintf("emoji:%d:%d:%t", guildID, limit, ascending)
	return a.ranked(ctx, guildID, key, "top_emoji", func(s *store.Store) ([]store.Ranked, error) {
		return s.TopEmoji(ctx, limit, ascending)
	})
}

// TopUsers returns users ranked by usage events produced, descending,
// truncated to limit.
func (a *Aggregator) TopUsers(ctx context.Context, guildID platform.GuildID, limit int) ([]store.Ranked, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	key := fmt.Sprintf("users:%d:%d", guildID, limit)
	return a.ranked(ctx, guildID, key, "top_users", func(s *store.Store) ([]store.Ranked, error) {
		return s.TopUsers(ctx, limit)
	})
}

func (a *Aggregator) ranked(ctx context.Context, guildID platform.GuildID, key, op string, query func(s *store.Store) ([]store.Ranked, error)) ([]store.Ranked, error) {
	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			return cached, nil
		}
	}

	start := time.Now()
	var result []store.Ranked
	err := a.reg.With(guildID, func(s *store.Store) error {
		var qErr error
		result, qErr = query(s)
		return qErr
	})
	a.metrics.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		a.metrics.StoreErrorsTotal.WithLabelValues(op).Inc()
		return nil, fmt.Errorf("%s query for guild %d failed: %w", op, guildID, err)
	}

	if a.cache != nil {
		a.cache.Add(key, result)
	}
	return result, nil
}
