package stats

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildstats/guildstats/pkg/observability"
	"github.com/guildstats/guildstats/pkg/registry"
	"github.com/guildstats/guildstats/pkg/store"
)

func newTestAggregator(t *testing.T, cacheTTL time.Duration) (*Aggregator, *registry.Registry) {
	t.Helper()
	log := observability.NewLogger(observability.ErrorLevel, io.Discard)
	reg := registry.New(t.TempDir(), log, observability.NewMetrics())
	t.Cleanup(reg.CloseAll)
	require.NoError(t, reg.Open(1))

	ctx := context.Background()
	require.NoError(t, reg.With(1, func(s *store.Store) error {
		for _, e := range []store.Emoji{{ID: 1, Name: "fire"}, {ID: 2, Name: "drop"}} {
			if err := s.UpsertEmoji(ctx, e); err != nil {
				return err
			}
		}
		for _, eid := range []int64{1, 1, 1, 2} {
			if err := s.RecordUsage(ctx, store.User{ID: 10, Name: "sam"}, eid, time.Now()); err != nil {
				return err
			}
		}
		return nil
	}))
	return New(reg, log, observability.NewMetrics(), cacheTTL), reg
}

func TestTopEmoji(t *testing.T) {
	agg, _ := newTestAggregator(t, 0)
	ctx := context.Background()

	got, err := agg.TopEmoji(ctx, 1, 10, false)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, store.Ranked{Label: "fire", Count: 3}, got[0])
	assert.Equal(t, store.Ranked{Label: "drop", Count: 1}, got[1])

	got, err = agg.TopEmoji(ctx, 1, 10, true)
	require.NoError(t, err)
	assert.Equal(t, "drop", got[0].Label)
}

func TestTopUsersDefaultLimit(t *testing.T) {
	agg, _ := newTestAggregator(t, 0)

	got, err := agg.TopUsers(context.Background(), 1, -3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, store.Ranked{Label: "sam", Count: 4}, got[0])
}

func TestUnopenedGuild(t *testing.T) {
	agg, _ := newTestAggregator(t, 0)

	_, err := agg.TopEmoji(context.Background(), 99, 10, false)
	require.ErrorIs(t, err, registry.ErrNotOpen)
}

func TestCacheServesStaleWithinTTL(t *testing.T) {
	agg, reg := newTestAggregator(t, time.Minute)
	ctx := context.Background()

	first, err := agg.TopEmoji(ctx, 1, 10, false)
	require.NoError(t, err)
	require.Equal(t, int64(3), first[0].Count)

	// New usage lands behind the cache; the cached result is served until
	// the TTL lapses.
	require.NoError(t, reg.With(1, func(s *store.Store) error {
		return s.RecordUsage(ctx, store.User{ID: 10, Name: "sam"}, 2, time.Now())
	}))

	cached, err := agg.TopEmoji(ctx, 1, 10, false)
	require.NoError(t, err)
	assert.Equal(t, first, cached)
}

func TestCacheKeysSeparateOrderings(t *testing.T) {
	agg, _ := newTestAggregator(t, time.Minute)
	ctx := context.Background()

	desc, err := agg.TopEmoji(ctx, 1, 10, false)
	require.NoError(t, err)
	asc, err := agg.TopEmoji(ctx, 1, 10, true)
	require.NoError(t, err)

	assert.Equal(t, "fire", desc[0].Label)
	assert.Equal(t, "drop", asc[0].Label, "ascending query must not hit the descending cache entry")
}

func TestCacheDisabledAlwaysQueries(t *testing.T) {
	agg, reg := newTestAggregator(t, 0)
	ctx := context.Background()

	first, err := agg.TopEmoji(ctx, 1, 10, false)
	require.NoError(t, err)
	require.Equal(t, int64(3), first[0].Count)

	require.NoError(t, reg.With(1, func(s *store.Store) error {
		return s.RecordUsage(ctx, store.User{ID: 10, Name: "sam"}, 1, time.Now())
	}))

	second, err := agg.TopEmoji(ctx, 1, 10, false)
	require.NoError(t, err)
	assert.Equal(t, int64(4), second[0].Count)
}
