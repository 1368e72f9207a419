package recorder

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildstats/guildstats/pkg/observability"
	"github.com/guildstats/guildstats/pkg/platform"
	"github.com/guildstats/guildstats/pkg/registry"
	"github.com/guildstats/guildstats/pkg/store"
)

func newTestRecorder(t *testing.T) (*Recorder, *registry.Registry) {
	t.Helper()
	log := observability.NewLogger(observability.ErrorLevel, io.Discard)
	reg := registry.New(t.TempDir(), log, observability.NewMetrics())
	t.Cleanup(reg.CloseAll)
	require.NoError(t, reg.Open(1))
	require.NoError(t, reg.With(1, func(s *store.Store) error {
		return s.UpsertEmoji(context.Background(), store.Emoji{ID: 1, Name: "fire"})
	}))
	return New(reg, log, observability.NewMetrics()), reg
}

func totalUsage(t *testing.T, reg *registry.Registry) int64 {
	t.Helper()
	var n int64
	require.NoError(t, reg.With(1, func(s *store.Store) error {
		var err error
		n, err = s.CountUsage(context.Background(), 0)
		return err
	}))
	return n
}

func TestRecordUsage(t *testing.T) {
	rec, reg := newTestRecorder(t)
	ctx := context.Background()

	err := rec.RecordUsage(ctx, 1, platform.Emoji{ID: 1, Name: "fire"},
		platform.User{ID: 10, Name: "sam"}, time.Now(), "reaction")
	require.NoError(t, err)
	assert.EqualValues(t, 1, totalUsage(t, reg))
}

func TestRecordUsageUnknownEmoji(t *testing.T) {
	rec, reg := newTestRecorder(t)

	err := rec.RecordUsage(context.Background(), 1, platform.Emoji{ID: 404, Name: "ghost"},
		platform.User{ID: 10, Name: "sam"}, time.Now(), "message")
	require.ErrorIs(t, err, ErrUnknownEmoji)
	assert.Zero(t, totalUsage(t, reg))
}

func TestRecordUsageUnopenedGuild(t *testing.T) {
	rec, _ := newTestRecorder(t)

	err := rec.RecordUsage(context.Background(), 99, platform.Emoji{ID: 1, Name: "fire"},
		platform.User{ID: 10, Name: "sam"}, time.Now(), "message")
	require.ErrorIs(t, err, registry.ErrNotOpen)
}

func TestRecordBatchDropsUnknownEmojiSilently(t *testing.T) {
	rec, reg := newTestRecorder(t)

	batch := []platform.Emoji{
		{ID: 1, Name: "fire"},
		{ID: 404, Name: "ghost"},
		{ID: 1, Name: "fire"},
	}
	err := rec.RecordBatch(context.Background(), 1, batch,
		platform.User{ID: 10, Name: "sam"}, time.Now(), "message")

	require.NoError(t, err, "unknown emoji are dropped, not surfaced as batch failures")
	assert.EqualValues(t, 2, totalUsage(t, reg),
		"the unknown emoji must not block the known ones")
}

func TestRecordBatchSurfacesStoreFailures(t *testing.T) {
	rec, _ := newTestRecorder(t)

	// An unopened guild fails every entry with a store-level error; the
	// joined error must expose it and must not read as an unknown-emoji
	// drop.
	err := rec.RecordBatch(context.Background(), 99,
		[]platform.Emoji{{ID: 1, Name: "fire"}, {ID: 404, Name: "ghost"}},
		platform.User{ID: 10, Name: "sam"}, time.Now(), "message")

	require.ErrorIs(t, err, registry.ErrNotOpen)
	assert.False(t, errors.Is(err, ErrUnknownEmoji))
}

func TestConcurrentRecordUsageSameGuild(t *testing.T) {
	rec, reg := newTestRecorder(t)
	ctx := context.Background()

	const writers = 16
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- rec.RecordUsage(ctx, 1, platform.Emoji{ID: 1, Name: "fire"},
				platform.User{ID: 10, Name: "sam"}, time.Now(), "message")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// No call was lost and no row is missing its referenced entities.
	assert.EqualValues(t, writers, totalUsage(t, reg))
	require.NoError(t, reg.With(1, func(s *store.Store) error {
		exists, err := s.EmojiExists(ctx, 1)
		require.NoError(t, err)
		require.True(t, exists)

		users, err := s.TopUsers(ctx, 10)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, store.Ranked{Label: "sam", Count: writers}, users[0])
		return nil
	}))
}

func TestRecordBatchEmpty(t *testing.T) {
	rec, _ := newTestRecorder(t)

	err := rec.RecordBatch(context.Background(), 1, nil,
		platform.User{ID: 10, Name: "sam"}, time.Now(), "message")
	require.NoError(t, err)
}
