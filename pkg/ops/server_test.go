package ops

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildstats/guildstats/pkg/observability"
	"github.com/guildstats/guildstats/pkg/registry"
	"github.com/guildstats/guildstats/pkg/stats"
	"github.com/guildstats/guildstats/pkg/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := observability.NewLogger(observability.ErrorLevel, io.Discard)
	metrics := observability.NewMetrics()
	reg := registry.New(t.TempDir(), log, metrics)
	t.Cleanup(reg.CloseAll)

	require.NoError(t, reg.Open(1))
	ctx := context.Background()
	require.NoError(t, reg.With(1, func(s *store.Store) error {
		for _, e := range []store.Emoji{{ID: 1, Name: "fire"}, {ID: 2, Name: "drop"}} {
			if err := s.UpsertEmoji(ctx, e); err != nil {
				return err
			}
		}
		for _, eid := range []int64{1, 1, 2} {
			if err := s.RecordUsage(ctx, store.User{ID: 10, Name: "sam"}, eid, time.Now()); err != nil {
				return err
			}
		}
		return nil
	}))

	agg := stats.New(reg, log, metrics, 0)
	return NewServer(agg, observability.NewHealthChecker(reg), metrics, log)
}

func doRequest(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeRanked(t *testing.T, rec *httptest.ResponseRecorder) []store.Ranked {
	t.Helper()
	var out []store.Ranked
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestLiveness(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestReadinessReportsPerGuild(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	var status observability.HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, observability.StatusHealthy, status.Status)
	assert.Equal(t, "healthy", status.Guilds["1"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "guildstats_open_stores")
}

func TestGetEmojiStats(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, "/guilds/1/stats/emoji")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeRanked(t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, store.Ranked{Label: "fire", Count: 2}, got[0])
	assert.Equal(t, store.Ranked{Label: "drop", Count: 1}, got[1])
}

func TestGetEmojiStatsAscending(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, "/guilds/1/stats/emoji?order=asc&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeRanked(t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "drop", got[0].Label)
}

func TestGetUserStats(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, "/guilds/1/stats/users")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeRanked(t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, store.Ranked{Label: "sam", Count: 3}, got[0])
}

func TestStatsUnknownGuild(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, "/guilds/99/stats/emoji")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not open")
}

func TestStatsInvalidGuildID(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, "/guilds/not-a-number/stats/emoji")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
