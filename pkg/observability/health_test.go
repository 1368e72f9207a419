package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	results map[int64]error
}

func (s stubPinger) PingAll(ctx context.Context) map[int64]error {
	return s.results
}

func TestLivenessAlwaysHealthy(t *testing.T) {
	h := NewHealthChecker(stubPinger{})

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), StatusHealthy)
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		results    map[int64]error
		wantStatus string
	}{
		{
			name:       "no guilds open",
			results:    map[int64]error{},
			wantStatus: StatusHealthy,
		},
		{
			name:       "all guilds healthy",
			results:    map[int64]error{1: nil, 2: nil},
			wantStatus: StatusHealthy,
		},
		{
			name:       "one failing guild degrades",
			results:    map[int64]error{1: nil, 2: errors.New("database is locked")},
			wantStatus: StatusDegraded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(stubPinger{results: tt.results})

			rec := httptest.NewRecorder()
			h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var status HealthStatus
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Len(t, status.Guilds, len(tt.results))
		})
	}
}

func TestReadinessReportsFailureDetail(t *testing.T) {
	h := NewHealthChecker(stubPinger{results: map[int64]error{
		7: errors.New("disk I/O error"),
	}})

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var status HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "disk I/O error", status.Guilds["7"])
}
