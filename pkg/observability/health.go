package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// StorePinger is implemented by the tenant registry: it pings every open
// guild store and reports per-guild failures.
type StorePinger interface {
	PingAll(ctx context.Context) map[int64]error
}

// HealthChecker provides liveness and readiness HTTP handlers.
type HealthChecker struct {
	stores StorePinger
}

// NewHealthChecker creates a health checker backed by the given registry.
func NewHealthChecker(stores StorePinger) *HealthChecker {
	return &HealthChecker{stores: stores}
}

// HealthStatus is the readiness probe response body.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Guilds    map[string]string `json:"guilds,omitempty"`
}

// Liveness always returns 200 while the process is running.
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    StatusHealthy,
		"timestamp": time.Now().UTC(),
	})
}

// Readiness pings every open guild store. A single failing store degrades
// the status without marking the whole service unready: other guilds keep
// working.
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Guilds:    make(map[string]string),
	}
	for guildID, err := range h.stores.PingAll(ctx) {
		key := formatGuildID(guildID)
		if err != nil {
			status.Status = StatusDegraded
			status.Guilds[key] = err.Error()
		} else {
			status.Guilds[key] = StatusHealthy
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

func formatGuildID(id int64) string {
	return strconv.FormatInt(id, 10)
}
