package ops

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/guildstats/guildstats/pkg/httputil"
	"github.com/guildstats/guildstats/pkg/observability"
	"github.com/guildstats/guildstats/pkg/platform"
	"github.com/guildstats/guildstats/pkg/registry"
	"github.com/guildstats/guildstats/pkg/stats"
)

// Server is the operational HTTP server.
type Server struct {
	stats   *stats.Aggregator
	health  *observability.HealthChecker
	metrics *observability.Metrics
	log     *observability.Logger
}

// NewServer builds the ops server around the given collaborators.
func NewServer(agg *stats.Aggregator, health *observability.HealthChecker, metrics *observability.Metrics, log *observability.Logger) *Server {
	return &Server{stats: agg, health: health, metrics: metrics, log: log}
}

// Router returns the configured mux router.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health.Liveness).Methods("GET")
	r.HandleFunc("/readyz", s.health.Readiness).Methods("GET")
	r.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	r.HandleFunc("/guilds/{id}/stats/emoji", s.getEmojiStats).Methods("GET")
	r.HandleFunc("/guilds/{id}/stats/users", s.getUserStats).Methods("GET")
	return r
}

// HTTPServer wraps the router in an http.Server with sane timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) getEmojiStats(w http.ResponseWriter, r *http.Request) {
	guildID, ok := guildIDFrom(w, r)
	if !ok {
		return
	}
	limit := httputil.QueryInt(r, "limit", stats.DefaultLimit)
	ascending := r.URL.Query().Get("order") == "asc"

	entries, err := s.stats.TopEmoji(r.Context(), guildID, limit, ascending)
	if err != nil {
		s.writeStatsError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (s *Server) getUserStats(w http.ResponseWriter, r *http.Request) {
	guildID, ok := guildIDFrom(w, r)
	if !ok {
		return
	}
	limit := httputil.QueryInt(r, "limit", stats.DefaultLimit)

	entries, err := s.stats.TopUsers(r.Context(), guildID, limit)
	if err != nil {
		s.writeStatsError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (s *Server) writeStatsError(w http.ResponseWriter, err error) {
	if errors.Is(err, registry.ErrNotOpen) {
		httputil.WriteError(w, http.StatusNotFound, err)
		return
	}
	s.log.WithError(err).Error("ops stats query failed")
	httputil.WriteError(w, http.StatusInternalServerError, err)
}

func guildIDFrom(w http.ResponseWriter, r *http.Request) (platform.GuildID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid guild id %q", raw))
		return 0, false
	}
	return platform.GuildID(id), true
}
