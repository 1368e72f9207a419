package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Ingestion metrics
	UsageEventsTotal   *prometheus.CounterVec
	UnknownEmojiTotal  *prometheus.CounterVec
	DedupSuppressed    *prometheus.CounterVec
	CatalogSyncsTotal  *prometheus.CounterVec
	EmojiRemovedTotal  *prometheus.CounterVec

	// Store metrics
	StoreOperationDuration *prometheus.HistogramVec
	StoreErrorsTotal       *prometheus.CounterVec
	OpenStores             prometheus.Gauge

	// Rotation metrics
	RotationsTotal       *prometheus.CounterVec
	BackupUploadsTotal   *prometheus.CounterVec

	// Command metrics
	CommandsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics on a private
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		UsageEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guildstats_usage_events_total",
				Help: "Usage events recorded, by source (message or reaction)",
			},
			[]string{"source"},
		),
		UnknownEmojiTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guildstats_unknown_emoji_total",
				Help: "Usage events dropped because the emoji was not in the catalog",
			},
			[]string{"source"},
		),
		DedupSuppressed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guildstats_dedup_suppressed_total",
				Help: "Reaction deliveries suppressed by the dedup window",
			},
			[]string{"source"},
		),
		CatalogSyncsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guildstats_catalog_syncs_total",
				Help: "Catalog synchronization runs, by kind (full or delta)",
			},
			[]string{"kind"},
		),
		EmojiRemovedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guildstats_emoji_removed_total",
				Help: "Emoji removed from catalogs with their usage history",
			},
			[]string{"kind"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "guildstats_store_operation_duration_seconds",
				Help:    "Store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		StoreErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guildstats_store_errors_total",
				Help: "Store operations that failed and rolled back",
			},
			[]string{"operation"},
		),
		OpenStores: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "guildstats_open_stores",
				Help: "Guild stores currently held open by the registry",
			},
		),
		RotationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guildstats_rotations_total",
				Help: "Store rotations, by outcome (success or failed)",
			},
			[]string{"outcome"},
		),
		BackupUploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guildstats_backup_uploads_total",
				Help: "Rotated backup uploads, by outcome",
			},
			[]string{"outcome"},
		),
		CommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guildstats_commands_total",
				Help: "Chat commands dispatched, by verb",
			},
			[]string{"verb"},
		),
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.UsageEventsTotal,
		m.UnknownEmojiTotal,
		m.DedupSuppressed,
		m.CatalogSyncsTotal,
		m.EmojiRemovedTotal,
		m.StoreOperationDuration,
		m.StoreErrorsTotal,
		m.OpenStores,
		m.RotationsTotal,
		m.BackupUploadsTotal,
		m.CommandsTotal,
	)
	return m
}

// Handler returns an HTTP handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
