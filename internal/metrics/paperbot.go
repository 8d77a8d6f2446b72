package metrics

import "github.com/prometheus/client_golang/prometheus"

// Catalog Prometheus metrics.
var (
	CatalogRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperbot",
			Name:      "catalog_refresh_total",
			Help:      "Total number of catalog refresh attempts",
		},
		[]string{"status"}, // "success" / "error"
	)

	CatalogRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "paperbot",
			Name:      "catalog_refresh_duration_seconds",
			Help:      "Catalog fetch and decode duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	CatalogPapers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "paperbot",
			Name:      "catalog_papers",
			Help:      "Number of entries in the current catalog",
		},
	)

	CatalogLastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "paperbot",
			Name:      "catalog_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful catalog refresh",
		},
	)
)

// Bot Prometheus metrics.
var (
	UpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperbot",
			Name:      "updates_total",
			Help:      "Total number of handled chat updates",
		},
		[]string{"kind"}, // command name, "mention", "ignored"
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "paperbot",
			Name:      "search_results",
			Help:      "Number of papers returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	SearchCappedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "paperbot",
			Name:      "search_capped_total",
			Help:      "Searches that hit the result cap",
		},
	)

	MessagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperbot",
			Name:      "messages_sent_total",
			Help:      "Outbound chat messages",
		},
		[]string{"status"}, // "success" / "error"
	)

	TransportRestartsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "paperbot",
			Name:      "transport_restarts_total",
			Help:      "Chat transport sessions restarted after a failure",
		},
	)
)

var botMetricsRegistered bool

// RegisterBotMetrics registers catalog and bot metrics. Must be called once from main.
func RegisterBotMetrics() {
	if botMetricsRegistered {
		return
	}
	prometheus.MustRegister(CatalogRefreshTotal)
	prometheus.MustRegister(CatalogRefreshDuration)
	prometheus.MustRegister(CatalogPapers)
	prometheus.MustRegister(CatalogLastSuccess)
	prometheus.MustRegister(UpdatesTotal)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(SearchCappedTotal)
	prometheus.MustRegister(MessagesSentTotal)
	prometheus.MustRegister(TransportRestartsTotal)
	botMetricsRegistered = true
}
