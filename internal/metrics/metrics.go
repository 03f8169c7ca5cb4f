package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PassesTotal counts completed pipeline passes
	PassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "outagewatch",
		Name:      "passes_total",
		Help:      "Completed pipeline passes",
	})

	// PassDuration observes how long one full pass takes
	PassDuration = promauto.NewSummary(prometheus.SummaryOpts{
		Namespace: "outagewatch",
		Name:      "pass_duration_seconds",
		Help:      "Time spent on one full pipeline pass",
	})

	// RecordsDiscovered counts newly created records per source
	RecordsDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "outagewatch",
		Name:      "records_discovered_total",
		Help:      "Newly created records",
	}, []string{"source"})

	// ScrapeErrors counts failed source passes per source
	ScrapeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "outagewatch",
		Name:      "scrape_errors_total",
		Help:      "Failed source scrapes",
	}, []string{"source"})

	// NotificationsSent counts successful notification deliveries
	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "outagewatch",
		Name:      "notifications_sent_total",
		Help:      "Successful notification deliveries",
	})
)

// Serve exposes the /metrics endpoint on addr; it blocks, so callers run it
// in a goroutine
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}
