// Package metrics holds the Prometheus instruments of the engine and the server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PointsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hexbin_points_ingested_total",
		Help: "Total number of points added to engines",
	})

	PointsRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hexbin_points_removed_total",
		Help: "Total number of points removed from engines",
	})

	redrawDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hexbin_redraw_duration_seconds",
		Help:    "Duration of a full redraw pass",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	})

	redrawCells = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hexbin_redraw_cells",
		Help: "Number of cells built by the last redraw",
	})

	redrawLinks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hexbin_redraw_links",
		Help: "Number of links routed by the last redraw",
	})

	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hexbin_sessions",
		Help: "Number of live engine sessions",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hexbin_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"route", "status"})
)

// ObserveRedraw records one redraw pass
func ObserveRedraw(d time.Duration, cells, links int) {
	redrawDuration.Observe(d.Seconds())
	redrawCells.Set(float64(cells))
	redrawLinks.Set(float64(links))
}
