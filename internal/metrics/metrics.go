package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealradar_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dealradar_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	scrapeRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dealradar_scrape_runs_total",
		Help: "Scrape runs by outcome.",
	}, []string{"outcome"})

	dealsStoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dealradar_deals_stored_total",
		Help: "Deals stored from scrape runs.",
	})
)

// ObserveScrape records one scrape run.
func ObserveScrape(outcome string, stored int) {
	scrapeRunsTotal.WithLabelValues(outcome).Inc()
	dealsStoredTotal.Add(float64(stored))
}

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		requestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
