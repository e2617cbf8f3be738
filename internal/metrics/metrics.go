package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はアプリケーションのメトリクスをまとめる
// nilのCollectorに対する呼び出しは何もしない（テストで省略できるように）。
type Collector struct {
	reg *prometheus.Registry

	ProviderRequests *prometheus.CounterVec   // operation, outcome
	ProviderLatency  *prometheus.HistogramVec // operation
	ProviderCancels  *prometheus.CounterVec   // operation
	SessionInits     *prometheus.CounterVec   // outcome
	CodecDecodes     *prometheus.CounterVec   // outcome: ok|invalid|incomplete
	RouteCache       *prometheus.CounterVec   // result: hit|miss|error
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripcompare_provider_requests_total",
			Help: "Geo provider requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tripcompare_provider_request_seconds",
			Help:    "Time from issuing a geo provider request until it settles.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		ProviderCancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripcompare_provider_cancels_total",
			Help: "In-flight provider requests cancelled by the caller.",
		}, []string{"operation"}),
		SessionInits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripcompare_provider_session_inits_total",
			Help: "Provider session initializations by outcome.",
		}, []string{"outcome"}),
		CodecDecodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripcompare_trip_params_decodes_total",
			Help: "Trip parameter decodes by outcome.",
		}, []string{"outcome"}),
		RouteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tripcompare_route_cache_lookups_total",
			Help: "Route cache lookups by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.ProviderRequests,
		c.ProviderLatency,
		c.ProviderCancels,
		c.SessionInits,
		c.CodecDecodes,
		c.RouteCache,
		prometheus.NewGoCollector(),
	)
	return c
}

// Handler /metrics 用のHTTPハンドラー
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveProviderRequest(operation, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.ProviderRequests.WithLabelValues(operation, outcome).Inc()
	c.ProviderLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (c *Collector) IncProviderCancel(operation string) {
	if c == nil {
		return
	}
	c.ProviderCancels.WithLabelValues(operation).Inc()
}

func (c *Collector) IncSessionInit(outcome string) {
	if c == nil {
		return
	}
	c.SessionInits.WithLabelValues(outcome).Inc()
}

func (c *Collector) IncCodecDecode(outcome string) {
	if c == nil {
		return
	}
	c.CodecDecodes.WithLabelValues(outcome).Inc()
}

func (c *Collector) IncRouteCache(result string) {
	if c == nil {
		return
	}
	c.RouteCache.WithLabelValues(result).Inc()
}
