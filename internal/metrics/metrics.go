// Package metrics exposes the backend's Prometheus collectors and serves
// them on a dedicated listener, separate from the API port.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "swaps_total", Help: "Swap attempts by outcome"},
		[]string{"status"},
	)
	SwapAmountWei = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "swap_amount_wei",
			Help: "Native amount of submitted swaps, in wei",
			// 0.001 MON up to 10M MON.
			Buckets: prometheus.ExponentialBuckets(1e15, 10, 11),
		},
	)
	PoolLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "pool_lookups_total", Help: "Pool discovery lookups by result"},
		[]string{"result"},
	)
	QuoteLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quote_latency_seconds",
			Help:    "Latency of route price quotes",
			Buckets: prometheus.DefBuckets,
		},
	)
	RPCErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "rpc_errors_total", Help: "Chain RPC transport failures"},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "API requests by route and status"},
		[]string{"route", "status"},
	)
)

func init() {
	prometheus.MustRegister(SwapsTotal, SwapAmountWei, PoolLookupsTotal, QuoteLatency, RPCErrorsTotal, HTTPRequestsTotal)
}

// Serve starts the /metrics listener in the background and returns the
// server so the caller can close it on shutdown.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
