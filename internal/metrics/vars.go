package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	QuotesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cartel_quotes_total",
		Help: "Number of quotes composed",
	})

	QuoteErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cartel_quote_errors_total",
		Help: "Number of failed quote requests",
	})

	PriceCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cartel_price_cache_hits_total",
		Help: "Price cache hits (spot and pair entries)",
	})

	PriceCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cartel_price_cache_misses_total",
		Help: "Price cache misses triggering an upstream fetch",
	})

	DepositChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cartel_deposit_checks_total",
		Help: "Deposit checks by outcome",
	}, []string{"currency", "outcome"})

	UpstreamErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cartel_upstream_errors_total",
		Help: "Upstream provider and explorer failures",
	}, []string{"upstream"})
)

func init() {
	prometheus.MustRegister(
		QuotesTotal,
		QuoteErrors,
		PriceCacheHits,
		PriceCacheMisses,
		DepositChecks,
		UpstreamErrors,
	)
}
