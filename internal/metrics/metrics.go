package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	OrdersPlaced        prometheus.Counter
	OrdersFailed        prometheus.Counter
	CouponsApplied      prometheus.Counter
	CouponRejections    prometheus.Counter
	RedemptionWriteErrs prometheus.Counter
	GeocodeMisses       prometheus.Counter
	CheckoutLatencySec  prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	placed := prometheus.NewCounter(prometheus.CounterOpts{Name: "checkout_orders_placed_total"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{Name: "checkout_orders_failed_total"})
	applied := prometheus.NewCounter(prometheus.CounterOpts{Name: "checkout_coupons_applied_total"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{Name: "checkout_coupon_rejections_total"})
	redemptionErrs := prometheus.NewCounter(prometheus.CounterOpts{Name: "checkout_redemption_write_failures_total"})
	geocodeMisses := prometheus.NewCounter(prometheus.CounterOpts{Name: "checkout_geocode_misses_total"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_place_order_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(placed, failed, applied, rejected, redemptionErrs, geocodeMisses, latency)
	return &Registry{
		reg:                 r,
		OrdersPlaced:        placed,
		OrdersFailed:        failed,
		CouponsApplied:      applied,
		CouponRejections:    rejected,
		RedemptionWriteErrs: redemptionErrs,
		GeocodeMisses:       geocodeMisses,
		CheckoutLatencySec:  latency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
