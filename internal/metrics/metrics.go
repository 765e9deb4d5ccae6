package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics covers the order-creation pipeline. The outcome label carries the
// terminal result: created, validation, auth, forbidden, not_found, conflict
// or error.
type Metrics struct {
	OrdersTotal   *prometheus.CounterVec
	CreateSeconds prometheus.Histogram
}

func New(service string, reg prometheus.Registerer) *Metrics {
	service = strings.ReplaceAll(service, "-", "_")
	ordersTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "classyshop",
		Subsystem: service,
		Name:      "orders_total",
		Help:      "Order creation attempts by terminal outcome.",
	}, []string{"outcome"})
	createSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "classyshop",
		Subsystem: service,
		Name:      "order_create_duration_seconds",
		Help:      "Latency of the create-order transaction path.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	})

	reg.MustRegister(ordersTotal, createSeconds)
	return &Metrics{OrdersTotal: ordersTotal, CreateSeconds: createSeconds}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
