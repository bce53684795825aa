package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes credential lifecycle counters on its own registry.
type Recorder struct {
	registry   *prometheus.Registry
	outcomes   *prometheus.CounterVec
	deliveries *prometheus.CounterVec
	throttled  prometheus.Counter
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credential",
			Name:      "operations_total",
			Help:      "Lifecycle operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credential",
			Name:      "verification_deliveries_total",
			Help:      "Verification email send attempts by triggering operation and result.",
		}, []string{"op", "sent"}),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "credential",
			Name:      "throttled_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	r.registry.MustRegister(
		r.outcomes,
		r.deliveries,
		r.throttled,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) ObserveOutcome(op, outcome string) {
	r.outcomes.WithLabelValues(op, outcome).Inc()
}

func (r *Recorder) ObserveDelivery(op string, sent bool) {
	r.deliveries.WithLabelValues(op, strconv.FormatBool(sent)).Inc()
}

func (r *Recorder) ObserveThrottled() {
	r.throttled.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
