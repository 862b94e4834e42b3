package core

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type clientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newClientMetrics registers request collectors on reg. A nil registerer disables metrics.
// Collectors already registered by another client on the same registerer are reused.
func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	if reg == nil {
		return nil, nil
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cdf",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "Number of HTTP requests issued by the client.",
	}, []string{"method", "resource", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cdf",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests issued by the client.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "resource"})

	var err error
	if requests, err = registerOrReuse(reg, requests); err != nil {
		return nil, err
	}
	if duration, err = registerOrReuse(reg, duration); err != nil {
		return nil, err
	}
	return &clientMetrics{requests: requests, duration: duration}, nil
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *clientMetrics) observe(method, resource string, status int, d time.Duration) {
	if m == nil {
		return
	}
	statusLabel := "error"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, resource, statusLabel).Inc()
	m.duration.WithLabelValues(method, resource).Observe(d.Seconds())
}
