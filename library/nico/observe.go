package nico

import (
	"fmt"
	"time"

	errors "github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics holds the collectors registered for search requests.
type clientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nicosearch",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total search requests by operation and outcome.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nicosearch",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Search request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.requests); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or points it at the collector already registered under the same name.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return errors.Wrap(err, "register metric")
	}
	return nil
}

// observer records the outcome of each fetch.
type observer struct {
	logger  logSDK.Logger
	metrics *clientMetrics
}

func newObserver(logger logSDK.Logger, reg prometheus.Registerer) (*observer, error) {
	var m *clientMetrics
	if reg != nil {
		var err error
		if m, err = newClientMetrics(reg); err != nil {
			return nil, err
		}
	}
	return &observer{logger: logger, metrics: m}, nil
}

func (o *observer) observe(logger logSDK.Logger, op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		o.metrics.requests.WithLabelValues(op, outcome(err)).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if logger == nil {
		logger = o.logger
	}
	if logger == nil {
		return
	}
	if err != nil {
		logger.Warn("search request failed",
			zap.String("op", op),
			zap.Duration("cost", dur),
			zap.Error(err),
		)
		return
	}
	logger.Debug("search request completed",
		zap.String("op", op),
		zap.Duration("cost", dur),
	)
}

// outcome labels err by kind.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}

	var transportErr *TransportError
	var apiErr *APIError
	var decodeErr *DecodeError
	switch {
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &decodeErr):
		return "decode_error"
	default:
		return "error"
	}
}
