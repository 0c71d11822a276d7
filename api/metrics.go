package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/reelvault/asset-services/constants"
	"github.com/reelvault/asset-services/models/common"
)

// Metrics counts lifecycle operations by outcome and times them.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the operation metrics with reg. Collectors
// that are already registered are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "asset_services",
		Name:      "operations_total",
		Help:      "Lifecycle operations by outcome.",
	}, []string{"operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "asset_services",
		Name:      "operation_duration_seconds",
		Help:      "Latency of lifecycle operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	var err error
	if operations, err = register(reg, operations); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &Metrics{operations: operations, duration: duration}, nil
}

// MustNewMetrics is NewMetrics that panics on error.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	m, err := NewMetrics(reg)
	if err != nil {
		panic(err)
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, fmt.Errorf("register operation metric: %w", err)
	}
	return collector, nil
}

// Observe records one call to operation that began at started.
func (m *Metrics) Observe(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	m.operations.WithLabelValues(operation, Outcome(err)).Inc()
}

// Outcome returns the metric label for err.
func Outcome(err error) string {
	if err == nil {
		return constants.OutcomeSuccess
	}
	switch common.KindOf(err) {
	case common.KindValidation:
		return constants.OutcomeValidation
	case common.KindNotFound:
		return constants.OutcomeNotFound
	}
	return constants.OutcomeProcessing
}
