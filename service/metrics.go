package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors of the service
type Metrics struct {
	Fits            *prometheus.CounterVec
	Predicts        *prometheus.CounterVec
	FitDuration     prometheus.Histogram
	PredictDuration prometheus.Histogram
	FittedTargets   prometheus.Gauge
}

// NewMetrics creates the service metrics and registers them with reg. A nil registerer leaves the
// metrics unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Fits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_fits_total",
				Help: "Number of fit calls by outcome kind",
			},
			[]string{"kind"},
		),
		Predicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demandcast_predicts_total",
				Help: "Number of predict calls by outcome kind",
			},
			[]string{"kind"},
		),
		FitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "demandcast_fit_duration_seconds",
			Help:    "Duration of fit calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		PredictDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "demandcast_predict_duration_seconds",
			Help:    "Duration of predict calls",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		FittedTargets: factory.NewGauge(prometheus.GaugeOpts{
			Name: "demandcast_fitted_targets",
			Help: "Number of target columns in the current fitted model",
		}),
	}
}
