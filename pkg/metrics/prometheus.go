package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecastCache *prometheus.CounterVec
	trainings     prometheus.Counter
	trainDuration prometheus.Histogram
	liveFetches   *prometheus.CounterVec
	rowsLoaded    *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
}

// New registers the engine metrics on reg. Pass prometheus.DefaultRegisterer
// in production and prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		forecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mandipulse_forecast_cache_total",
			Help: "Forecast cache lookups by result (hit, miss).",
		}, []string{"result"}),
		trainings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mandipulse_forecast_trainings_total",
			Help: "Number of forecast models trained.",
		}),
		trainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mandipulse_forecast_training_seconds",
			Help:    "Forecast model training duration.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		liveFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mandipulse_live_fetch_total",
			Help: "Live price fetches by source and outcome.",
		}, []string{"source", "outcome"}),
		rowsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mandipulse_dataset_rows",
			Help: "Rows kept after cleaning the dataset.",
		}, []string{"source"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mandipulse_errors_total",
			Help: "Errors by kind.",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(r.forecastCache, r.trainings, r.trainDuration, r.liveFetches, r.rowsLoaded, r.errorsTotal)
	}
	return r
}

func (r *Recorder) RecordForecastCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.forecastCache.WithLabelValues(result).Inc()
}

// RecordTraining counts one training run. The fingerprint is not used as a label
// to keep cardinality bounded.
func (r *Recorder) RecordTraining(_ string, d time.Duration) {
	r.trainings.Inc()
	r.trainDuration.Observe(d.Seconds())
}

func (r *Recorder) RecordLiveFetch(source, outcome string) {
	r.liveFetches.WithLabelValues(source, outcome).Inc()
}

func (r *Recorder) RecordRowsLoaded(source string, n int) {
	r.rowsLoaded.WithLabelValues(source).Set(float64(n))
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
