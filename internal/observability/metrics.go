package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the forecast service.
type Metrics struct {
	ForecastRequests  *prometheus.CounterVec // labels: outcome={success,error}
	ForecastDuration  prometheus.Histogram
	PredictedRainfall prometheus.Histogram
	DayStatus         *prometheus.CounterVec // labels: status={No Rain,Light Rain,Heavy Rain}
	OverallPriority   *prometheus.CounterVec // labels: priority={NORMAL,HIGH}

	// Model metrics.
	ModelLoaded prometheus.Gauge
	ModelTrees  prometheus.Gauge

	// Alert publishing metrics.
	AlertPublishes *prometheus.CounterVec // labels: outcome={success,error,circuit_open}
	AlertsEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ForecastRequests,
		m.ForecastDuration,
		m.PredictedRainfall,
		m.DayStatus,
		m.OverallPriority,
		m.ModelLoaded,
		m.ModelTrees,
		m.AlertPublishes,
		m.AlertsEnabled,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ForecastRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall",
			Name:      "forecast_requests_total",
			Help:      "Weekly forecasts generated, by outcome.",
		}, []string{"outcome"}),
		ForecastDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainfall",
			Name:      "forecast_duration_seconds",
			Help:      "Time to synthesize inputs and run inference for a full week.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		PredictedRainfall: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainfall",
			Name:      "predicted_rainfall_mm",
			Help:      "Rounded daily rainfall predictions in millimetres.",
			Buckets:   []float64{1, 3, 5, 8, 12, 20, 35, 50},
		}),
		DayStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall",
			Name:      "day_status_total",
			Help:      "Forecast days by status bucket.",
		}, []string{"status"}),
		OverallPriority: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall",
			Name:      "overall_priority_total",
			Help:      "Weekly forecasts served by overall priority.",
		}, []string{"priority"}),
		ModelLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainfall",
			Name:      "model_loaded",
			Help:      "1 once the regression model artifact has been loaded.",
		}),
		ModelTrees: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainfall",
			Name:      "model_trees",
			Help:      "Number of trees in the loaded forest.",
		}),
		AlertPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall",
			Name:      "alert_publishes_total",
			Help:      "HIGH priority alert publish attempts, by outcome.",
		}, []string{"outcome"}),
		AlertsEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainfall",
			Name:      "alerts_enabled",
			Help:      "1 when HIGH priority alerts are published to Kafka, 0 otherwise.",
		}),
	}
}
