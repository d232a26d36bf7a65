package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fixmycity/rainfall-service/internal/domain"
	"github.com/fixmycity/rainfall-service/internal/observability"
)

// ErrModelNotLoaded is reported by CheckReadiness when no model was supplied.
var ErrModelNotLoaded = errors.New("model not loaded")

// Predictor maps a feature vector in domain.FeatureNames order to rainfall in mm.
// *model.Forest satisfies it.
type Predictor interface {
	Predict(x []float64) (float64, error)
}

// FeatureSampler supplies one day's synthetic atmospheric inputs.
type FeatureSampler interface {
	Sample() domain.Features
}

// Generator produces weekly rainfall forecasts from a loaded model. It holds
// no mutable state of its own and is safe for concurrent use as long as the
// predictor and sampler are.
type Generator struct {
	predictor Predictor
	sampler   FeatureSampler
	location  *time.Location
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Option customises a Generator.
type Option func(*Generator)

// WithLocation sets the time zone "today" is taken in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(g *Generator) {
		if loc != nil {
			g.location = loc
		}
	}
}

// WithSampler replaces the default global-source sampler.
func WithSampler(s FeatureSampler) Option {
	return func(g *Generator) {
		if s != nil {
			g.sampler = s
		}
	}
}

// NewGenerator wires a Generator around a loaded model.
func NewGenerator(p Predictor, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Generator {
	g := &Generator{
		predictor: p,
		sampler:   NewSampler(),
		location:  time.Local,
		logger:    logger,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckReadiness reports whether a model is available for inference.
func (g *Generator) CheckReadiness(_ context.Context) error {
	if g.predictor == nil {
		return ErrModelNotLoaded
	}
	return nil
}

// PredictWeekly forecasts rainfall for the seven days after today, in
// ascending date order. Each day's inputs are fresh random draws. A
// prediction failure aborts the whole forecast.
func (g *Generator) PredictWeekly(ctx context.Context) (_ domain.WeeklyForecast, err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		g.metrics.ForecastRequests.WithLabelValues(outcome).Inc()
		g.metrics.ForecastDuration.Observe(time.Since(start).Seconds())
	}()

	if g.predictor == nil {
		return nil, ErrModelNotLoaded
	}
	today := domain.Now().In(g.location)

	week := make(domain.WeeklyForecast, 0, domain.ForecastDays)
	for i := 1; i <= domain.ForecastDays; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := today.AddDate(0, 0, i)
		features := g.sampler.Sample()

		mm, err := g.predictor.Predict(features.Vector())
		if err != nil {
			return nil, fmt.Errorf("predict rainfall for %s: %w", date.Format(domain.DateLayout), err)
		}

		day := domain.NewDailyForecast(date, mm)
		g.metrics.PredictedRainfall.Observe(day.RainfallMM)
		g.metrics.DayStatus.WithLabelValues(string(day.Status)).Inc()
		g.logger.Debug("daily forecast",
			"date", day.Date,
			"temperature", features.Temperature,
			"humidity", features.Humidity,
			"pressure", features.Pressure,
			"wind_speed", features.WindSpeed,
			"rainfall_mm", day.RainfallMM,
			"status", day.Status,
		)
		week = append(week, day)
	}

	return week, nil
}
