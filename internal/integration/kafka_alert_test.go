//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/fixmycity/rainfall-service/internal/adapter/http"
	"github.com/fixmycity/rainfall-service/internal/adapter/kafka"
	"github.com/fixmycity/rainfall-service/internal/config"
	"github.com/fixmycity/rainfall-service/internal/domain"
	"github.com/fixmycity/rainfall-service/internal/forecast"
	"github.com/fixmycity/rainfall-service/internal/observability"
)

const testAlertTopic = "test-rainfall-alerts"

// constantPredictor forecasts the same rainfall every day.
type constantPredictor float64

func (c constantPredictor) Predict(_ []float64) (float64, error) { return float64(c), nil }

type alwaysReady struct{}

func (alwaysReady) CheckReadiness(_ context.Context) error { return nil }

func newAlertReader(broker string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAlertTopic,
		Partition:   0,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
}

// TestHighPriorityForecastPublishesAlert drives the HTTP handler with a model
// that always predicts heavy rain and checks the alert lands on the topic.
func TestHighPriorityForecastPublishesAlert(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAlertTopic)

	cfg := &config.Config{
		KafkaBrokers:        []string{broker},
		KafkaAlertTopic:     testAlertTopic,
		AlertPublishTimeout: 10 * time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	writer := kafka.NewAlertWriter(cfg, logger, metrics)
	defer writer.Close()

	gen := forecast.NewGenerator(constantPredictor(15), logger, metrics, forecast.WithSampler(forecast.NewSeededSampler(1)))
	srv := httpadapter.NewServer(":0", gen, alwaysReady{}, writer, logger, metrics)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rainfall_prediction", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	reader := newAlertReader(broker)
	defer reader.Close()

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err, "read alert")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "HIGH", headers["priority"])
	_, err = time.Parse(time.RFC3339, headers["generated_at"])
	require.NoError(t, err)

	var alert domain.ForecastAlert
	require.NoError(t, json.Unmarshal(msg.Value, &alert))
	assert.Equal(t, string(msg.Key), alert.ID)
	assert.Equal(t, domain.PriorityHigh, alert.OverallPriority)
	assert.Equal(t, domain.ForecastDays, alert.HeavyRainDays)
	require.Len(t, alert.Forecast, domain.ForecastDays)
	for _, d := range alert.Forecast {
		assert.Equal(t, domain.StatusHeavyRain, d.Status)
		assert.InDelta(t, 15.0, d.RainfallMM, 0)
	}
}

// TestAlertWriterRoundTrip publishes directly through the writer.
func TestAlertWriterRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAlertTopic)

	cfg := &config.Config{
		KafkaBrokers:        []string{broker},
		KafkaAlertTopic:     testAlertTopic,
		AlertPublishTimeout: 10 * time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	writer := kafka.NewAlertWriter(cfg, logger, observability.NewMetricsForTesting())
	defer writer.Close()

	start := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	alert := domain.ForecastAlert{
		ID:              "7f1c2b8e-3c55-4a2e-8f0e-0d6b3a9e4c21",
		GeneratedAt:     time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC),
		OverallPriority: domain.PriorityHigh,
		HeavyRainDays:   2,
		Forecast: domain.WeeklyForecast{
			domain.NewDailyForecast(start, 8.4),
			domain.NewDailyForecast(start.AddDate(0, 0, 1), 10.1),
		},
	}
	require.NoError(t, writer.Publish(ctx, alert))

	reader := newAlertReader(broker)
	defer reader.Close()

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err)

	var got domain.ForecastAlert
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, alert, got)
	assert.Equal(t, alert.ID, string(msg.Key))
}
