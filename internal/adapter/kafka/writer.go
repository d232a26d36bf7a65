package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"

	"github.com/fixmycity/rainfall-service/internal/config"
	"github.com/fixmycity/rainfall-service/internal/domain"
	"github.com/fixmycity/rainfall-service/internal/observability"
)

const (
	breakerName         = "kafka-alerts"
	breakerFailureLimit = 5
	breakerOpenTimeout  = 30 * time.Second
)

// messageWriter is the subset of *kafkago.Writer the alert writer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// AlertWriter publishes HIGH priority forecasts to the alert topic. Writes
// pass through a circuit breaker so a dead broker costs one fast failure per
// request instead of a full publish timeout.
type AlertWriter struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAlertWriter creates a Kafka producer for the configured alert topic.
func NewAlertWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *AlertWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		// One attempt per request; the breaker decides when to stop trying.
		MaxAttempts: 1,
	}
	return newAlertWriter(w, cfg.AlertPublishTimeout, logger, metrics)
}

func newAlertWriter(w messageWriter, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *AlertWriter {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureLimit
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return &AlertWriter{
		writer:  w,
		breaker: cb,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Publish writes one alert, bounded by the configured publish timeout.
func (w *AlertWriter) Publish(ctx context.Context, alert domain.ForecastAlert) error {
	msg, err := serializeToMessage(alert)
	if err != nil {
		w.metrics.AlertPublishes.WithLabelValues("error").Inc()
		return err
	}

	_, err = w.breaker.Execute(func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, w.timeout)
		defer cancel()
		return struct{}{}, w.writer.WriteMessages(ctx, msg)
	})

	switch {
	case err == nil:
		w.metrics.AlertPublishes.WithLabelValues("success").Inc()
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		w.metrics.AlertPublishes.WithLabelValues("circuit_open").Inc()
		return fmt.Errorf("publish alert %s: %w", alert.ID, err)
	default:
		w.metrics.AlertPublishes.WithLabelValues("error").Inc()
		return fmt.Errorf("publish alert %s: %w", alert.ID, err)
	}
}

// State reports the breaker state, for logging and tests.
func (w *AlertWriter) State() gobreaker.State {
	return w.breaker.State()
}

func (w *AlertWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ForecastAlert into a Kafka message keyed by alert ID.
func serializeToMessage(alert domain.ForecastAlert) (kafkago.Message, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forecast alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(alert.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "priority", Value: []byte(alert.OverallPriority)},
			{Key: "generated_at", Value: []byte(alert.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
