package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`

	// Model training and loading.
	ModelPath       string `envconfig:"MODEL_PATH" default:"ml/model.bin" validate:"required"`
	DatasetPath     string `envconfig:"DATASET_PATH" default:"ml/rainfall_data.csv" validate:"required"`
	ModelEstimators int    `envconfig:"MODEL_ESTIMATORS" default:"100" validate:"min=1,max=5000"`
	ModelSeed       uint64 `envconfig:"MODEL_SEED" default:"42"`

	// Forecast generation. A zero seed draws from the global random source.
	ForecastSeed     uint64         `envconfig:"FORECAST_SEED" default:"0"`
	ForecastTimezone string         `envconfig:"FORECAST_TIMEZONE" default:"Local" validate:"required"`
	ForecastLocation *time.Location `ignored:"true"`

	// HIGH priority alert publishing.
	AlertsEnabled       bool          `ignored:"true"`
	KafkaBrokers        []string      `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaAlertTopic     string        `envconfig:"KAFKA_ALERT_TOPIC" default:"rainfall-alerts"`
	AlertPublishTimeout time.Duration `envconfig:"ALERT_PUBLISH_TIMEOUT" default:"2s" validate:"gt=0"`
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present; it
// never overrides variables already set in the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.KafkaBrokers = parseBrokers(cfg.KafkaBrokers)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, describeValidation(err)
	}

	loc, err := time.LoadLocation(cfg.ForecastTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid FORECAST_TIMEZONE: %w", err)
	}
	cfg.ForecastLocation = loc

	cfg.AlertsEnabled = os.Getenv("KAFKA_BROKERS") != ""
	if v := os.Getenv("ALERTS_ENABLED"); v != "" {
		cfg.AlertsEnabled = v == "true"
	}

	if cfg.AlertsEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("ALERTS_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaAlertTopic == "" {
			return nil, errors.New("KAFKA_ALERT_TOPIC is required when alerts are enabled")
		}
	}

	return &cfg, nil
}

func parseBrokers(raw []string) []string {
	brokers := make([]string, 0, len(raw))
	for _, b := range raw {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// describeValidation rewrites validator errors in terms of environment
// variable names so operators can tell which setting to fix.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.StructField()
		if f, ok := reflect.TypeOf(Config{}).FieldByName(name); ok {
			if tag := f.Tag.Get("envconfig"); tag != "" {
				name = tag
			}
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("invalid %s: must satisfy %s=%s", name, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("invalid %s: %s", name, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
