package domain

import (
	"math"
	"time"
)

// FeatureNames is the column order the regressor is trained and queried with.
var FeatureNames = []string{"Temperature", "Humidity", "Pressure", "WindSpeed"}

// LabelName is the training column holding observed rainfall in millimetres.
const LabelName = "Rainfall"

// DateLayout renders forecast dates as DD-MM-YYYY.
const DateLayout = "02-01-2006"

// ForecastDays is the number of days in a weekly forecast, starting tomorrow.
const ForecastDays = 7

// Classification thresholds in millimetres.
const (
	LightRainThresholdMM = 3.0
	HeavyRainThresholdMM = 8.0

	// HighPriorityHeavyDays is the number of heavy-rain days that escalates a week.
	HighPriorityHeavyDays = 2
)

// Status is the rainfall severity bucket for a single day.
type Status string

const (
	StatusNoRain    Status = "No Rain"
	StatusLightRain Status = "Light Rain"
	StatusHeavyRain Status = "Heavy Rain"
)

// Priority is the aggregate signal for a weekly forecast.
type Priority string

const (
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
)

// Features is one day's atmospheric input to the regressor.
type Features struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	WindSpeed   float64 `json:"wind_speed"`
}

// Vector returns the features in FeatureNames order.
func (f Features) Vector() []float64 {
	return []float64{f.Temperature, f.Humidity, f.Pressure, f.WindSpeed}
}

// TrainingRecord is one labelled row of the historical dataset.
type TrainingRecord struct {
	Features
	Rainfall float64 `json:"rainfall"`
}

// DailyForecast is the predicted rainfall for one calendar day.
type DailyForecast struct {
	Date       string  `json:"date"`
	Day        string  `json:"day"`
	RainfallMM float64 `json:"rainfall_mm"`
	Status     Status  `json:"status"`
}

// WeeklyForecast holds ForecastDays entries in ascending date order.
type WeeklyForecast []DailyForecast

// ForecastAlert is published when a week escalates to HIGH priority.
type ForecastAlert struct {
	ID              string         `json:"id"`
	GeneratedAt     time.Time      `json:"generated_at"`
	OverallPriority Priority       `json:"overall_priority"`
	HeavyRainDays   int            `json:"heavy_rain_days"`
	Forecast        WeeklyForecast `json:"forecast"`
}

// ClassifyRainfall maps a rounded rainfall amount to its status bucket.
func ClassifyRainfall(mm float64) Status {
	switch {
	case mm < LightRainThresholdMM:
		return StatusNoRain
	case mm < HeavyRainThresholdMM:
		return StatusLightRain
	default:
		return StatusHeavyRain
	}
}

// RoundRainfall rounds a prediction to two decimal places, halves to even.
func RoundRainfall(mm float64) float64 {
	return math.RoundToEven(mm*100) / 100
}

// NewDailyForecast builds the entry for date from a raw model prediction.
func NewDailyForecast(date time.Time, predictedMM float64) DailyForecast {
	mm := RoundRainfall(predictedMM)
	return DailyForecast{
		Date:       date.Format(DateLayout),
		Day:        date.Weekday().String(),
		RainfallMM: mm,
		Status:     ClassifyRainfall(mm),
	}
}

// HeavyRainDays counts the entries classified as heavy rain.
func (w WeeklyForecast) HeavyRainDays() int {
	n := 0
	for _, d := range w {
		if d.Status == StatusHeavyRain {
			n++
		}
	}
	return n
}

// OverallPriority escalates a week to HIGH when it has at least
// HighPriorityHeavyDays heavy-rain days.
func OverallPriority(w WeeklyForecast) Priority {
	if w.HeavyRainDays() >= HighPriorityHeavyDays {
		return PriorityHigh
	}
	return PriorityNormal
}
