// Package domain models the weekly rainfall forecast served by the API.
//
// # Features
//
// The regressor consumes four atmospheric features, always in this order:
//
//	Temperature (°C), Humidity (%), Pressure (hPa), WindSpeed (m/s)
//
// [FeatureNames] is the canonical column order. Training CSVs and persisted
// model artifacts are checked against it.
//
// # Status buckets
//
// Predicted rainfall in millimetres is rounded to two decimals and bucketed:
//
//	< 3 mm        No Rain
//	3 mm – < 8 mm Light Rain
//	≥ 8 mm        Heavy Rain
//
// Negative predictions are not clamped; they fall into "No Rain".
//
// # Priority
//
// A week with two or more "Heavy Rain" days is HIGH priority for city
// drainage crews, otherwise NORMAL. See [OverallPriority].
//
// # Dates
//
// Forecast dates are rendered as DD-MM-YYYY with the full English weekday
// name. "Today" comes from the package clock, which tests replace via
// [SetClock].
package domain
