package model

import (
	"math"
	"math/rand/v2"

	"github.com/fixmycity/rainfall-service/internal/domain"
)

// SyntheticDataset generates n plausible labelled records for bootstrapping a
// deployment without historical observations. Rainfall rises with humidity,
// temperature and wind and falls with pressure, plus Gaussian noise, clamped
// at zero. The same seed always yields the same records.
func SyntheticDataset(n int, seed uint64) []domain.TrainingRecord {
	rng := rand.New(rand.NewPCG(seed, seed))
	records := make([]domain.TrainingRecord, n)
	for i := range records {
		f := domain.Features{
			Temperature: roundTo(22+rng.Float64()*14, 1),
			Humidity:    math.Round(45 + rng.Float64()*50),
			Pressure:    roundTo(1002+rng.Float64()*20, 1),
			WindSpeed:   roundTo(rng.Float64()*12, 1),
		}
		rain := 0.45*(f.Humidity-60) -
			0.9*(f.Pressure-1012) +
			0.35*(f.Temperature-30) +
			0.6*(f.WindSpeed-4) +
			rng.NormFloat64()*1.5
		records[i] = domain.TrainingRecord{
			Features: f,
			Rainfall: roundTo(max(rain, 0), 2),
		}
	}
	return records
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
