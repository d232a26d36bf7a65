package model

import (
	"fmt"
	"math"

	"github.com/fixmycity/rainfall-service/internal/domain"
)

// Scores summarises how well a forest reproduces a labelled dataset.
type Scores struct {
	Samples int     `json:"samples"`
	MAE     float64 `json:"mae"`
	RMSE    float64 `json:"rmse"`
	R2      float64 `json:"r2"`

	// StatusAgreement is the fraction of rows whose predicted status bucket
	// equals the bucket of the observed rainfall.
	StatusAgreement float64 `json:"status_agreement"`
}

// Evaluate scores f against records.
func Evaluate(f *Forest, records []domain.TrainingRecord) (Scores, error) {
	if len(records) == 0 {
		return Scores{}, ErrEmptyDataset
	}

	var mean float64
	for _, r := range records {
		mean += r.Rainfall
	}
	mean /= float64(len(records))

	var absErr, sqErr, sqTot float64
	agree := 0
	for i, r := range records {
		pred, err := f.PredictFeatures(r.Features)
		if err != nil {
			return Scores{}, fmt.Errorf("record %d: %w", i, err)
		}
		diff := pred - r.Rainfall
		absErr += math.Abs(diff)
		sqErr += diff * diff
		sqTot += (r.Rainfall - mean) * (r.Rainfall - mean)

		if domain.ClassifyRainfall(domain.RoundRainfall(pred)) == domain.ClassifyRainfall(domain.RoundRainfall(r.Rainfall)) {
			agree++
		}
	}

	n := float64(len(records))
	s := Scores{
		Samples:         len(records),
		MAE:             absErr / n,
		RMSE:            math.Sqrt(sqErr / n),
		StatusAgreement: float64(agree) / n,
	}
	if sqTot > 0 {
		s.R2 = 1 - sqErr/sqTot
	}
	return s, nil
}
