package model

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"
	"time"

	"github.com/fixmycity/rainfall-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyDataset is returned when there is nothing to train on.
	ErrEmptyDataset = errors.New("dataset has no records")

	// ErrFeatureCount is returned when a feature vector has the wrong length.
	ErrFeatureCount = errors.New("wrong number of features")

	// ErrNotFitted is returned when predicting with a forest that has no trees.
	ErrNotFitted = errors.New("model has no fitted trees")
)

// Params controls forest fitting. The zero value of the optional limits
// (MaxDepth, MaxFeatures) means unlimited.
type Params struct {
	Estimators      int
	Seed            uint64
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
}

// DefaultParams returns the settings the production model is trained with:
// 100 fully grown trees, seed 42, every feature considered at each split.
func DefaultParams() Params {
	return Params{
		Estimators:      100,
		Seed:            42,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

func (p Params) validate() error {
	if p.Estimators <= 0 {
		return fmt.Errorf("estimators must be positive, got %d", p.Estimators)
	}
	if p.MinSamplesSplit < 2 {
		return fmt.Errorf("min samples split must be at least 2, got %d", p.MinSamplesSplit)
	}
	if p.MinSamplesLeaf < 1 {
		return fmt.Errorf("min samples leaf must be at least 1, got %d", p.MinSamplesLeaf)
	}
	if p.MaxDepth < 0 || p.MaxFeatures < 0 {
		return errors.New("max depth and max features must not be negative")
	}
	return nil
}

// Forest is a bagged ensemble of regression trees. A fitted or loaded Forest
// is never mutated, so Predict is safe for concurrent use.
type Forest struct {
	params    Params
	features  []string
	trees     []Tree
	trainedAt time.Time
	records   int
}

// Fit trains a forest on records. Each tree sees a bootstrap sample drawn
// with replacement. Trees are grown in parallel, but every tree's random
// stream is derived up front from Params.Seed, so the same records and
// params always produce the same forest.
func Fit(ctx context.Context, records []domain.TrainingRecord, params Params) (*Forest, error) {
	if err := params.validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	x := make([][]float64, len(records))
	y := make([]float64, len(records))
	for i, r := range records {
		x[i] = r.Vector()
		y[i] = r.Rainfall
	}

	master := rand.New(rand.NewPCG(params.Seed, params.Seed))
	seeds := make([][2]uint64, params.Estimators)
	for i := range seeds {
		seeds[i] = [2]uint64{master.Uint64(), master.Uint64()}
	}

	trees := make([]Tree, params.Estimators)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range trees {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(seeds[i][0], seeds[i][1]))
			sample := make([]int, len(records))
			for j := range sample {
				sample[j] = rng.IntN(len(records))
			}
			trees[i] = fitTree(x, y, sample, params, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit trees: %w", err)
	}

	return &Forest{
		params:    params,
		features:  slices.Clone(domain.FeatureNames),
		trees:     trees,
		trainedAt: domain.Now().UTC(),
		records:   len(records),
	}, nil
}

// Predict returns the mean of the trees' predictions for one feature vector
// in domain.FeatureNames order.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, ErrNotFitted
	}
	if len(x) != len(f.features) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(x), len(f.features))
	}
	var sum float64
	for i := range f.trees {
		sum += f.trees[i].predict(x)
	}
	return sum / float64(len(f.trees)), nil
}

// PredictFeatures is Predict for a domain feature set.
func (f *Forest) PredictFeatures(feat domain.Features) (float64, error) {
	return f.Predict(feat.Vector())
}

// Trees returns the number of fitted trees.
func (f *Forest) Trees() int { return len(f.trees) }

// MaxDepth returns the depth of the deepest tree.
func (f *Forest) MaxDepth() int {
	d := 0
	for i := range f.trees {
		d = max(d, f.trees[i].depth())
	}
	return d
}

// Params returns the parameters the forest was fitted with.
func (f *Forest) Params() Params { return f.params }

// TrainedAt returns when the forest was fitted.
func (f *Forest) TrainedAt() time.Time { return f.trainedAt }

// Records returns the number of training records the forest was fitted on.
func (f *Forest) Records() int { return f.records }
