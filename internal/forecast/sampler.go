package forecast

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/fixmycity/rainfall-service/internal/domain"
)

// Discrete levels and continuous ranges the sampler draws from.
var (
	HumidityLevels = []float64{55, 60, 65, 70, 80, 85}
	PressureLevels = []float64{1008, 1010, 1012, 1015, 1018}
)

const (
	MinTemperature = 26.0
	MaxTemperature = 34.0
	MinWindSpeed   = 2.0
	MaxWindSpeed   = 8.0
)

// Sampler draws atmospheric inputs for a future day. Every draw is
// independent of previous days and of any observed weather.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand // nil uses the global source
}

// NewSampler returns a sampler backed by the global random source.
func NewSampler() *Sampler {
	return &Sampler{}
}

// NewSeededSampler returns a sampler whose sequence of draws is fixed by seed.
func NewSeededSampler(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Sample draws humidity and pressure uniformly from their discrete levels,
// temperature uniformly from [26, 34) and wind speed from [2, 8).
func (s *Sampler) Sample() domain.Features {
	if s.rng == nil {
		return draw(rand.IntN, rand.Float64)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return draw(s.rng.IntN, s.rng.Float64)
}

func draw(intN func(int) int, float func() float64) domain.Features {
	return domain.Features{
		Humidity:    HumidityLevels[intN(len(HumidityLevels))],
		Pressure:    PressureLevels[intN(len(PressureLevels))],
		Temperature: uniform(MinTemperature, MaxTemperature, float()),
		WindSpeed:   uniform(MinWindSpeed, MaxWindSpeed, float()),
	}
}

// uniform scales f in [0, 1) to [lo, hi). Rounding can land exactly on hi
// for f close to 1, so the result is pulled back below it.
func uniform(lo, hi, f float64) float64 {
	v := lo + f*(hi-lo)
	if v >= hi {
		return math.Nextafter(hi, lo)
	}
	return v
}
