package forecast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixmycity/rainfall-service/internal/domain"
	"github.com/fixmycity/rainfall-service/internal/observability"
)

// stubPredictor returns queued values in order, then repeats the last one.
type stubPredictor struct {
	mu     sync.Mutex
	values []float64
	err    error
	inputs [][]float64
}

func (p *stubPredictor) Predict(x []float64) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputs = append(p.inputs, x)
	if p.err != nil {
		return 0, p.err
	}
	v := p.values[0]
	if len(p.values) > 1 {
		p.values = p.values[1:]
	}
	return v, nil
}

type fixedSampler struct{ f domain.Features }

func (s fixedSampler) Sample() domain.Features { return s.f }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withFakeNow(t *testing.T, now time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func TestPredictWeekly_DatesStartTomorrow(t *testing.T) {
	withFakeNow(t, time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC))

	g := NewGenerator(&stubPredictor{values: []float64{1}}, discardLogger(),
		observability.NewMetricsForTesting(), WithLocation(time.UTC))

	week, err := g.PredictWeekly(context.Background())
	require.NoError(t, err)
	require.Len(t, week, domain.ForecastDays)

	wantDates := []string{"20-10-2026", "21-10-2026", "22-10-2026", "23-10-2026", "24-10-2026", "25-10-2026", "26-10-2026"}
	wantDays := []string{"Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday", "Monday"}
	for i, d := range week {
		assert.Equal(t, wantDates[i], d.Date)
		assert.Equal(t, wantDays[i], d.Day)
	}
}

func TestPredictWeekly_CrossesMonthBoundary(t *testing.T) {
	withFakeNow(t, time.Date(2026, 12, 28, 9, 0, 0, 0, time.UTC))

	g := NewGenerator(&stubPredictor{values: []float64{0}}, discardLogger(),
		observability.NewMetricsForTesting(), WithLocation(time.UTC))

	week, err := g.PredictWeekly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "29-12-2026", week[0].Date)
	assert.Equal(t, "01-01-2027", week[3].Date)
	assert.Equal(t, "04-01-2027", week[6].Date)
}

func TestPredictWeekly_UsesLocationForToday(t *testing.T) {
	// 22:00 UTC on the 19th is already the 20th in UTC+5:30.
	withFakeNow(t, time.Date(2026, 10, 19, 22, 0, 0, 0, time.UTC))
	ist := time.FixedZone("IST", 5*3600+1800)

	g := NewGenerator(&stubPredictor{values: []float64{0}}, discardLogger(),
		observability.NewMetricsForTesting(), WithLocation(ist))

	week, err := g.PredictWeekly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "21-10-2026", week[0].Date)
}

func TestPredictWeekly_StatusesAndRounding(t *testing.T) {
	withFakeNow(t, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))

	p := &stubPredictor{values: []float64{-0.4, 0, 2.994, 3.0, 7.994, 7.999, 12.345}}
	metrics := observability.NewMetricsForTesting()
	g := NewGenerator(p, discardLogger(), metrics, WithLocation(time.UTC))

	week, err := g.PredictWeekly(context.Background())
	require.NoError(t, err)

	want := []struct {
		mm     float64
		status domain.Status
	}{
		{-0.4, domain.StatusNoRain},
		{0, domain.StatusNoRain},
		{2.99, domain.StatusNoRain},
		{3.0, domain.StatusLightRain},
		{7.99, domain.StatusLightRain},
		{8.0, domain.StatusHeavyRain},
		{12.35, domain.StatusHeavyRain},
	}
	for i, w := range want {
		assert.InDelta(t, w.mm, week[i].RainfallMM, 1e-9, "day %d", i)
		assert.Equal(t, w.status, week[i].Status, "day %d", i)
	}
	assert.Equal(t, domain.PriorityHigh, domain.OverallPriority(week))

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ForecastRequests.WithLabelValues("success")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.DayStatus.WithLabelValues(string(domain.StatusNoRain))), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.DayStatus.WithLabelValues(string(domain.StatusHeavyRain))), 0)
}

func TestPredictWeekly_PassesFeatureVector(t *testing.T) {
	withFakeNow(t, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))

	f := domain.Features{Temperature: 28.5, Humidity: 80, Pressure: 1010, WindSpeed: 3.2}
	p := &stubPredictor{values: []float64{5}}
	g := NewGenerator(p, discardLogger(), observability.NewMetricsForTesting(), WithSampler(fixedSampler{f}))

	_, err := g.PredictWeekly(context.Background())
	require.NoError(t, err)
	require.Len(t, p.inputs, domain.ForecastDays)
	for _, x := range p.inputs {
		assert.Equal(t, []float64{28.5, 80, 1010, 3.2}, x)
	}
}

func TestPredictWeekly_DefaultSamplerDrawsInRange(t *testing.T) {
	p := &stubPredictor{values: []float64{1}}
	g := NewGenerator(p, discardLogger(), observability.NewMetricsForTesting())

	_, err := g.PredictWeekly(context.Background())
	require.NoError(t, err)
	for _, x := range p.inputs {
		assertInRange(t, domain.Features{Temperature: x[0], Humidity: x[1], Pressure: x[2], WindSpeed: x[3]})
	}
}

func TestPredictWeekly_PredictorError(t *testing.T) {
	withFakeNow(t, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))

	errModel := errors.New("model exploded")
	metrics := observability.NewMetricsForTesting()
	g := NewGenerator(&stubPredictor{err: errModel}, discardLogger(), metrics, WithLocation(time.UTC))

	week, err := g.PredictWeekly(context.Background())
	require.ErrorIs(t, err, errModel)
	assert.Contains(t, err.Error(), "20-10-2026")
	assert.Nil(t, week)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ForecastRequests.WithLabelValues("error")), 0)
}

func TestPredictWeekly_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &stubPredictor{values: []float64{1}}
	metrics := observability.NewMetricsForTesting()
	g := NewGenerator(p, discardLogger(), metrics)

	_, err := g.PredictWeekly(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, p.inputs)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ForecastRequests.WithLabelValues("error")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.ForecastRequests.WithLabelValues("success")), 0)
}

func TestPredictWeekly_WithoutModel(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	g := NewGenerator(nil, discardLogger(), metrics)

	week, err := g.PredictWeekly(context.Background())
	require.ErrorIs(t, err, ErrModelNotLoaded)
	assert.Nil(t, week)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ForecastRequests.WithLabelValues("error")), 0)
}

func TestPredictWeekly_SeededSamplerReproducible(t *testing.T) {
	withFakeNow(t, time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))

	run := func() [][]float64 {
		p := &stubPredictor{values: []float64{1}}
		g := NewGenerator(p, discardLogger(), observability.NewMetricsForTesting(),
			WithSampler(NewSeededSampler(11)))
		_, err := g.PredictWeekly(context.Background())
		require.NoError(t, err)
		return p.inputs
	}
	assert.Equal(t, run(), run())
}

func TestCheckReadiness(t *testing.T) {
	ready := NewGenerator(&stubPredictor{values: []float64{1}}, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, ready.CheckReadiness(context.Background()))

	missing := NewGenerator(nil, discardLogger(), observability.NewMetricsForTesting())
	require.ErrorIs(t, missing.CheckReadiness(context.Background()), ErrModelNotLoaded)
}
