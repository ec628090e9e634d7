package nowcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/navcast/pkg/formulas"
)

func TestBoxMullerMoments(t *testing.T) {
	src := NewSeededSource(1)

	n := 20000
	draws := make([]float64, n)
	for i := range draws {
		draws[i] = src.Norm()
	}

	assert.InDelta(t, 0.0, formulas.Mean(draws), 0.02)
	assert.InDelta(t, 1.0, formulas.StdDev(draws), 0.02)
}

func TestSimulateDeterministicForSeed(t *testing.T) {
	cfg := Config{}.withDefaults()

	a := simulate(NewSeededSource(42), 6.10, 6.0976, 40.0, cfg)
	b := simulate(NewSeededSource(42), 6.10, 6.0976, 40.0, cfg)

	assert.Equal(t, a, b)
}

func TestSimulateBoundsOrdering(t *testing.T) {
	cfg := Config{}.withDefaults()
	s := simulate(NewSeededSource(3), 6.10, 6.0976, 40.0, cfg)

	assert.LessOrEqual(t, s.LowerBound, s.Median)
	assert.LessOrEqual(t, s.Median, s.UpperBound)
	assert.Equal(t, cfg.NumSimulations, s.NumSimulations)
	assert.GreaterOrEqual(t, s.ProbabilityAboveCurrent, 0.0)
	assert.LessOrEqual(t, s.ProbabilityAboveCurrent, 1.0)
}

func TestSimulateIntervalWidensWithConfidence(t *testing.T) {
	narrow := simulate(NewSeededSource(9), 6.10, 6.0976, 40.0,
		Config{ConfidenceLevel: 80}.withDefaults())
	wide := simulate(NewSeededSource(9), 6.10, 6.0976, 40.0,
		Config{ConfidenceLevel: 99}.withDefaults())

	assert.Greater(t, wide.UpperBound-wide.LowerBound, narrow.UpperBound-narrow.LowerBound)
}

func TestSimulateIntervalWidensWithHorizon(t *testing.T) {
	oneDay := simulate(NewSeededSource(9), 6.10, 6.0976, 40.0,
		Config{ProjectionDays: 1}.withDefaults())
	fiveDay := simulate(NewSeededSource(9), 6.10, 6.0976, 40.0,
		Config{ProjectionDays: 5}.withDefaults())

	// Same draws scaled by sqrt(horizon), so dispersion must grow.
	assert.Greater(t, fiveDay.StdDev, oneDay.StdDev)
}

func TestSimulateVaRAgainstCurrentNAV(t *testing.T) {
	cfg := Config{NumSimulations: 10000}.withDefaults()
	currentNAV := 6.0976
	s := simulate(NewSeededSource(11), 6.10, currentNAV, 40.0, cfg)

	// VaR5 is the shortfall of the 5th-percentile outcome versus current
	// NAV. With the estimate barely above current, it should be a modest
	// positive number, bounded by the simulated dispersion.
	idx := formulas.PercentileIndex(cfg.NumSimulations, 5)
	require.Positive(t, idx)
	assert.Positive(t, s.ValueAtRisk5)
	assert.Less(t, s.ValueAtRisk5, currentNAV)
}

func TestSimulateZeroVolDegenerate(t *testing.T) {
	cfg := Config{}.withDefaults()
	s := simulate(NewSeededSource(5), 6.10, 6.0976, 0.0, cfg)

	// Zero vol collapses every path onto the estimate.
	assert.InDelta(t, 6.10, s.LowerBound, 1e-12)
	assert.InDelta(t, 6.10, s.UpperBound, 1e-12)
	assert.InDelta(t, 6.10, s.Mean, 1e-12)
	assert.Zero(t, s.StdDev)
	assert.InDelta(t, 1.0, s.ProbabilityAboveCurrent, 1e-12)
}

func TestPercentileBoundsMatchSortedDraws(t *testing.T) {
	cfg := Config{NumSimulations: 100, ConfidenceLevel: 90}.withDefaults()
	s := simulate(NewSeededSource(13), 6.10, 6.0976, 40.0, cfg)

	// 90% CI on 100 draws: indices floor(100*5/100)=5 and floor(100*95/100)=95.
	assert.Equal(t, 5, formulas.PercentileIndex(100, 5))
	assert.Equal(t, 95, formulas.PercentileIndex(100, 95))
	assert.Less(t, s.LowerBound, s.UpperBound)
}
