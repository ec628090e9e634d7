package nowcast

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/aristath/navcast/pkg/formulas"
)

// NormalSource yields standard-normal variates. The engine takes it as a
// dependency so tests can seed the simulation deterministically.
type NormalSource interface {
	Norm() float64
}

// BoxMullerSource produces standard normals from a uniform source via the
// Box-Muller transform.
type BoxMullerSource struct {
	uniform *rand.Rand
}

// NewBoxMullerSource wraps a rand source.
func NewBoxMullerSource(src rand.Source) *BoxMullerSource {
	return &BoxMullerSource{uniform: rand.New(src)}
}

// NewSeededSource is a convenience constructor for tests.
func NewSeededSource(seed int64) *BoxMullerSource {
	return NewBoxMullerSource(rand.NewSource(seed))
}

// newDefaultSource is the production source, seeded from the clock.
func newDefaultSource() *BoxMullerSource {
	return NewBoxMullerSource(rand.NewSource(time.Now().UnixNano()))
}

// Norm draws one standard-normal variate. Exact zeros are re-drawn to avoid
// the logarithm singularity.
func (s *BoxMullerSource) Norm() float64 {
	u := s.uniform.Float64()
	for u == 0 {
		u = s.uniform.Float64()
	}
	v := s.uniform.Float64()
	for v == 0 {
		v = s.uniform.Float64()
	}
	return math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
}

// simulate runs the Monte Carlo projection around navWithVega and derives
// the confidence interval, 5% VaR versus current NAV, and the probability
// of finishing above current NAV.
func simulate(
	normals NormalSource,
	navWithVega, currentNAV, weightedIV30 float64,
	cfg Config,
) SimulationSummary {
	n := cfg.NumSimulations
	dailyVol := formulas.AnnualizedToDaily(weightedIV30 / 100)

	sims := make([]float64, n)
	aboveCurrent := 0
	for i := 0; i < n; i++ {
		marketFactor := normals.Norm() * math.Sqrt(cfg.ProjectionDays)
		simulatedReturn := marketFactor * dailyVol * cfg.CorrelationFactor
		sims[i] = navWithVega * (1 + simulatedReturn)
		if sims[i] > currentNAV {
			aboveCurrent++
		}
	}

	sorted := make([]float64, n)
	copy(sorted, sims)
	sort.Float64s(sorted)

	lowerPct := (100 - cfg.ConfidenceLevel) / 2
	upperPct := 100 - lowerPct

	return SimulationSummary{
		NumSimulations:          n,
		ConfidenceLevel:         cfg.ConfidenceLevel,
		LowerBound:              sorted[formulas.PercentileIndex(n, lowerPct)],
		UpperBound:              sorted[formulas.PercentileIndex(n, upperPct)],
		Mean:                    formulas.Mean(sorted),
		Median:                  formulas.Median(sorted),
		StdDev:                  formulas.StdDev(sorted),
		ValueAtRisk5:            currentNAV - sorted[formulas.PercentileIndex(n, 5)],
		ProbabilityAboveCurrent: float64(aboveCurrent) / float64(n),
	}
}
