package runtime

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// PrecisionStats summarizes the absolute error between decoded and expected values.
type PrecisionStats struct {
	Min, Max, Mean, Median, StdDev float64

	// Log2 of the mean error, or -Inf if all values are exact.
	Log2Mean float64
}

func (s PrecisionStats) String() string {
	return fmt.Sprintf("err: min=%.3g max=%.3g mean=%.3g (log2 %.2f) median=%.3g stddev=%.3g", s.Min, s.Max, s.Mean, s.Log2Mean, s.Median, s.StdDev)
}

// NewPrecisionStats returns the statistics of |have[i] - want[i]|.
func NewPrecisionStats(have, want []float64) (s PrecisionStats, err error) {

	if len(have) != len(want) {
		return s, fmt.Errorf("cannot NewPrecisionStats: len(have)=%d != len(want)=%d", len(have), len(want))
	}

	diff := make(stats.Float64Data, len(have))
	for i := range have {
		diff[i] = math.Abs(have[i] - want[i])
	}

	if s.Min, err = diff.Min(); err != nil {
		return s, fmt.Errorf("cannot NewPrecisionStats: %w", err)
	}

	s.Max, _ = diff.Max()
	s.Mean, _ = diff.Mean()
	s.Median, _ = diff.Median()
	s.StdDev, _ = diff.StandardDeviation()
	s.Log2Mean = math.Log2(s.Mean)

	return
}
