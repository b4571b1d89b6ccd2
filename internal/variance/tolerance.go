package variance

import "math"

// Breach describes how an actual value deviates from the expected one under a
// tolerance. Delta is expressed in the tolerance's own unit: percent for
// Percentage, raw difference otherwise.
type Breach struct {
	Delta    float64
	Exceeded bool
	Major    bool
}

// Check compares actual with expected. Percentage deltas divide by
// max(|expected|, 1) so a zero expected value never divides by zero.
func (t Tolerance) Check(expected, actual float64) Breach {
	diff := math.Abs(actual - expected)
	delta := diff
	if t.Kind == Percentage {
		delta = diff * 100 / math.Max(math.Abs(expected), 1)
	}
	b := Breach{Delta: delta}
	if delta > t.Value+epsilon {
		b.Exceeded = true
		b.Major = delta > MajorMultiplier*t.Value+epsilon
	}
	return b
}
