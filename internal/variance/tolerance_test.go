package variance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docmatch/internal/variance"
)

func TestPercentageToleranceBoundary(t *testing.T) {
	tol := variance.Tolerance{Kind: variance.Percentage, Value: 5}

	atLimit := tol.Check(100, 105)
	assert.False(t, atLimit.Exceeded, "a delta of exactly the tolerance must not breach")
	assert.InDelta(t, 5.0, atLimit.Delta, 1e-12)

	over := tol.Check(100, 106)
	assert.True(t, over.Exceeded)
	assert.False(t, over.Major)

	under := tol.Check(100, 95)
	assert.False(t, under.Exceeded)
}

// The major threshold is fixed at twice the configured tolerance.
func TestMajorMultiplierIsTwiceTolerance(t *testing.T) {
	assert.Equal(t, 2.0, variance.MajorMultiplier)

	tol := variance.Tolerance{Kind: variance.Percentage, Value: 5}
	assert.False(t, tol.Check(100, 110).Major, "exactly 2x stays minor")
	assert.True(t, tol.Check(100, 111).Major)

	abs := variance.Tolerance{Kind: variance.AbsoluteCount, Value: 2}
	assert.False(t, abs.Check(10, 12).Exceeded)
	minor := abs.Check(10, 14)
	assert.True(t, minor.Exceeded)
	assert.False(t, minor.Major)
	assert.True(t, abs.Check(10, 15).Major)
}

func TestPercentageWithZeroExpectedUsesUnitDenominator(t *testing.T) {
	tol := variance.Tolerance{Kind: variance.Percentage, Value: 50}
	b := tol.Check(0, 0.4)
	assert.InDelta(t, 40.0, b.Delta, 1e-9)
	assert.False(t, b.Exceeded)

	b = tol.Check(0, 3)
	assert.InDelta(t, 300.0, b.Delta, 1e-9)
	assert.True(t, b.Major)
}

func TestZeroToleranceAnyDifferenceIsMajor(t *testing.T) {
	tol := variance.Tolerance{Kind: variance.AbsoluteAmount, Value: 0}
	assert.False(t, tol.Check(12.5, 12.5).Exceeded)
	b := tol.Check(12.5, 12.51)
	assert.True(t, b.Exceeded)
	assert.True(t, b.Major)
}
