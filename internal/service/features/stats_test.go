package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStdDev(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, mean(xs), 1e-9)
	assert.InDelta(t, 2.0, stdDev(xs), 1e-9)

	assert.Zero(t, mean(nil))
	assert.Zero(t, stdDev(nil))
	assert.Zero(t, stdDev([]float64{3}))
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	xs := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.75, percentile(xs, 25), 1e-9)
	assert.InDelta(t, 2.5, percentile(xs, 50), 1e-9)
	assert.InDelta(t, 3.25, percentile(xs, 75), 1e-9)
	assert.InDelta(t, 1.0, percentile(xs, 0), 1e-9)
	assert.InDelta(t, 4.0, percentile(xs, 100), 1e-9)
}

func TestShannonEntropy(t *testing.T) {
	// Uniform distribution maximizes entropy; a point mass minimizes it.
	uniform := shannonEntropy([]float64{1, 1, 1, 1})
	skewed := shannonEntropy([]float64{100, 0, 0, 0})

	assert.InDelta(t, math.Log(4), uniform, 1e-9)
	assert.Less(t, skewed, uniform)
	assert.Zero(t, shannonEntropy(nil))
}

func TestGiniCoefficient(t *testing.T) {
	equal := giniCoefficient([]float64{5, 5, 5, 5})
	concentrated := giniCoefficient([]float64{0, 0, 0, 20})

	assert.InDelta(t, 0.0, equal, 1e-9)
	assert.Greater(t, concentrated, 0.7)
	assert.Zero(t, giniCoefficient(nil))
}

func TestPearson(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{2, 4, 6, 8, 10}
	inverse := []float64{10, 8, 6, 4, 2}

	assert.InDelta(t, 1.0, pearson(xs, ys), 1e-9)
	assert.InDelta(t, -1.0, pearson(xs, inverse), 1e-9)

	// Constant series has no defined correlation; treat it as zero.
	assert.Zero(t, pearson(xs, []float64{3, 3, 3, 3, 3}))
}

func TestIQROutlierFraction(t *testing.T) {
	xs := []float64{10, 11, 10, 12, 11, 10, 11, 12, 10, 100}

	frac := iqrOutlierFraction(xs)
	assert.InDelta(t, 0.1, frac, 1e-9)

	assert.Zero(t, iqrOutlierFraction([]float64{5, 5, 5}))
}

func TestHistogramCounts(t *testing.T) {
	counts := histogramCounts([]float64{0.5, 1.5, 2.5, 3.0}, 0, 3, 3)

	// The last bin is right-closed so the max value lands inside it.
	assert.Equal(t, []float64{1, 1, 2}, counts)
}

func TestCoefVar(t *testing.T) {
	assert.Zero(t, coefVar(nil))
	cv := coefVar([]float64{10, 10, 10})
	assert.InDelta(t, 0.0, cv, 1e-6)
}
