package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// epsilon guards every denominator in feature computation so that degenerate
// telemetry (constant series, zero means) can never divide by zero.
const epsilon = 1e-6

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// stdDev is the population standard deviation. Telemetry series are the
// whole observed population for a session, not a sample from it.
func stdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.PopStdDev(xs, nil)
}

// coefVar is stdDev/(mean+epsilon), the scale-free spread used for speed and
// interval consistency features.
func coefVar(xs []float64) float64 {
	return stdDev(xs) / (mean(xs) + epsilon)
}

// meanAbsDiff is the mean absolute first difference of a series, capturing
// abrupt transitions between consecutive samples.
func meanAbsDiff(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(xs); i++ {
		sum += math.Abs(xs[i] - xs[i-1])
	}
	return sum / float64(len(xs)-1)
}

func diffs(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}

// percentile computes the p-th percentile (0-100) with linear interpolation
// between closest ranks.
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// histogramCounts bins values into nbins equal-width bins over [lo, hi].
// The final bin is closed on the right so hi itself is counted.
func histogramCounts(xs []float64, lo, hi float64, nbins int) []float64 {
	counts := make([]float64, nbins)
	width := (hi - lo) / float64(nbins)
	if width <= 0 {
		return counts
	}
	for _, x := range xs {
		if x < lo || x > hi {
			continue
		}
		i := int((x - lo) / width)
		if i >= nbins {
			i = nbins - 1
		}
		counts[i]++
	}
	return counts
}

// shannonEntropy computes the entropy of a discrete distribution in nats,
// normalizing the input to sum to one.
func shannonEntropy(pk []float64) float64 {
	total := 0.0
	for _, p := range pk {
		total += p
	}
	if total <= 0 {
		return 0
	}
	h := 0.0
	for _, p := range pk {
		q := p / total
		if q > 0 {
			h -= q * math.Log(q)
		}
	}
	return h
}

// giniCoefficient measures concentration of a non-negative series: 0 for a
// perfectly even spread, approaching 1 when activity is packed into few bins.
func giniCoefficient(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)

	sum := 0.0
	weighted := 0.0
	for i, x := range sorted {
		sum += x
		weighted += float64(i+1) * x
	}
	if sum <= 0 {
		return 0
	}
	return 2*weighted/(float64(n)*sum) - float64(n+1)/float64(n)
}

// pearson is the Pearson correlation between two equal-length series, with
// NaN (constant input) replaced by zero.
func pearson(xs, ys []float64) float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// iqrOutlierFraction is the fraction of values outside 1.5 interquartile
// ranges from the quartiles.
func iqrOutlierFraction(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	q1 := percentile(xs, 25)
	q3 := percentile(xs, 75)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr
	outliers := 0
	for _, x := range xs {
		if x < lo || x > hi {
			outliers++
		}
	}
	return float64(outliers) / float64(len(xs))
}

// countWhere counts values in [lo, hi).
func countWhere(xs []float64, lo, hi float64) float64 {
	n := 0.0
	for _, x := range xs {
		if x >= lo && x < hi {
			n++
		}
	}
	return n
}
