// Package stats holds the statistical helpers used to clean training data and to size
// the uncertainty of a forecast
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrInvalidIntervalWidth = errors.New("interval width must be in (0, 1)")
	ErrInvalidWindow        = errors.New("window must be at least 2")
)

// DetectOutliers returns the indices of values that fall outside of the Tukey fences built
// from the lower and upper percentiles. NaN values are ignored and never reported.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := dropNaN(y)
	if len(yCopy) == 0 || lowerPerc > upperPerc {
		return nil
	}
	sort.Float64s(yCopy)

	lower := stat.Quantile(lowerPerc, stat.Empirical, yCopy, nil)
	upper := stat.Quantile(upperPerc, stat.Empirical, yCopy, nil)
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if math.IsNaN(y[i]) {
			continue
		}
		if y[i] > upper || y[i] < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

// RollingStdDev computes the standard deviation of every window of consecutive non-NaN values.
// The result has len(y)-window+1 values where y has its NaNs removed.
func RollingStdDev(y []float64, window int) ([]float64, error) {
	if window < 2 {
		return nil, ErrInvalidWindow
	}
	vals := dropNaN(y)
	numWindows := len(vals) - window + 1
	if numWindows <= 0 {
		return nil, nil
	}

	res := make([]float64, numWindows)
	for i := 0; i < numWindows; i++ {
		res[i] = stat.StdDev(vals[i:i+window], nil)
	}
	return res, nil
}

// StdDev computes the sample standard deviation ignoring NaNs
func StdDev(y []float64) float64 {
	vals := dropNaN(y)
	if len(vals) < 2 {
		return 0
	}
	return stat.StdDev(vals, nil)
}

// ZScore returns the two sided standard normal multiplier covering the interval width, e.g. 0.95
// returns 1.96
func ZScore(intervalWidth float64) (float64, error) {
	if intervalWidth <= 0 || intervalWidth >= 1 || math.IsNaN(intervalWidth) {
		return 0, ErrInvalidIntervalWidth
	}
	return distuv.UnitNormal.Quantile(0.5 + intervalWidth/2.0), nil
}

func dropNaN(y []float64) []float64 {
	res := make([]float64, 0, len(y))
	for _, v := range y {
		if math.IsNaN(v) {
			continue
		}
		res = append(res, v)
	}
	return res
}
