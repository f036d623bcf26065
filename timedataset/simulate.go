package timedataset

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateT creates n points spaced by interval ending right before the truncated minute
// returned by nowFunc.
func GenerateT(n int, interval time.Duration, nowFunc func() time.Time) []time.Time {
	return GenerateTFrom(time.Unix(nowFunc().Unix()/60*60, 0).Add(-time.Duration(n)*interval).UTC(), n, interval)
}

// GenerateTFrom creates n points spaced by interval starting at start
func GenerateTFrom(start time.Time, n int, interval time.Duration) []time.Time {
	t := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		t = append(t, start.Add(interval*time.Duration(i)))
	}
	return t
}

// Series is a simulated set of values that can be composed together
type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

// SetConst overwrites values in [start, end) with val
func (s Series) SetConst(t []time.Time, val float64, start, end time.Time) Series {
	n := len(s)
	for i := 0; i < n; i++ {
		if (t[i].After(start) || t[i].Equal(start)) && t[i].Before(end) {
			s[i] = val
		}
	}
	return s
}

// MaskWithWeekend zeroes out every value that is not on a weekend
func (s Series) MaskWithWeekend(t []time.Time) Series {
	n := len(s)
	for i := 0; i < n; i++ {
		switch t[i].Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			s[i] = 0.0
		}
	}
	return s
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateTrendY generates a line with the slope expressed in units per day starting
// at 0 on the first time point
func GenerateTrendY(t []time.Time, slopePerDay float64) Series {
	y := make([]float64, len(t))
	if len(t) == 0 {
		return y
	}
	start := t[0]
	for i, tPnt := range t {
		y[i] = slopePerDay * tPnt.Sub(start).Hours() / 24.0
	}
	return Series(y)
}

// GenerateWaveY generates a sine wave of a given amplitude, period and fourier order
func GenerateWaveY(t []time.Time, amp float64, period time.Duration, order, timeOffset float64) Series {
	n := len(t)
	periodSec := period.Seconds()
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		val := amp * math.Sin(2.0*math.Pi*order/periodSec*(float64(t[i].Unix())+timeOffset))
		y = append(y, val)
	}
	return Series(y)
}

// GenerateNoise generates gaussian noise with the given standard deviation. The seed makes
// the output reproducible.
func GenerateNoise(t []time.Time, stddev float64, seed uint64) Series {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	y := make([]float64, 0, len(t))
	for range t {
		y = append(y, r.NormFloat64()*stddev)
	}
	return Series(y)
}

// GenerateChange adds a jump of bias and a slope in units per day from the changepoint onwards
func GenerateChange(t []time.Time, chpt time.Time, bias, slopePerDay float64) Series {
	n := len(t)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		if t[i].After(chpt) || t[i].Equal(chpt) {
			y[i] = bias + slopePerDay*t[i].Sub(chpt).Hours()/24.0
		}
	}
	return Series(y)
}
