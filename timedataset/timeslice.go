package timedataset

import (
	"math"
	"time"
)

// TimeSlice is a sorted slice of time points
type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}

	lastTime = t[len(t)-1]
	return lastTime
}

// EstimateFreq returns the most common interval between consecutive points. Ties go
// to the smaller interval.
func (t TimeSlice) EstimateFreq() (time.Duration, error) {
	if len(t) < 2 {
		return 0, ErrCannotInferFreq
	}

	frequencies := make(map[time.Duration]int)
	for i := 1; i < len(t); i++ {
		delta := t[i].Sub(t[i-1])
		if delta <= 0 {
			continue
		}
		frequencies[delta] += 1
	}
	if len(frequencies) == 0 {
		return 0, ErrCannotInferFreq
	}

	var maxCnt int
	maxDelta := time.Duration(math.MaxInt64)

	for delta, cnt := range frequencies {
		if cnt > maxCnt || (cnt == maxCnt && delta < maxDelta) {
			maxCnt = cnt
			maxDelta = delta
		}
	}
	return maxDelta, nil
}

// Extend returns a copy of the time slice followed by n points stepping forward from the
// last time by the estimated frequency.
func (t TimeSlice) Extend(n int) (TimeSlice, error) {
	freq, err := t.EstimateFreq()
	if err != nil {
		return nil, err
	}

	if n < 0 {
		n = 0
	}
	res := make(TimeSlice, len(t), len(t)+n)
	copy(res, t)

	end := t.EndTime()
	monthly := t.Monthly()
	for i := 0; i < n; i++ {
		if monthly {
			res = append(res, end.AddDate(0, i+1, 0))
			continue
		}
		res = append(res, end.Add(time.Duration(i+1)*freq))
	}
	return res, nil
}

const (
	minMonth = 28 * 24 * time.Hour
	maxMonth = 31 * 24 * time.Hour
)

// Monthly reports whether every interval between consecutive points is a calendar month
// long, in which case the points step by month rather than a fixed duration.
func (t TimeSlice) Monthly() bool {
	if len(t) < 2 {
		return false
	}
	for i := 1; i < len(t); i++ {
		delta := t[i].Sub(t[i-1])
		if delta < minMonth || delta > maxMonth {
			return false
		}
	}
	return true
}

// Span returns the duration between the first and last time point
func (t TimeSlice) Span() time.Duration {
	if len(t) < 2 {
		return 0
	}
	return t.EndTime().Sub(t.StartTime())
}
