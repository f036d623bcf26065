package timedataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartEndTime(t *testing.T) {
	testData := map[string]struct {
		tSlice        TimeSlice
		expectedStart time.Time
		expectedEnd   time.Time
	}{
		"nil input": {},
		"valid": {
			tSlice: TimeSlice([]time.Time{
				time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
			}),
			expectedStart: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expectedEnd:   time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expectedStart, td.tSlice.StartTime())
			assert.Equal(t, td.expectedEnd, td.tSlice.EndTime())
		})
	}
}

func TestEstimateFreq(t *testing.T) {
	testData := map[string]struct {
		tSlice   TimeSlice
		expected time.Duration
		err      error
	}{
		"estimate with nil timedataset": {
			tSlice: nil,
			err:    ErrCannotInferFreq,
		},
		"single point": {
			tSlice: TimeSlice([]time.Time{time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)}),
			err:    ErrCannotInferFreq,
		},
		"consistent frequencies": {
			tSlice: TimeSlice([]time.Time{
				time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
			}),
			expected: 24 * time.Hour,
		},
		"multiple frequencies": {
			tSlice: TimeSlice([]time.Time{
				time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 1, 0, 0, 0, time.UTC),
			}),
			expected: 24 * time.Hour,
		},
		"multiple frequencies with same counts": {
			tSlice: TimeSlice([]time.Time{
				time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 1, 0, 0, 0, time.UTC),
				time.Date(1970, 1, 3, 2, 0, 0, 0, time.UTC),
			}),
			expected: time.Hour,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			freq, err := td.tSlice.EstimateFreq()
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, freq)
		})
	}
}

func TestExtend(t *testing.T) {
	tSlice := TimeSlice(GenerateTFrom(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 3, 24*time.Hour))

	res, err := tSlice.Extend(2)
	require.NoError(t, err)
	require.Len(t, res, 5)
	assert.Equal(t, time.Date(2020, 1, 4, 0, 0, 0, 0, time.UTC), res[3])
	assert.Equal(t, time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), res[4])
	assert.Len(t, tSlice, 3, "input is not modified")

	_, err = TimeSlice(tSlice[:1]).Extend(2)
	assert.ErrorIs(t, err, ErrCannotInferFreq)

	assert.Equal(t, 48*time.Hour, tSlice.Span())
}

func TestExtendMonthly(t *testing.T) {
	testData := map[string]struct {
		tSlice   TimeSlice
		expected []time.Time
	}{
		"month start": {
			tSlice: TimeSlice{
				time.Date(2021, 10, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 11, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC),
			},
			expected: []time.Time{
				time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		"mixed intervals step by the most frequent": {
			tSlice: TimeSlice{
				time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2022, 1, 29, 0, 0, 0, 0, time.UTC),
				time.Date(2022, 2, 26, 0, 0, 0, 0, time.UTC),
				time.Date(2022, 3, 26, 0, 0, 0, 0, time.UTC),
				time.Date(2022, 4, 30, 0, 0, 0, 0, time.UTC),
			},
			expected: []time.Time{
				time.Date(2022, 5, 28, 0, 0, 0, 0, time.UTC),
			},
		},
		"daily": {
			tSlice: TimeSlice(GenerateTFrom(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), 3, 24*time.Hour)),
			expected: []time.Time{
				time.Date(2022, 1, 4, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := td.tSlice.Extend(len(td.expected))
			require.NoError(t, err)
			assert.Equal(t, td.expected, []time.Time(res[len(td.tSlice):]))
		})
	}
}
