package forecaster

import (
	"bytes"
	"testing"
	"time"

	"github.com/aouyang1/forecast-studio/forecast/options"
	"github.com/aouyang1/forecast-studio/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotForecast(t *testing.T) {
	tIn, yIn := generateDailySeries(60)

	f, err := New(nil)
	require.Nil(t, err)

	_, err = f.PlotForecast(&Results{})
	assert.ErrorIs(t, err, ErrUntrainedForecaster)

	require.Nil(t, f.Fit(tIn, yIn))
	future, err := f.MakeFuture(14)
	require.Nil(t, err)
	res, err := f.Predict(future)
	require.Nil(t, err)

	fig, err := f.PlotForecast(res)
	require.Nil(t, err)
	require.Len(t, fig.Charts, 1)

	snippets := fig.Snippets()
	require.Len(t, snippets, 1)
	assert.Contains(t, snippets[0].Option, "Forecast")
	assert.Contains(t, snippets[0].Option, "2023-01-01")
	assert.Contains(t, snippets[0].Option, `"-"`)
	assert.NotContains(t, snippets[0].Option, "NaN")
	assert.Contains(t, snippets[0].Option, `"opacity":0.001`, "actual and lower lines are hidden")
	assert.Contains(t, snippets[0].Option, `"opacity":0.2`, "interval is shaded")

	var buf bytes.Buffer
	require.Nil(t, fig.Render(&buf))
	assert.Contains(t, buf.String(), "echarts")

	_, err = f.PlotForecast(&Results{})
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestPlotComponents(t *testing.T) {
	testData := map[string]struct {
		n        int
		holidays bool
		expected int
	}{
		"trend and weekly":    {n: 60, expected: 2},
		"with holidays":       {n: 60, holidays: true, expected: 3},
		"trend weekly yearly": {n: 800, expected: 3},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			tIn, yIn := generateDailySeries(td.n)
			opt := NewDefaultOptions()
			if td.holidays {
				opt.SeriesOptions.EventOptions.Country = "US"
			}

			f, err := New(opt)
			require.Nil(t, err)
			require.Nil(t, f.Fit(tIn, yIn))

			res, err := f.Predict(tIn)
			require.Nil(t, err)
			fig, err := f.PlotComponents(res)
			require.Nil(t, err)
			require.Len(t, fig.Charts, td.expected)
			assert.Contains(t, fig.Snippets()[0].Option, "Trend")
		})
	}
}

func TestSeasonalityPeriod(t *testing.T) {
	day := 24 * time.Hour

	testData := map[string]struct {
		period     time.Duration
		freq       time.Duration
		expectedN  int
		firstLabel string
	}{
		"weekly daily samples":  {period: 7 * day, freq: day, expectedN: 7, firstLabel: "Sunday"},
		"weekly hourly samples": {period: 7 * day, freq: time.Hour, expectedN: 168, firstLabel: "Sun 00:00"},
		"daily":                 {period: day, freq: time.Hour, expectedN: 96, firstLabel: "00:00"},
		"yearly":                {period: options.NewYearlySeasonalityConfig(1).Period, freq: day, expectedN: 365, firstLabel: "January 01"},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			tRes, labels := seasonalityPeriod(td.period, td.freq, time.UTC)
			assert.Len(t, tRes, td.expectedN)
			require.Len(t, labels, td.expectedN)
			assert.Equal(t, td.firstLabel, labels[0])
		})
	}
}

func TestFormatTimes(t *testing.T) {
	day := timedataset.GenerateTFrom(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 2, 24*time.Hour)
	assert.Equal(t, []string{"2020-01-01", "2020-01-02"}, formatTimes(day))

	hour := timedataset.GenerateTFrom(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 2, time.Hour)
	assert.Equal(t, []string{"2020-01-01 00:00:00", "2020-01-01 01:00:00"}, formatTimes(hour))
}
