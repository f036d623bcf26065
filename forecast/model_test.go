package forecast

import (
	"bytes"
	"testing"
	"time"

	"github.com/aouyang1/forecast-studio/feature"
	"github.com/aouyang1/forecast-studio/forecast/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelTablePrint(t *testing.T) {
	testData := map[string]struct {
		m        Model
		expected []string
	}{
		"no input": {
			expected: []string{
				"Forecast:",
				"Training Window: 0001-01-01T00:00:00Z - 0001-01-01T00:00:00Z",
				"Weights:",
				"intercept",
			},
		},
		"with scores and options": {
			m: Model{
				TrainStartTime: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
				TrainEndTime:   time.Date(1970, 1, 3, 0, 0, 0, 0, time.UTC),
				Options: &options.Options{
					Regularization: 1.0,
					ChangepointOptions: options.ChangepointOptions{
						Changepoints: []options.Changepoint{
							options.NewChangepoint("c0", time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC)),
						},
					},
				},
				Scores: &Scores{
					MAPE: 0.1234,
					MSE:  1.2345,
					R2:   0.0123,
				},
				Weights: Weights{
					Intercept: 3.0,
					Coef: []FeatureWeight{
						NewFeatureWeight(feature.NewChangepoint("c0"), 1.5),
						NewFeatureWeight(feature.Linear(), 0),
					},
				},
			},
			expected: []string{
				"Training Window: 1970-01-01T00:00:00Z - 1970-01-03T00:00:00Z",
				"Regularization: 1",
				"MAPE: 0.123    MSE: 1.234    R2: 0.012",
				"c0",
				"1.500",
				"3.000",
				"...",
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.Nil(t, td.m.TablePrint(&buf))
			for _, exp := range td.expected {
				assert.Contains(t, buf.String(), exp)
			}
		})
	}
}

func TestWeightsFeatureLabels(t *testing.T) {
	w := Weights{
		Intercept: 1.0,
		Coef: []FeatureWeight{
			NewFeatureWeight(feature.NewSeasonality("weekly", feature.FourierCompSin, 1), 0.5),
			NewFeatureWeight(feature.NewEvent("Christmas_Day"), 2.0),
		},
	}

	labels, err := w.FeatureLabels()
	require.Nil(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "seas_weekly_01_sin", labels[0].String())
	assert.Equal(t, "event_Christmas_Day", labels[1].String())
	assert.Equal(t, []float64{0.5, 2.0}, w.Coefficients())

	w.Coef = append(w.Coef, FeatureWeight{Type: feature.FeatureType(99)})
	_, err = w.FeatureLabels()
	assert.ErrorIs(t, err, ErrUnknownFeatureType)
}
