package forecaster

import "time"

// Results holds a prediction per time point with the interval bounds and the additive
// components of the point estimate
type Results struct {
	T           []time.Time `json:"time"`
	Forecast    []float64   `json:"forecast"`
	Upper       []float64   `json:"upper"`
	Lower       []float64   `json:"lower"`
	Uncertainty []float64   `json:"uncertainty"`
	Components  Components  `json:"components"`
}

// Components is the decomposition of the forecast. Trend includes the intercept and Holidays
// is nil when the model has no holiday or event features.
type Components struct {
	Trend       []float64            `json:"trend"`
	Seasonality map[string][]float64 `json:"seasonality"`
	Holidays    []float64            `json:"holidays,omitempty"`
}

// Len returns the number of predicted time points
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.T)
}
