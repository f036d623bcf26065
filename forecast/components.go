package forecast

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Components is the additive decomposition of a prediction. Trend includes the intercept.
type Components struct {
	Trend       []float64            `json:"trend"`
	Seasonality map[string][]float64 `json:"seasonality"`
	Event       []float64            `json:"event"`
}

// SeasonalityNames returns the sorted names of the seasonal components
func (c Components) SeasonalityNames() []string {
	names := make([]string, 0, len(c.Seasonality))
	for name := range c.Seasonality {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SeasonalityTotal sums all seasonal components
func (c Components) SeasonalityTotal() []float64 {
	res := make([]float64, len(c.Trend))
	for _, seas := range c.Seasonality {
		floats.Add(res, seas)
	}
	return res
}

// Sum returns the prediction composed of every component
func (c Components) Sum() []float64 {
	res := c.SeasonalityTotal()
	floats.Add(res, c.Trend)
	if c.Event != nil {
		floats.Add(res, c.Event)
	}
	return res
}
