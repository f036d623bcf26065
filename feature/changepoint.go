package feature

import (
	"fmt"
	"strings"
)

// Changepoint is a point in time where the slope of the trend may change. The feature is a
// ramp that is 0 before the changepoint and grows linearly after it, on the same scale as the
// linear growth feature.
type Changepoint struct {
	Name string `json:"name"`
}

func NewChangepoint(name string) *Changepoint {
	return &Changepoint{name}
}

func (c Changepoint) String() string {
	return fmt.Sprintf("chpnt_%s", c.Name)
}

func (c Changepoint) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return c.Name, true
	}
	return "", false
}

func (c Changepoint) Type() FeatureType {
	return FeatureTypeChangepoint
}

func (c Changepoint) Decode() map[string]string {
	return map[string]string{"name": c.Name}
}

// Generate creates the ramp for a changepoint at epoch chpt
func (c Changepoint) Generate(epoch []float64, chpt, trainStart, trainEnd float64) []float64 {
	res := make([]float64, len(epoch))
	span := trainEnd - trainStart
	if span <= 0 {
		return res
	}
	for i, e := range epoch {
		if e > chpt {
			res[i] = (e - chpt) / span
		}
	}
	return res
}
