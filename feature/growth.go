package feature

import (
	"fmt"
	"strings"
)

const (
	GrowthLinear = "linear"
)

// Growth is the base trend of the series before any changepoints
type Growth struct {
	Name string `json:"name"`
}

func NewGrowth(name string) *Growth {
	return &Growth{name}
}

// Linear returns the linear growth feature
func Linear() *Growth {
	return NewGrowth(GrowthLinear)
}

// String returns the string representation of the growth feature
func (g Growth) String() string {
	return fmt.Sprintf("growth_%s", g.Name)
}

// Get returns the value of an arbitrary label and returns the value along with whether
// the label exists
func (g Growth) Get(label string) (string, bool) {
	switch strings.ToLower(label) {
	case "name":
		return g.Name, true
	}
	return "", false
}

// Type returns the type of this feature
func (g Growth) Type() FeatureType {
	return FeatureTypeGrowth
}

// Decode converts the feature into a map of label values
func (g Growth) Decode() map[string]string {
	return map[string]string{"name": g.Name}
}

// Generate scales the epoch so the training start maps to 0 and the training end maps to 1.
// Points outside of the training window extrapolate linearly.
func (g Growth) Generate(epoch []float64, trainStart, trainEnd float64) []float64 {
	res := make([]float64, len(epoch))
	span := trainEnd - trainStart
	if span <= 0 {
		return res
	}
	for i, e := range epoch {
		res[i] = (e - trainStart) / span
	}
	return res
}
