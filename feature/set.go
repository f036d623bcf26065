package feature

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Data represents a feature with its observed values
type Data struct {
	F    Feature
	Data []float64
}

// Set represents a mapping to each feature data keyed by the string representation
// of the feature. All features in a set share the same number of observations.
type Set struct {
	m   int
	set map[string]Data
}

func NewSet() *Set {
	return &Set{set: make(map[string]Data)}
}

// Set stores the feature data, overwriting any previous feature with the same label
func (s *Set) Set(f Feature, data []float64) *Set {
	if s.set == nil {
		s.set = make(map[string]Data)
	}
	if len(s.set) == 0 {
		s.m = len(data)
	}
	s.set[f.String()] = Data{F: f, Data: data}
	return s
}

// Get returns the data of a feature and whether it exists
func (s *Set) Get(f Feature) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	d, exists := s.set[f.String()]
	return d.Data, exists
}

// Del removes a feature from the set
func (s *Set) Del(f Feature) {
	if s == nil {
		return
	}
	delete(s.set, f.String())
}

// Len returns the number of features
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.set)
}

// Rows returns the number of observations per feature
func (s *Set) Rows() int {
	if s == nil || len(s.set) == 0 {
		return 0
	}
	return s.m
}

// Update copies all features of other into the set
func (s *Set) Update(other *Set) *Set {
	if other == nil {
		return s
	}
	for _, d := range other.set {
		s.Set(d.F, d.Data)
	}
	return s
}

// FilterByType returns a new set only containing the features of the given types
func (s *Set) FilterByType(fTypes ...FeatureType) *Set {
	res := NewSet()
	if s == nil {
		return res
	}
	for _, d := range s.set {
		for _, fType := range fTypes {
			if d.F.Type() == fType {
				res.Set(d.F, d.Data)
				break
			}
		}
	}
	return res
}

// FilterByName returns a new set only containing features whose name label matches
func (s *Set) FilterByName(name string) *Set {
	res := NewSet()
	if s == nil {
		return res
	}
	for _, d := range s.set {
		if val, _ := d.F.Get("name"); val == name {
			res.Set(d.F, d.Data)
		}
	}
	return res
}

// Labels returns the sorted slice of all tracked features in the Set
func (s *Set) Labels() *Labels {
	if s == nil {
		return NewLabels(nil)
	}

	labels := make([]Feature, 0, len(s.set))
	for _, feat := range s.set {
		labels = append(labels, feat.F)
	}
	sort.Slice(
		labels,
		func(i, j int) bool {
			return labels[i].String() < labels[j].String()
		},
	)
	return NewLabels(labels)
}

// Matrix returns a matrix representation of the Set to be used with matrix methods
// The matrix has m rows representing the number of observations and n columns representing
// the number of features ordered by Labels.
func (s *Set) Matrix() *mat.Dense {
	if s.Len() == 0 || s.Rows() == 0 {
		return nil
	}

	featureLabels := s.Labels()
	m := s.Rows()
	n := featureLabels.Len()

	obs := make([]float64, m*n)
	for j, label := range featureLabels.Labels() {
		feature := s.set[label.String()]
		for i := 0; i < m && i < len(feature.Data); i++ {
			obs[n*i+j] = feature.Data[i]
		}
	}
	return mat.NewDense(m, n, obs)
}
