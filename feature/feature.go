// Package feature describes the regressors of a forecast model. Each feature is identified by
// its string representation and can be decoded into a label map for serialization.
package feature

import "errors"

type FeatureType int

const (
	FeatureTypeChangepoint FeatureType = iota
	FeatureTypeSeasonality
	FeatureTypeTime
	FeatureTypeGrowth
	FeatureTypeEvent
)

var ErrUnknownFeatureType = errors.New("unknown feature type")

func (f FeatureType) String() string {
	switch f {
	case FeatureTypeChangepoint:
		return "changepoint"
	case FeatureTypeSeasonality:
		return "seasonality"
	case FeatureTypeTime:
		return "time"
	case FeatureTypeGrowth:
		return "growth"
	case FeatureTypeEvent:
		return "event"
	}
	return "unknown"
}

// Feature is a single regressor of a model
type Feature interface {
	String() string
	Get(string) (string, bool)
	Type() FeatureType
	Decode() map[string]string
}

// New rebuilds a feature from its type and decoded labels
func New(fType FeatureType, labels map[string]string) (Feature, error) {
	switch fType {
	case FeatureTypeChangepoint:
		return NewChangepoint(labels["name"]), nil
	case FeatureTypeSeasonality:
		return decodeSeasonality(labels)
	case FeatureTypeTime:
		return NewTime(labels["name"]), nil
	case FeatureTypeGrowth:
		return NewGrowth(labels["name"]), nil
	case FeatureTypeEvent:
		return NewEvent(labels["name"]), nil
	}
	return nil, ErrUnknownFeatureType
}
