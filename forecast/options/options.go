// Package options contains all forecast options for a linear fit of a univariate time series
package options

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aouyang1/forecast-studio/feature"
	"github.com/aouyang1/forecast-studio/models"
)

const (
	LabelTimeEpoch = "epoch"

	LabelSeasDaily  = "daily"
	LabelSeasWeekly = "weekly"
	LabelSeasYearly = "yearly"

	DefaultRegularization = 0.001
	DefaultIterations     = 2000
	DefaultTolerance      = 1e-5
)

var (
	ErrUnknownTimeFeature     = errors.New("unknown time feature")
	ErrNegativeRegularization = errors.New("negative regularization")
)

// Options configures a forecast by specifying changepoints, seasonality orders, events
// and a regularization parameter where higher values remove more changepoints that
// contribute the least to the fit.
type Options struct {
	ChangepointOptions ChangepointOptions `json:"changepoint_options"`
	SeasonalityOptions SeasonalityOptions `json:"seasonality_options"`
	EventOptions       EventOptions       `json:"event_options"`

	// Lasso related options. Regularization is scaled by the number of training
	// observations and only applies to changepoints.
	Regularization float64 `json:"regularization"`
	Iterations     int     `json:"iterations"`
	Tolerance      float64 `json:"tolerance"`
}

// NewDefaultOptions returns a set of default forecast options
func NewDefaultOptions() *Options {
	return &Options{
		ChangepointOptions: NewDefaultChangepointOptions(),
		SeasonalityOptions: NewDefaultSeasonalityOptions(),
		Regularization:     DefaultRegularization,
		Iterations:         DefaultIterations,
		Tolerance:          DefaultTolerance,
	}
}

// Validate checks the options for invalid values and fills in defaults for unset
// solver parameters
func (o *Options) Validate() error {
	if o.Regularization < 0 {
		return ErrNegativeRegularization
	}
	if o.Iterations == 0 {
		o.Iterations = DefaultIterations
	}
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
	if err := o.ChangepointOptions.Validate(); err != nil {
		return fmt.Errorf("invalid changepoint options, %w", err)
	}
	if err := o.SeasonalityOptions.Validate(); err != nil {
		return fmt.Errorf("invalid seasonality options, %w", err)
	}
	if err := o.EventOptions.Validate(); err != nil {
		return fmt.Errorf("invalid event options, %w", err)
	}
	return nil
}

// NewLassoOptions builds the solver options for the given design matrix labels. Only
// changepoints are penalized so the remaining features fit as ordinary least squares.
func (o *Options) NewLassoOptions(labels *feature.Labels, nObs int) *models.LassoOptions {
	lassoOpt := models.NewDefaultLassoOptions()
	lassoOpt.FitIntercept = true
	lassoOpt.Lambda = o.Regularization * float64(nObs)

	lassoOpt.Iterations = o.Iterations
	if o.Iterations == 0 {
		lassoOpt.Iterations = DefaultIterations
	}

	lassoOpt.Tolerance = o.Tolerance
	if o.Tolerance == 0 {
		lassoOpt.Tolerance = DefaultTolerance
	}

	penalties := make([]float64, labels.Len())
	for i, label := range labels.Labels() {
		if label.Type() == feature.FeatureTypeChangepoint {
			penalties[i] = 1.0
		}
	}
	lassoOpt.PenaltyFactors = penalties
	return lassoOpt
}

// GenerateTimeFeatures creates the epoch time feature along with the linear growth feature
// scaled to the training window
func (o *Options) GenerateTimeFeatures(t []time.Time, trainStartTime, trainEndTime time.Time) *feature.Set {
	tFeat := feature.NewSet()

	timeFeat := feature.NewTime(LabelTimeEpoch)
	epoch := timeFeat.Generate(t)
	tFeat.Set(timeFeat, epoch)

	start, end := toEpoch(trainStartTime), toEpoch(trainEndTime)
	if end > start {
		growthFeat := feature.Linear()
		tFeat.Set(growthFeat, growthFeat.Generate(epoch, start, end))
	}
	return tFeat
}

// GenerateFeatures creates every model feature for the input times. The time features are
// returned separately since they are not regressors.
func (o *Options) GenerateFeatures(t []time.Time, trainStartTime, trainEndTime time.Time) (*feature.Set, error) {
	if o == nil {
		o = NewDefaultOptions()
	}
	tFeat := o.GenerateTimeFeatures(t, trainStartTime, trainEndTime)

	seasFeat, err := o.SeasonalityOptions.GenerateFourierFeatures(tFeat)
	if err != nil {
		return nil, err
	}

	epoch, _ := tFeat.Get(feature.NewTime(LabelTimeEpoch))
	x := feature.NewSet()
	x.Update(tFeat.FilterByType(feature.FeatureTypeGrowth))
	x.Update(seasFeat)
	x.Update(o.ChangepointOptions.GenerateFeatures(epoch, trainStartTime, trainEndTime))
	x.Update(o.EventOptions.GenerateFeatures(t))
	return x, nil
}

// TablePrint writes a summary of the options
func (o *Options) TablePrint(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Regularization: %g\n", o.Regularization); err != nil {
		return err
	}
	if err := o.SeasonalityOptions.TablePrint(w); err != nil {
		return err
	}
	if err := o.ChangepointOptions.TablePrint(w); err != nil {
		return err
	}
	return o.EventOptions.TablePrint(w)
}

func toEpoch(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Copy returns a deep copy of the options so a forecast can resolve auto settings
// without modifying the caller's options
func (o *Options) Copy() *Options {
	if o == nil {
		return nil
	}
	res := *o
	res.ChangepointOptions.Changepoints = append([]Changepoint(nil), o.ChangepointOptions.Changepoints...)
	res.SeasonalityOptions.SeasonalityConfigs = append([]SeasonalityConfig(nil), o.SeasonalityOptions.SeasonalityConfigs...)
	res.EventOptions.Events = append([]Event(nil), o.EventOptions.Events...)
	return &res
}
