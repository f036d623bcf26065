package forecaster

import (
	"errors"
	"fmt"

	"github.com/aouyang1/forecast-studio/forecast/options"
	"github.com/aouyang1/forecast-studio/stats"
)

const (
	DefaultIntervalWidth  = 0.8
	DefaultResidualWindow = 100
)

var (
	ErrNegativeResidualWindow = errors.New("residual window must not be negative")
	ErrInvalidOutlierOptions  = errors.New("outlier percentiles must be ordered within [0, 1]")
)

// OutlierOptions configures how many refits are run removing points that fall outside of the
// Tukey fences of the residual
type OutlierOptions struct {
	NumPasses       int     `json:"num_passes"`
	UpperPercentile float64 `json:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile"`
	TukeyFactor     float64 `json:"tukey_factor"`
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		NumPasses:       3,
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

func (o *OutlierOptions) Validate() error {
	if o == nil {
		return nil
	}
	if o.NumPasses < 0 {
		o.NumPasses = 0
	}
	if o.LowerPercentile < 0 || o.UpperPercentile > 1 || o.LowerPercentile > o.UpperPercentile {
		return ErrInvalidOutlierOptions
	}
	return nil
}

// Options configures the series model, the uncertainty model fit on the rolling residual
// standard deviation and the width of the prediction interval.
type Options struct {
	SeriesOptions   *options.Options `json:"series_options"`
	ResidualOptions *options.Options `json:"residual_options"`

	OutlierOptions *OutlierOptions `json:"outlier_options"`
	ResidualWindow int             `json:"residual_window"`
	IntervalWidth  float64         `json:"interval_width"`
}

// NewDefaultOptions returns the series model defaults with an 80% interval. The residual model
// only tracks trend and weekly seasonality so the bands stay smooth.
func NewDefaultOptions() *Options {
	residualOpt := options.NewDefaultOptions()
	residualOpt.ChangepointOptions.AutoNumChangepoints = 5
	residualOpt.SeasonalityOptions.SeasonalityConfigs = []options.SeasonalityConfig{
		options.NewWeeklySeasonalityConfig(2),
	}

	return &Options{
		SeriesOptions:   options.NewDefaultOptions(),
		ResidualOptions: residualOpt,
		ResidualWindow:  DefaultResidualWindow,
		IntervalWidth:   DefaultIntervalWidth,
	}
}

// Validate fills in unset options with defaults and checks the remaining values
func (o *Options) Validate() error {
	if o.SeriesOptions == nil {
		o.SeriesOptions = options.NewDefaultOptions()
	}
	if o.ResidualOptions == nil {
		o.ResidualOptions = NewDefaultOptions().ResidualOptions
	}
	if o.IntervalWidth == 0 {
		o.IntervalWidth = DefaultIntervalWidth
	}
	if _, err := stats.ZScore(o.IntervalWidth); err != nil {
		return err
	}
	if o.ResidualWindow < 0 {
		return ErrNegativeResidualWindow
	}
	if o.ResidualWindow == 0 {
		o.ResidualWindow = DefaultResidualWindow
	}
	if err := o.OutlierOptions.Validate(); err != nil {
		return err
	}
	if err := o.SeriesOptions.Validate(); err != nil {
		return fmt.Errorf("invalid series options, %w", err)
	}
	if err := o.ResidualOptions.Validate(); err != nil {
		return fmt.Errorf("invalid residual options, %w", err)
	}
	return nil
}

// ZScore returns the standard normal multiplier of the residual standard deviation for the
// configured interval width
func (o *Options) ZScore() float64 {
	z, err := stats.ZScore(o.IntervalWidth)
	if err != nil {
		z, _ = stats.ZScore(DefaultIntervalWidth)
	}
	return z
}

// Copy returns a deep copy of the options
func (o *Options) Copy() *Options {
	res := *o
	if o.SeriesOptions != nil {
		res.SeriesOptions = o.SeriesOptions.Copy()
	}
	if o.ResidualOptions != nil {
		res.ResidualOptions = o.ResidualOptions.Copy()
	}
	if o.OutlierOptions != nil {
		outlier := *o.OutlierOptions
		res.OutlierOptions = &outlier
	}
	return &res
}
