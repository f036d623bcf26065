// Package forecaster fits a series forecast model along with an uncertainty model of the fit
// residual. The resulting forecaster extends a history by a horizon, predicts with lower and
// upper bounds and renders the forecast and its components as charts.
package forecaster

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/aouyang1/forecast-studio/forecast"
	"github.com/aouyang1/forecast-studio/stats"
	"github.com/aouyang1/forecast-studio/timedataset"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrInsufficientTrainingData = forecast.ErrInsufficientTrainingData
	ErrNoVariance               = errors.New("training data contains no variance")
	ErrNonFiniteValue           = errors.New("training data contains an infinite value")
	ErrNoOptionsInModel         = errors.New("no options set in model")
	ErrUntrainedForecaster      = errors.New("forecaster has not been trained yet")
	ErrNegativeHorizon          = errors.New("horizon must not be negative")
	ErrNoResidualModel          = errors.New("uncertainty uses the global residual standard deviation")
)

const (
	MinResidualWindow       = 2
	MinResidualWindowFactor = 4
)

// Forecaster fits a forecast model and can be used to generate forecasts
type Forecaster struct {
	opt *Options

	seriesForecast   *forecast.Forecast
	residualForecast *forecast.Forecast
	residualStd      float64
	freq             time.Duration

	fitTrainingData *timedataset.TimeDataset
	fitResults      *Results
	residual        []float64
	trained         bool
}

// New creates a new instance of a Forecaster using the provided options. If no options are provided
// a default is used.
func New(opt *Options) (*Forecaster, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	opt = opt.Copy()
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecaster options, %w", err)
	}

	return &Forecaster{opt: opt}, nil
}

// NewFromModel creates a new instance of Forecaster from a pre-existing model. This should be generated
// from a previous forecaster call to Model().
func NewFromModel(model Model) (*Forecaster, error) {
	if model.Options == nil {
		return nil, ErrNoOptionsInModel
	}
	opt := model.Options.Copy()
	opt.SeriesOptions = model.Series.Options
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecaster options in model, %w", err)
	}

	seriesForecast, err := forecast.NewFromModel(model.Series)
	if err != nil {
		return nil, fmt.Errorf("unable to load from series model, %w", err)
	}

	f := &Forecaster{
		opt:            opt,
		seriesForecast: seriesForecast,
		residualStd:    model.ResidualStd,
		freq:           model.Frequency,
		trained:        true,
	}

	if model.Residual != nil {
		residualForecast, err := forecast.NewFromModel(*model.Residual)
		if err != nil {
			return nil, fmt.Errorf("unable to load from residual model, %w", err)
		}
		f.residualForecast = residualForecast
	}
	return f, nil
}

// Fit uses the input time dataset and fits the forecast model. Every call starts from a freshly
// initialized series and residual model.
func (f *Forecaster) Fit(t []time.Time, y []float64) error {
	td, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return fmt.Errorf("unable to create training dataset, %w", err)
	}

	observed := td.DropNaN()
	for _, v := range observed.Y {
		if math.IsInf(v, 0) {
			return ErrNonFiniteValue
		}
	}
	if len(observed.Y) < 2 {
		return ErrInsufficientTrainingData
	}
	if floats.Max(observed.Y) == floats.Min(observed.Y) {
		return ErrNoVariance
	}

	freq, err := timedataset.TimeSlice(observed.T).EstimateFreq()
	if err != nil {
		return fmt.Errorf("unable to infer sampling frequency, %w", err)
	}

	f.trained = false
	f.freq = freq
	f.fitTrainingData = td.Copy()
	f.residualForecast = nil
	f.residualStd = 0

	f.seriesForecast, err = forecast.New(f.opt.SeriesOptions)
	if err != nil {
		return fmt.Errorf("unable to initialize forecast series, %w", err)
	}

	residual, err := f.fitSeriesWithOutliers(td.T, td.Copy().Y)
	if err != nil {
		return err
	}
	f.residual = residual

	if err := f.fitResidual(td.T, residual); err != nil {
		return err
	}
	f.trained = true

	f.fitResults, err = f.Predict(td.T)
	if err != nil {
		return fmt.Errorf("unable to get predicted values from training set, %w", err)
	}

	scores := f.seriesForecast.Scores()
	slog.Debug("fit forecaster",
		"points", len(td.T),
		"frequency", f.freq,
		"residual_std", f.residualStd,
		"mse", scores.MSE,
		"r2", scores.R2,
	)
	return nil
}

func (f *Forecaster) fitSeriesWithOutliers(t []time.Time, y []float64) ([]float64, error) {
	// iterate to remove outliers
	numPasses := 0
	if f.opt.OutlierOptions != nil {
		numPasses = f.opt.OutlierOptions.NumPasses
	}

	var residual []float64
	for i := 0; i <= numPasses; i++ {
		if err := f.seriesForecast.Fit(t, y); err != nil {
			return nil, fmt.Errorf("unable to forecast series, %w", err)
		}

		residual = f.seriesForecast.Residuals()

		// break out on the last pass or if no outlier options provided
		if f.opt.OutlierOptions == nil || i == numPasses {
			break
		}

		outlierIdxs := stats.DetectOutliers(
			residual,
			f.opt.OutlierOptions.LowerPercentile,
			f.opt.OutlierOptions.UpperPercentile,
			f.opt.OutlierOptions.TukeyFactor,
		)

		// no more outliers detected with outlier options so break early
		if len(outlierIdxs) == 0 {
			break
		}
		slog.Debug("removing outliers from training data", "pass", i, "count", len(outlierIdxs))

		for _, idx := range outlierIdxs {
			y[idx] = math.NaN()
		}
	}
	return residual, nil
}

// fitResidual fits the uncertainty model on the rolling standard deviation of the residual. The
// window is not necessarily a block of continuous time but could jump across outlier points.
func (f *Forecaster) fitResidual(t []time.Time, residual []float64) error {
	residualData, err := timedataset.NewUnivariateDataset(t, residual)
	if err != nil {
		return fmt.Errorf("unable to create univariate dataset for residual, %w", err)
	}
	residualData = residualData.DropNaN()
	f.residualStd = stats.StdDev(residualData.Y)

	// limit residual window to a quarter of the resulting residual output
	window := f.opt.ResidualWindow
	if len(residualData.Y)/MinResidualWindowFactor < window {
		window = len(residualData.Y) / MinResidualWindowFactor
	}
	if window < MinResidualWindow {
		slog.Debug("too few residual samples for a rolling window, using global standard deviation",
			"samples", len(residualData.Y))
		return nil
	}

	stddevSeries, err := stats.RollingStdDev(residualData.Y, window)
	if err != nil {
		return fmt.Errorf("unable to compute rolling residual standard deviation, %w", err)
	}

	// shifting by half the residual window since computing the residual series is similar to a
	// finite impulse response filtering having a group delay of window/2.
	start := window / 2
	stddevT := residualData.T[start : start+len(stddevSeries)]
	if floats.Max(stddevSeries) == floats.Min(stddevSeries) {
		return nil
	}

	residualForecast, err := forecast.New(f.opt.ResidualOptions)
	if err != nil {
		return fmt.Errorf("unable to initialize forecast residual, %w", err)
	}
	if err := residualForecast.Fit(stddevT, stddevSeries); err != nil {
		slog.Warn("unable to fit residual model, using global standard deviation", "error", err)
		return nil
	}
	f.residualForecast = residualForecast
	return nil
}

// MakeFuture returns the training timestamps followed by horizon timestamps stepping forward by
// the inferred sampling frequency. A forecaster loaded from a model only returns the future
// timestamps since it has no training history.
func (f *Forecaster) MakeFuture(horizon int) ([]time.Time, error) {
	if !f.trained {
		return nil, ErrUntrainedForecaster
	}
	if horizon < 0 {
		return nil, ErrNegativeHorizon
	}

	if f.fitTrainingData != nil {
		t, err := timedataset.TimeSlice(f.fitTrainingData.T).Extend(horizon)
		if err != nil {
			return nil, fmt.Errorf("unable to extend training time, %w", err)
		}
		return t, nil
	}

	if f.freq <= 0 {
		return nil, timedataset.ErrCannotInferFreq
	}
	_, end := f.seriesForecast.TrainingWindow()
	t := make([]time.Time, 0, horizon)
	for i := 0; i < horizon; i++ {
		t = append(t, end.Add(time.Duration(i+1)*f.freq))
	}
	return t, nil
}

// Predict takes in any set of time samples and generates a forecast, upper, lower values per time point
func (f *Forecaster) Predict(t []time.Time) (*Results, error) {
	if !f.trained {
		return nil, ErrUntrainedForecaster
	}

	seriesRes, seriesComp, err := f.seriesForecast.Predict(t)
	if err != nil {
		return nil, fmt.Errorf("unable to predict series forecasts, %w", err)
	}

	sigma := make([]float64, len(t))
	if f.residualForecast != nil {
		residualRes, _, err := f.residualForecast.Predict(t)
		if err != nil {
			return nil, fmt.Errorf("unable to predict residual forecasts, %w", err)
		}
		copy(sigma, residualRes)
	} else {
		floats.AddConst(f.residualStd, sigma)
	}

	// cap residual predictions to be greater than or equal to 0
	for i := 0; i < len(sigma); i++ {
		if sigma[i] < 0.0 {
			sigma[i] = 0.0
		}
	}
	floats.Scale(f.opt.ZScore(), sigma)

	upper := make([]float64, len(seriesRes))
	lower := make([]float64, len(seriesRes))
	floats.AddTo(upper, seriesRes, sigma)
	floats.SubTo(lower, seriesRes, sigma)

	r := &Results{
		T:           t,
		Forecast:    seriesRes,
		Upper:       upper,
		Lower:       lower,
		Uncertainty: sigma,
		Components: Components{
			Trend:       seriesComp.Trend,
			Seasonality: seriesComp.Seasonality,
			Holidays:    seriesComp.Event,
		},
	}
	return r, nil
}

// Residuals returns the difference between the final series fit against the training data
func (f *Forecaster) Residuals() []float64 {
	return f.residual
}

// TrendComponent returns the trend component created by changepoints after fitting
func (f *Forecaster) TrendComponent() []float64 {
	return f.seriesForecast.TrendComponent()
}

// SeasonalityComponent returns a single named seasonality at the input times
func (f *Forecaster) SeasonalityComponent(name string, t []time.Time) ([]float64, error) {
	return f.seriesForecast.SeasonalityComponent(name, t)
}

// Seasonalities returns the names of the seasonalities active in the series model
func (f *Forecaster) Seasonalities() []string {
	return f.seriesForecast.Seasonalities()
}

// SeriesIntercept returns the intercept of the series fit
func (f *Forecaster) SeriesIntercept() float64 {
	return f.seriesForecast.Intercept()
}

// SeriesCoefficients returns all coefficient weight associated with the component label string
func (f *Forecaster) SeriesCoefficients() (map[string]float64, error) {
	return f.seriesForecast.Coefficients()
}

// ResidualIntercept returns the intercept of the uncertainty fit
func (f *Forecaster) ResidualIntercept() float64 {
	if f.residualForecast == nil {
		return f.residualStd
	}
	return f.residualForecast.Intercept()
}

// ResidualCoefficients returns all uncertainty coefficient weights associated with the component label string
func (f *Forecaster) ResidualCoefficients() (map[string]float64, error) {
	if f.residualForecast == nil {
		return nil, ErrNoResidualModel
	}
	return f.residualForecast.Coefficients()
}

// ResidualStd returns the standard deviation of the training residual
func (f *Forecaster) ResidualStd() float64 {
	return f.residualStd
}

// Frequency returns the sampling interval inferred from the training data
func (f *Forecaster) Frequency() time.Duration {
	return f.freq
}

// Model generates a serializeable representation of the fit options, series model, and uncertainty model. This
// can be used to initialize a new Forecaster for immediate predictions skipping the training step.
func (f *Forecaster) Model() (Model, error) {
	if !f.trained {
		return Model{}, ErrUntrainedForecaster
	}
	seriesModel, err := f.seriesForecast.Model()
	if err != nil {
		return Model{}, fmt.Errorf("unable to fetch series model, %w", err)
	}
	m := Model{
		Options:     f.opt.Copy(),
		Series:      seriesModel,
		ResidualStd: f.residualStd,
		Frequency:   f.freq,
	}
	if f.residualForecast != nil {
		residualModel, err := f.residualForecast.Model()
		if err != nil {
			return Model{}, fmt.Errorf("unable to fetch residual model, %w", err)
		}
		m.Residual = &residualModel
	}
	return m, nil
}

// TablePrint writes the series and uncertainty models as tables
func (f *Forecaster) TablePrint(w io.Writer) error {
	m, err := f.Model()
	if err != nil {
		return err
	}
	return m.TablePrint(w)
}

// SeriesModelEq returns a string representation of the fit series model represented as
// y ~ b + m1x1 + m2x2 ...
func (f *Forecaster) SeriesModelEq() (string, error) {
	return f.seriesForecast.ModelEq()
}

// ResidualModelEq returns a string representation of the fit uncertainty model represented as
// y ~ b + m1x1 + m2x2 ...
func (f *Forecaster) ResidualModelEq() (string, error) {
	if f.residualForecast == nil {
		return fmt.Sprintf("y ~ %.2f", f.residualStd), nil
	}
	return f.residualForecast.ModelEq()
}

// TrainingData returns the training data used to fit the current forecaster model
func (f *Forecaster) TrainingData() *timedataset.TimeDataset {
	return f.fitTrainingData
}

// FitResults returns the results of the fit which includes the forecast, upper, and lower values
func (f *Forecaster) FitResults() *Results {
	return f.fitResults
}
