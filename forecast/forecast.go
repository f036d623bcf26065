// Package forecast fits a single additive linear model of a univariate time series composed of
// a piecewise linear trend, fourier seasonalities and event masks.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/forecast-studio/feature"
	"github.com/aouyang1/forecast-studio/forecast/options"
	mat_ "github.com/aouyang1/forecast-studio/mat"
	"github.com/aouyang1/forecast-studio/models"
	"github.com/aouyang1/forecast-studio/timedataset"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrUninitializedForecast    = errors.New("uninitialized forecast")
	ErrInsufficientTrainingData = errors.New("insufficient training data after removing Nans")
	ErrNoModelCoefficients      = errors.New("no model coefficients from fit")
	ErrUntrainedForecast        = errors.New("forecast has not been trained yet")
	ErrUnknownSeasonality       = errors.New("unknown seasonality")
)

// Forecast represents a single forecast model of a time series. This is a linear model using
// coordinate descent to calculate the weights. This will decompose the series into a trend
// (intercept, growth and changepoints), seasonal components and events.
type Forecast struct {
	opt    *options.Options
	scores *Scores // score calculations after training

	// model coefficients
	fLabels *feature.Labels

	trainStartTime  time.Time
	trainEndTime    time.Time
	residual        []float64
	trainComponents Components

	coef      []float64
	intercept float64
	trained   bool
}

// New creates a new forecast instance with the given options. If none are provided, a default
// is used. The options are copied since fitting resolves the auto settings.
func New(opt *options.Options) (*Forecast, error) {
	if opt == nil {
		opt = options.NewDefaultOptions()
	}
	opt = opt.Copy()
	if err := opt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecast options, %w", err)
	}

	return &Forecast{opt: opt}, nil
}

// NewFromModel creates a new forecast instance given a forecast Model to initialize. This
// instance can be used for inferrence immediately and does not need to be trained again.
func NewFromModel(model Model) (*Forecast, error) {
	labels, err := model.Weights.FeatureLabels()
	if err != nil {
		return nil, err
	}

	opt := model.Options
	if opt == nil {
		opt = options.NewDefaultOptions()
	}

	f := &Forecast{
		opt:            opt.Copy(),
		fLabels:        feature.NewLabels(labels),
		trainStartTime: model.TrainStartTime,
		trainEndTime:   model.TrainEndTime,
		intercept:      model.Weights.Intercept,
		coef:           model.Weights.Coefficients(),
		scores:         model.Scores,
		trained:        true,
	}
	return f, nil
}

// Fit takes the input training data and fits a forecast model for possible changepoints,
// seasonal components, events and intercept. NaN values are dropped from the fit.
func (f *Forecast) Fit(t []time.Time, y []float64) error {
	if f == nil {
		return ErrUninitializedForecast
	}

	trainingData, err := timedataset.NewUnivariateDataset(t, y)
	if err != nil {
		return err
	}

	// remove any NaNs from training set
	fitData := trainingData.DropNaN()
	if len(fitData.T) <= 1 {
		return ErrInsufficientTrainingData
	}

	tSlice := timedataset.TimeSlice(fitData.T)
	f.trainStartTime = tSlice.StartTime()
	f.trainEndTime = tSlice.EndTime()

	freq, err := tSlice.EstimateFreq()
	if err != nil {
		return fmt.Errorf("unable to estimate training frequency, %w", err)
	}
	f.opt.SeasonalityOptions.Resolve(tSlice.Span(), freq)
	f.opt.ChangepointOptions.GenerateAutoChangepoints(fitData.T)

	// generate features
	x, err := f.opt.GenerateFeatures(fitData.T, f.trainStartTime, f.trainEndTime)
	if err != nil {
		return err
	}
	f.fLabels = x.Labels()

	// scale the target so regularization is independent of the magnitude of the series
	scale := floats.Norm(fitData.Y, math.Inf(1))
	if scale == 0 {
		scale = 1.0
	}
	yScaled := make([]float64, len(fitData.Y))
	floats.ScaleTo(yScaled, 1.0/scale, fitData.Y)

	yMx, err := mat_.NewColumn(yScaled)
	if err != nil {
		return err
	}

	model, err := models.NewLassoRegression(f.opt.NewLassoOptions(f.fLabels, len(yScaled)))
	if err != nil {
		return err
	}
	if err := model.Fit(x.Matrix(), yMx); err != nil {
		return fmt.Errorf("unable to fit model, %w", err)
	}

	f.intercept = model.Intercept() * scale
	f.coef = model.Coef()
	floats.Scale(scale, f.coef)
	f.trained = true

	// use input training to include NaNs
	predicted, comp, err := f.Predict(trainingData.T)
	if err != nil {
		return err
	}
	f.trainComponents = comp

	scores, err := NewScores(predicted, trainingData.Y)
	if err != nil {
		return err
	}
	f.scores = scores

	residual := make([]float64, len(trainingData.T))
	floats.SubTo(residual, trainingData.Y, predicted)
	f.residual = residual

	return nil
}

// Predict takes a slice of times in any order and produces the predicted value for those
// times given a pre-trained model along with the decomposed components.
func (f *Forecast) Predict(t []time.Time) ([]float64, Components, error) {
	if f == nil {
		return nil, Components{}, ErrUninitializedForecast
	}

	if !f.trained {
		return nil, Components{}, ErrUntrainedForecast
	}

	// generate features
	x, err := f.opt.GenerateFeatures(t, f.trainStartTime, f.trainEndTime)
	if err != nil {
		return nil, Components{}, err
	}

	n := len(t)
	comp := Components{
		Trend:       make([]float64, n),
		Seasonality: make(map[string][]float64),
	}
	floats.AddConst(f.intercept, comp.Trend)
	for _, seasCfg := range f.opt.SeasonalityOptions.Enabled() {
		comp.Seasonality[seasCfg.Name] = make([]float64, n)
	}

	for i, label := range f.fLabels.Labels() {
		w := f.coef[i]
		if w == 0 {
			continue
		}
		data, exists := x.Get(label)
		if !exists {
			continue
		}

		switch label.Type() {
		case feature.FeatureTypeGrowth, feature.FeatureTypeChangepoint:
			floats.AddScaled(comp.Trend, w, data)
		case feature.FeatureTypeSeasonality:
			name, _ := label.Get("name")
			seas, exists := comp.Seasonality[name]
			if !exists {
				seas = make([]float64, n)
				comp.Seasonality[name] = seas
			}
			floats.AddScaled(seas, w, data)
		case feature.FeatureTypeEvent:
			if comp.Event == nil {
				comp.Event = make([]float64, n)
			}
			floats.AddScaled(comp.Event, w, data)
		}
	}

	return comp.Sum(), comp, nil
}

// SeasonalityComponent returns the contribution of a single named seasonality at the input
// times
func (f *Forecast) SeasonalityComponent(name string, t []time.Time) ([]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}
	if !f.trained {
		return nil, ErrUntrainedForecast
	}

	seasCfg, exists := f.opt.SeasonalityOptions.Get(name)
	if !exists {
		return nil, fmt.Errorf("%q, %w", name, ErrUnknownSeasonality)
	}

	tFeat := feature.NewSet()
	timeFeat := feature.NewTime(options.LabelTimeEpoch)
	tFeat.Set(timeFeat, timeFeat.Generate(t))
	x, err := seasCfg.GenerateFeatures(tFeat)
	if err != nil {
		return nil, err
	}

	res := make([]float64, len(t))
	for _, label := range x.Labels().Labels() {
		idx, exists := f.fLabels.Index(label)
		if !exists {
			continue
		}
		data, _ := x.Get(label)
		floats.AddScaled(res, f.coef[idx], data)
	}
	return res, nil
}

// Seasonalities returns the names of the fit seasonalities
func (f *Forecast) Seasonalities() []string {
	if f == nil {
		return nil
	}
	var names []string
	for _, seasCfg := range f.opt.SeasonalityOptions.Enabled() {
		names = append(names, seasCfg.Name)
	}
	return names
}

// SeasonalityConfigs returns the resolved seasonality configurations used by the fit
func (f *Forecast) SeasonalityConfigs() []options.SeasonalityConfig {
	if f == nil {
		return nil
	}
	return f.opt.SeasonalityOptions.Enabled()
}

// HasEvents reports whether the model carries any event or holiday feature
func (f *Forecast) HasEvents() bool {
	if f == nil || f.fLabels == nil {
		return false
	}
	for _, label := range f.fLabels.Labels() {
		if label.Type() == feature.FeatureTypeEvent {
			return true
		}
	}
	return false
}

// FeatureLabels returns the slice of feature labels in the order of the coefficients
func (f *Forecast) FeatureLabels() []feature.Feature {
	if f == nil {
		return nil
	}

	return f.fLabels.Labels()
}

// Coefficients returns a forecast model map of coefficients keyed by the string
// representation of each feature label
func (f *Forecast) Coefficients() (map[string]float64, error) {
	if f == nil {
		return nil, ErrUninitializedForecast
	}

	labels := f.fLabels.Labels()
	if len(labels) == 0 || len(f.coef) == 0 {
		return nil, ErrNoModelCoefficients
	}
	coef := make(map[string]float64)
	for i := 0; i < len(f.coef); i++ {
		coef[labels[i].String()] = f.coef[i]
	}
	return coef, nil
}

// Intercept returns the intercept of the forecast model
func (f *Forecast) Intercept() float64 {
	if f == nil {
		return 0
	}
	return f.intercept
}

// TrainingWindow returns the first and last non-NaN training times
func (f *Forecast) TrainingWindow() (time.Time, time.Time) {
	if f == nil {
		return time.Time{}, time.Time{}
	}
	return f.trainStartTime, f.trainEndTime
}

// Model returns the serializeable format of the forecast model composing of the
// forecast options, intercept, coefficients with their feature labels, and the
// model fit scores
func (f *Forecast) Model() (Model, error) {
	if f == nil {
		return Model{}, ErrUninitializedForecast
	}
	if !f.trained {
		return Model{}, ErrUntrainedForecast
	}

	fws := make([]FeatureWeight, 0, len(f.coef))
	labels := f.fLabels.Labels()
	for i, c := range f.coef {
		fws = append(fws, NewFeatureWeight(labels[i], c))
	}
	w := Weights{
		Intercept: f.intercept,
		Coef:      fws,
	}
	m := Model{
		TrainStartTime: f.trainStartTime,
		TrainEndTime:   f.trainEndTime,
		Options:        f.opt.Copy(),
		Weights:        w,
		Scores:         f.scores,
	}
	return m, nil
}

// ModelEq returns a string representation of the model linear equation in the format of
// y ~ b + m1x1 + m2x2 + ...
func (f *Forecast) ModelEq() (string, error) {
	if f == nil {
		return "", ErrUninitializedForecast
	}

	eq := "y ~ "

	coef, err := f.Coefficients()
	if err != nil {
		return "", err
	}

	eq += fmt.Sprintf("%.2f", f.Intercept())
	labels := f.fLabels.Labels()
	for i := 0; i < len(f.coef); i++ {
		w := coef[labels[i].String()]
		if w == 0 {
			continue
		}
		eq += fmt.Sprintf("+%.2f*%s", w, labels[i])
	}
	return eq, nil
}

// Scores returns the fit scores for evaluating how well the resulting model
// fit the training data
func (f *Forecast) Scores() Scores {
	if f == nil {
		return Scores{}
	}
	if f.scores == nil {
		return Scores{}
	}
	return *f.scores
}

// Residuals returns a slice of values representing the difference between the
// training data and the fit data
func (f *Forecast) Residuals() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.residual))
	copy(res, f.residual)
	return res
}

// TrendComponent represents the overall trend component of the model which is determined
// by the intercept, growth and changepoints.
func (f *Forecast) TrendComponent() []float64 {
	if f == nil {
		return nil
	}
	res := make([]float64, len(f.trainComponents.Trend))
	copy(res, f.trainComponents.Trend)
	return res
}

// TrainSeasonality represents the overall seasonal component of the model over the
// training data
func (f *Forecast) TrainSeasonality() []float64 {
	if f == nil {
		return nil
	}
	return f.trainComponents.SeasonalityTotal()
}
