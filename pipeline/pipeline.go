// Package pipeline maps an uploaded series and a horizon to the forecast outputs. Every run starts
// from scratch: ingest, fit a fresh model on the full history, extend the timeline by the
// horizon, predict, keep the future rows and encode them for download.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	forecaster "github.com/aouyang1/forecast-studio"
)

var ErrNilModel = errors.New("model factory returned no model")

// Model is the forecasting collaborator driven by the pipeline
type Model interface {
	Fit(t []time.Time, y []float64) error
	MakeFuture(horizon int) ([]time.Time, error)
	Predict(t []time.Time) (*forecaster.Results, error)
	PlotForecast(res *forecaster.Results) (*forecaster.Figure, error)
	PlotComponents(res *forecaster.Results) (*forecaster.Figure, error)
}

// ModelFactory constructs an untrained model for a single run
type ModelFactory func() (Model, error)

// ForecasterFactory returns a factory creating forecasters with the given options
func ForecasterFactory(opt *forecaster.Options) ModelFactory {
	return func() (Model, error) {
		f, err := forecaster.New(opt)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

// Stage is how far a run progressed
type Stage int

const (
	StageAwaitingUpload Stage = iota
	StageIngested
	StageForecasted
)

func (s Stage) String() string {
	switch s {
	case StageAwaitingUpload:
		return "awaiting_upload"
	case StageIngested:
		return "ingested"
	case StageForecasted:
		return "forecasted"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Upload is the raw content of an uploaded file
type Upload struct {
	Name string
	Data []byte
}

// Inputs are everything a run depends on. A nil Upload means no file was provided yet.
type Inputs struct {
	Upload  *Upload
	Horizon Horizon
}

// Report holds the outputs of a run. Fields past Stage are only set once that stage is reached.
type Report struct {
	Stage   Stage
	Horizon Horizon

	Dataset         *Dataset
	MaxTimestamp    time.Time
	HasMaxTimestamp bool

	Forecast         ForecastTable
	Future           ForecastTable
	ForecastFigure   *forecaster.Figure
	ComponentsFigure *forecaster.Figure

	CSV     []byte
	DataURI string
}

// Pipeline runs the forecast flow with a fresh model per run
type Pipeline struct {
	factory   ModelFactory
	ingestOpt IngestOptions
}

func New(factory ModelFactory, ingestOpt IngestOptions) *Pipeline {
	if factory == nil {
		factory = ForecasterFactory(nil)
	}
	ingestOpt.setDefaults()
	return &Pipeline{factory: factory, ingestOpt: ingestOpt}
}

// Run executes every stage for the inputs. Without an upload it returns the awaiting report and no
// error. A failure after ingestion returns the error along with the report of the ingested dataset.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*Report, error) {
	report := &Report{Stage: StageAwaitingUpload, Horizon: in.Horizon}
	if in.Upload == nil {
		return report, nil
	}

	start := time.Now()
	ds, err := Ingest(bytes.NewReader(in.Upload.Data), p.ingestOpt)
	if err != nil {
		return report, fmt.Errorf("unable to ingest upload, %w", err)
	}
	report.Stage = StageIngested
	report.Dataset = ds
	report.MaxTimestamp, report.HasMaxTimestamp = ds.MaxTimestamp()
	slog.Debug("ingested upload",
		"name", in.Upload.Name,
		"rows", len(ds.Table.Rows),
		"null_timestamps", ds.NullTimestamps(),
		"invalid_values", ds.InvalidValues,
		"elapsed", time.Since(start),
	)

	if err := in.Horizon.Validate(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	t, y, err := ds.Series()
	if err != nil {
		return report, err
	}

	model, err := p.factory()
	if err != nil {
		return report, fmt.Errorf("unable to create model, %w", err)
	}
	if model == nil {
		return report, ErrNilModel
	}

	start = time.Now()
	if err := model.Fit(t, y); err != nil {
		return report, err
	}
	slog.Debug("fit model", "observations", len(t), "elapsed", time.Since(start))
	if err := ctx.Err(); err != nil {
		return report, err
	}

	future, err := model.MakeFuture(int(in.Horizon))
	if err != nil {
		return report, err
	}
	res, err := model.Predict(future)
	if err != nil {
		return report, err
	}
	report.Forecast = NewForecastTable(res)
	report.Future = Filter(report.Forecast, report.MaxTimestamp)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	forecastFig, err := model.PlotForecast(res)
	if err != nil {
		return report, err
	}
	componentsFig, err := model.PlotComponents(res)
	if err != nil {
		return report, err
	}

	csvBytes, err := EncodeCSV(report.Future)
	if err != nil {
		return report, err
	}

	report.ForecastFigure = forecastFig
	report.ComponentsFigure = componentsFig
	report.CSV = csvBytes
	report.DataURI = DataURI(csvBytes)
	report.Stage = StageForecasted
	return report, nil
}

// NewForecastTable converts forecaster results into rows
func NewForecastTable(res *forecaster.Results) ForecastTable {
	rows := make(ForecastTable, 0, res.Len())
	for i := 0; i < res.Len(); i++ {
		rows = append(rows, ForecastRow{
			DS:        res.T[i],
			YHat:      res.Forecast[i],
			YHatLower: res.Lower[i],
			YHatUpper: res.Upper[i],
		})
	}
	return rows
}
