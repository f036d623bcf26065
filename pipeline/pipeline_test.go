package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	forecaster "github.com/aouyang1/forecast-studio"
	"github.com/aouyang1/forecast-studio/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFit = errors.New("fit failed")

// stubModel records the calls made by the pipeline and returns a flat forecast
type stubModel struct {
	fitErr error
	fitT   []time.Time
	calls  []string
}

func (m *stubModel) Fit(t []time.Time, y []float64) error {
	m.calls = append(m.calls, "fit")
	m.fitT = t
	return m.fitErr
}

func (m *stubModel) MakeFuture(horizon int) ([]time.Time, error) {
	m.calls = append(m.calls, "make_future")
	res := append([]time.Time(nil), m.fitT...)
	last := m.fitT[len(m.fitT)-1]
	for i := 0; i < horizon; i++ {
		res = append(res, last.Add(time.Duration(i+1)*24*time.Hour))
	}
	return res, nil
}

func (m *stubModel) Predict(t []time.Time) (*forecaster.Results, error) {
	m.calls = append(m.calls, "predict")
	res := &forecaster.Results{T: t}
	for range t {
		res.Forecast = append(res.Forecast, 1)
		res.Lower = append(res.Lower, 0)
		res.Upper = append(res.Upper, 2)
	}
	return res, nil
}

func (m *stubModel) PlotForecast(res *forecaster.Results) (*forecaster.Figure, error) {
	m.calls = append(m.calls, "plot_forecast")
	return &forecaster.Figure{Title: "Forecast"}, nil
}

func (m *stubModel) PlotComponents(res *forecaster.Results) (*forecaster.Figure, error) {
	m.calls = append(m.calls, "plot_components")
	return &forecaster.Figure{Title: "Forecast Components"}, nil
}

func dailyUpload(n int) *Upload {
	var sb strings.Builder
	sb.WriteString("ds;y\n")
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%s;%.3f\n", start.AddDate(0, 0, i).Format(time.DateOnly), 10+0.1*float64(i)+float64(i%7))
	}
	return &Upload{Name: "series.csv", Data: []byte(sb.String())}
}

func TestRunAwaitingUpload(t *testing.T) {
	var created int
	p := New(func() (Model, error) {
		created++
		return &stubModel{}, nil
	}, NewDefaultIngestOptions())

	report, err := p.Run(context.Background(), Inputs{Horizon: 10})
	require.Nil(t, err)
	assert.Equal(t, StageAwaitingUpload, report.Stage)
	assert.Nil(t, report.Dataset)
	assert.Empty(t, report.Future)
	assert.Nil(t, report.ForecastFigure)
	assert.Nil(t, report.ComponentsFigure)
	assert.Empty(t, report.DataURI)
	assert.Equal(t, 0, created)
}

func TestRunSequence(t *testing.T) {
	model := &stubModel{}
	p := New(func() (Model, error) { return model, nil }, NewDefaultIngestOptions())

	report, err := p.Run(context.Background(), Inputs{Upload: dailyUpload(5), Horizon: 3})
	require.Nil(t, err)
	assert.Equal(t, StageForecasted, report.Stage)
	assert.Equal(t, []string{"fit", "make_future", "predict", "plot_forecast", "plot_components"}, model.calls)
	assert.Len(t, report.Forecast, 8)
	require.Len(t, report.Future, 3)
	assert.Equal(t, time.Date(2023, 1, 6, 0, 0, 0, 0, time.UTC), report.Future[0].DS)

	decoded, err := DecodeDataURI(report.DataURI)
	require.Nil(t, err)
	assert.Equal(t, report.CSV, decoded)
	rows, err := DecodeCSV(decoded)
	require.Nil(t, err)
	assert.Equal(t, report.Future, rows)
}

func TestRunFreshModelPerRun(t *testing.T) {
	var created int
	p := New(func() (Model, error) {
		created++
		return &stubModel{}, nil
	}, NewDefaultIngestOptions())

	for i := 0; i < 3; i++ {
		_, err := p.Run(context.Background(), Inputs{Upload: dailyUpload(5), Horizon: Horizon(i + 1)})
		require.Nil(t, err)
	}
	assert.Equal(t, 3, created)
}

func TestRunErrors(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	testData := map[string]struct {
		ctx     context.Context
		upload  *Upload
		horizon Horizon
		model   *stubModel
		stage   Stage
		err     error
	}{
		"fit error propagated": {
			upload:  dailyUpload(5),
			horizon: 1,
			model:   &stubModel{fitErr: errFit},
			stage:   StageIngested,
			err:     errFit,
		},
		"missing column": {
			upload:  &Upload{Data: []byte("date;value\n2020-01-01;1\n")},
			horizon: 1,
			model:   &stubModel{},
			stage:   StageIngested,
			err:     ErrMissingColumn,
		},
		"null timestamp": {
			upload:  &Upload{Data: []byte("ds;y\nnot-a-date;5\n2020-01-01;1\n2020-01-02;3\n")},
			horizon: 1,
			model:   &stubModel{},
			stage:   StageIngested,
			err:     ErrNullTimestamp,
		},
		"horizon zero": {
			upload:  dailyUpload(5),
			horizon: 0,
			model:   &stubModel{},
			stage:   StageIngested,
			err:     ErrHorizonOutOfRange,
		},
		"horizon over": {
			upload:  dailyUpload(5),
			horizon: 366,
			model:   &stubModel{},
			stage:   StageIngested,
			err:     ErrHorizonOutOfRange,
		},
		"empty upload": {
			upload:  &Upload{},
			horizon: 1,
			model:   &stubModel{},
			stage:   StageAwaitingUpload,
			err:     ErrEmptyUpload,
		},
		"canceled": {
			ctx:     canceled,
			upload:  dailyUpload(5),
			horizon: 1,
			model:   &stubModel{},
			stage:   StageIngested,
			err:     context.Canceled,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ctx := td.ctx
			if ctx == nil {
				ctx = context.Background()
			}
			p := New(func() (Model, error) { return td.model, nil }, NewDefaultIngestOptions())

			report, err := p.Run(ctx, Inputs{Upload: td.upload, Horizon: td.horizon})
			assert.ErrorIs(t, err, td.err)
			require.NotNil(t, report)
			assert.Equal(t, td.stage, report.Stage)
			assert.Empty(t, report.DataURI)
			if td.stage == StageIngested {
				assert.NotNil(t, report.Dataset)
			}
			if !errors.Is(td.err, errFit) {
				assert.NotContains(t, td.model.calls, "fit")
			}
		})
	}
}

func TestRunForecaster(t *testing.T) {
	p := New(ForecasterFactory(nil), NewDefaultIngestOptions())

	testData := map[string]struct {
		upload  *Upload
		horizon Horizon
		err     error
	}{
		"min horizon": {upload: dailyUpload(60), horizon: MinHorizon},
		"max horizon": {upload: dailyUpload(60), horizon: MaxHorizon},
		"single record": {
			upload:  &Upload{Data: []byte("ds;y\n2020-01-01;10\n")},
			horizon: 1,
			err:     forecaster.ErrInsufficientTrainingData,
		},
		"no records": {
			upload:  &Upload{Data: []byte("ds;y\n")},
			horizon: 1,
			err:     timedataset.ErrNoTrainingData,
		},
		"constant": {
			upload:  &Upload{Data: []byte("ds;y\n2020-01-01;1\n2020-01-02;1\n2020-01-03;1\n")},
			horizon: 1,
			err:     forecaster.ErrNoVariance,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			report, err := p.Run(context.Background(), Inputs{Upload: td.upload, Horizon: td.horizon})
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				assert.Equal(t, StageIngested, report.Stage)
				assert.Empty(t, report.Future)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, StageForecasted, report.Stage)
			require.Len(t, report.Future, int(td.horizon))

			maxT, found := report.Dataset.MaxTimestamp()
			require.True(t, found)
			for _, row := range report.Future {
				assert.True(t, row.DS.After(maxT))
				assert.LessOrEqual(t, row.YHatLower, row.YHat)
				assert.GreaterOrEqual(t, row.YHatUpper, row.YHat)
			}
			assert.NotEmpty(t, report.ForecastFigure.Charts)
			assert.NotEmpty(t, report.ComponentsFigure.Charts)
		})
	}
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "awaiting_upload", StageAwaitingUpload.String())
	assert.Equal(t, "forecasted", StageForecasted.String())
	assert.Equal(t, "stage(9)", Stage(9).String())
}
