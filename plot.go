package forecaster

import (
	"errors"
	"io"
	"math"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/render"
)

var ErrNoResults = errors.New("no forecast results to plot")

const (
	bandStack  = "band"
	chartWidth = "900px"

	// echarts marker for a missing value
	missingValue = "-"

	// non-zero so the opacity survives json omitempty
	hiddenOpacity float32 = 0.001
	bandOpacity   float32 = 0.2
)

// referenceStart is a Sunday at the start of a calendar year used to lay out one period of
// each seasonality
var referenceStart = time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

// Figure is a set of echarts line charts that can be rendered as a standalone page or embedded
// into another page as snippets
type Figure struct {
	Title      string
	AssetsHost string
	Charts     []*charts.Line
}

// Snippets returns the html element and script of every chart
func (fig *Figure) Snippets() []render.ChartSnippet {
	snippets := make([]render.ChartSnippet, 0, len(fig.Charts))
	for _, line := range fig.Charts {
		snippets = append(snippets, line.RenderSnippet())
	}
	return snippets
}

// Render writes the charts as a standalone html page
func (fig *Figure) Render(w io.Writer) error {
	page := components.NewPage()
	page.SetPageTitle(fig.Title)
	if fig.AssetsHost != "" {
		page.SetAssetsHost(fig.AssetsHost)
	}
	for _, line := range fig.Charts {
		page.AddCharts(line)
	}
	return page.Render(w)
}

// PlotForecast overlays the observed training points with the predicted curve and a shaded band
// between the lower and upper bounds
func (f *Forecaster) PlotForecast(res *Results) (*Figure, error) {
	if !f.trained {
		return nil, ErrUntrainedForecaster
	}
	if res.Len() == 0 {
		return nil, ErrNoResults
	}

	actual := make(map[int64]float64)
	if td := f.TrainingData(); td != nil {
		for i, t := range td.T {
			actual[t.UnixNano()] = td.Y[i]
		}
	}

	n := res.Len()
	lineActual := make([]opts.LineData, 0, n)
	lineForecast := make([]opts.LineData, 0, n)
	lineLower := make([]opts.LineData, 0, n)
	lineBand := make([]opts.LineData, 0, n)
	for i, t := range res.T {
		y, exists := actual[t.UnixNano()]
		if !exists {
			y = math.NaN()
		}
		lineActual = append(lineActual, lineData(y))
		lineForecast = append(lineForecast, lineData(res.Forecast[i]))
		lineLower = append(lineLower, lineData(res.Lower[i]))
		lineBand = append(lineBand, lineData(res.Upper[i]-res.Lower[i]))
	}

	line := newLine("Forecast", formatTimes(res.T))
	line.AddSeries("Actual", lineActual,
		charts.WithLineChartOpts(opts.LineChart{Symbol: "circle", SymbolSize: 3, ShowSymbol: opts.Bool(true)}),
		charts.WithLineStyleOpts(opts.LineStyle{Opacity: hiddenOpacity}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#000000"}),
	)
	line.AddSeries("Forecast", lineForecast,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#0072b2"}),
	)
	addBand(line, lineLower, lineBand)

	return &Figure{Title: "Forecast", Charts: []*charts.Line{line}}, nil
}

// PlotComponents decomposes the forecast into a trend chart shaded by the forecast interval, one
// chart per seasonality laid out over a single period and a holidays chart when holidays are
// part of the model
func (f *Forecaster) PlotComponents(res *Results) (*Figure, error) {
	if !f.trained {
		return nil, ErrUntrainedForecaster
	}
	if res.Len() == 0 {
		return nil, ErrNoResults
	}

	n := res.Len()
	lineTrend := make([]opts.LineData, 0, n)
	lineLower := make([]opts.LineData, 0, n)
	lineBand := make([]opts.LineData, 0, n)
	for i := 0; i < n; i++ {
		unc := 0.0
		if i < len(res.Uncertainty) {
			unc = res.Uncertainty[i]
		}
		lineTrend = append(lineTrend, lineData(res.Components.Trend[i]))
		lineLower = append(lineLower, lineData(res.Components.Trend[i]-unc))
		lineBand = append(lineBand, lineData(2*unc))
	}

	xAxis := formatTimes(res.T)
	trend := newLine("Trend", xAxis)
	trend.AddSeries("Trend", lineTrend,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#0072b2"}),
	)
	addBand(trend, lineLower, lineBand)

	fig := &Figure{Title: "Forecast Components", Charts: []*charts.Line{trend}}

	if res.Components.Holidays != nil {
		fig.Charts = append(fig.Charts, seriesLine("Holidays", xAxis, res.Components.Holidays))
	}

	loc := time.UTC
	if start, _ := f.seriesForecast.TrainingWindow(); !start.IsZero() {
		loc = start.Location()
	}
	for _, seasCfg := range f.seriesForecast.SeasonalityConfigs() {
		t, labels := seasonalityPeriod(seasCfg.Period, f.freq, loc)
		y, err := f.SeasonalityComponent(seasCfg.Name, t)
		if err != nil {
			return nil, err
		}
		fig.Charts = append(fig.Charts, seriesLine(seasCfg.Name, labels, y))
	}
	return fig, nil
}

// seasonalityPeriod lays out one period of a seasonality starting on the reference Sunday. Weekly
// seasonality is labeled by weekday, yearly by day of year and daily by time of day.
func seasonalityPeriod(period, freq time.Duration, loc *time.Location) ([]time.Time, []string) {
	day := 24 * time.Hour
	step := freq
	layout := "2006-01-02 15:04"
	switch {
	case period <= day:
		step = min(freq, period/96)
		layout = "15:04"
	case period <= 7*day:
		if freq >= day {
			step = day
			layout = "Monday"
		} else {
			step = min(freq, time.Hour)
			layout = "Mon 15:04"
		}
	default:
		step = day
		layout = "January 02"
	}
	if step <= 0 {
		step = period / 100
	}

	start := time.Date(referenceStart.Year(), referenceStart.Month(), referenceStart.Day(), 0, 0, 0, 0, loc)
	n := int(period / step)
	t := make([]time.Time, 0, n)
	labels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tPnt := start.Add(time.Duration(i) * step)
		t = append(t, tPnt)
		labels = append(labels, tPnt.Format(layout))
	}
	return t, labels
}

func newLine(title string, xAxis []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis)
	return line
}

func seriesLine(title string, xAxis []string, y []float64) *charts.Line {
	data := make([]opts.LineData, 0, len(y))
	for _, v := range y {
		data = append(data, lineData(v))
	}
	line := newLine(title, xAxis)
	line.AddSeries(title, data,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#0072b2"}),
	)
	return line
}

// addBand stacks the band width on top of an invisible lower bound line so only the interval
// is shaded
func addBand(line *charts.Line, lower, band []opts.LineData) {
	line.AddSeries("Lower", lower,
		charts.WithLineChartOpts(opts.LineChart{Stack: bandStack, ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Opacity: hiddenOpacity}),
	)
	line.AddSeries("Interval", band,
		charts.WithLineChartOpts(opts.LineChart{Stack: bandStack, ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Opacity: hiddenOpacity}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Color: "#0072b2", Opacity: bandOpacity}),
	)
}

func lineData(v float64) opts.LineData {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return opts.LineData{Value: missingValue}
	}
	return opts.LineData{Value: v}
}

// formatTimes renders dates without a time of day when every time is at midnight
func formatTimes(t []time.Time) []string {
	layout := time.DateOnly
	for _, tPnt := range t {
		if tPnt.Hour() != 0 || tPnt.Minute() != 0 || tPnt.Second() != 0 {
			layout = time.DateTime
			break
		}
	}
	res := make([]string, 0, len(t))
	for _, tPnt := range t {
		res = append(res, tPnt.Format(layout))
	}
	return res
}
