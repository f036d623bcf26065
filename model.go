package forecaster

import (
	"fmt"
	"io"
	"time"

	"github.com/aouyang1/forecast-studio/forecast"
)

// Model is the serializeable form of a fit forecaster. Residual is nil when the uncertainty
// falls back to the global residual standard deviation.
type Model struct {
	Options     *Options        `json:"options"`
	Series      forecast.Model  `json:"series_model"`
	Residual    *forecast.Model `json:"residual_model,omitempty"`
	ResidualStd float64         `json:"residual_std"`
	Frequency   time.Duration   `json:"frequency"`
}

func (m Model) TablePrint(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Sampling Frequency: %s    Interval Width: %.2f\n",
		m.Frequency, m.intervalWidth()); err != nil {
		return err
	}
	if err := m.Series.TablePrint(w); err != nil {
		return err
	}
	if m.Residual == nil {
		_, err := fmt.Fprintf(w, "Uncertainty:\nResidual Std: %.3f\n", m.ResidualStd)
		return err
	}
	if _, err := fmt.Fprintln(w, "Uncertainty:"); err != nil {
		return err
	}
	return m.Residual.TablePrint(w)
}

func (m Model) intervalWidth() float64 {
	if m.Options == nil {
		return DefaultIntervalWidth
	}
	return m.Options.IntervalWidth
}
