package options

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aouyang1/forecast-studio/feature"
	"github.com/olekukonko/tablewriter"
)

var (
	DefaultAutoNumChangepoints = 25
	DefaultChangepointRange    = 0.8
)

var (
	ErrNegativeChangepoints = errors.New("negative number of changepoints")
	ErrChangepointRange     = errors.New("changepoint range must be in (0, 1]")
)

// Changepoint describes a point in time where the trend is allowed to change its slope
type Changepoint struct {
	T    time.Time `json:"time"`
	Name string    `json:"name"`
}

func NewChangepoint(name string, t time.Time) Changepoint {
	return Changepoint{t, name}
}

// ChangepointOptions configures the changepoint fit to either use auto-detection
// by placing N changepoints evenly across the first Range fraction of the training
// observations or the explicitly provided changepoints. Auto changepoints are the only
// regularized features so a higher regularization keeps fewer of them.
type ChangepointOptions struct {
	Changepoints        []Changepoint `json:"changepoints"`
	Auto                bool          `json:"auto"`
	AutoNumChangepoints int           `json:"auto_num_changepoints"`
	Range               float64       `json:"range"`
}

// NewDefaultChangepointOptions generates a set of default changepoint options
func NewDefaultChangepointOptions() ChangepointOptions {
	return ChangepointOptions{
		Auto:                true,
		AutoNumChangepoints: DefaultAutoNumChangepoints,
		Range:               DefaultChangepointRange,
	}
}

func (c ChangepointOptions) Validate() error {
	if c.AutoNumChangepoints < 0 {
		return ErrNegativeChangepoints
	}
	if c.Range < 0 || c.Range > 1 {
		return fmt.Errorf("got %.3f, %w", c.Range, ErrChangepointRange)
	}
	return nil
}

// GenerateAutoChangepoints places changepoints at evenly spaced training observations
// within the changepoint range excluding the first observation. The number of changepoints
// is reduced when there are not enough observations. Any existing changepoints are replaced.
func (c *ChangepointOptions) GenerateAutoChangepoints(t []time.Time) []Changepoint {
	if !c.Auto {
		return c.Changepoints
	}

	n := c.AutoNumChangepoints
	chptRange := c.Range
	if chptRange == 0 {
		chptRange = DefaultChangepointRange
	}

	histSize := int(math.Floor(float64(len(t)) * chptRange))
	if n+1 > histSize {
		n = histSize - 1
	}
	if n <= 0 {
		c.Changepoints = nil
		return nil
	}

	chpts := make([]Changepoint, 0, n)
	step := float64(histSize-1) / float64(n)
	for i := 1; i <= n; i++ {
		idx := int(math.Round(step * float64(i)))
		chpts = append(chpts, NewChangepoint(fmt.Sprintf("auto_%02d", i-1), t[idx]))
	}

	c.Changepoints = chpts
	return chpts
}

// GenerateFeatures creates a ramp feature per changepoint. Changepoints outside of the training
// window are skipped since they cannot be fit.
func (c ChangepointOptions) GenerateFeatures(epoch []float64, trainStartTime, trainEndTime time.Time) *feature.Set {
	feat := feature.NewSet()
	start, end := toEpoch(trainStartTime), toEpoch(trainEndTime)
	for i, chpt := range c.Changepoints {
		if chpt.T.After(trainEndTime) || !chpt.T.After(trainStartTime) {
			continue
		}
		name := chpt.Name
		if name == "" {
			name = fmt.Sprintf("%02d", i)
		}
		chptFeat := feature.NewChangepoint(name)
		feat.Set(chptFeat, chptFeat.Generate(epoch, toEpoch(chpt.T), start, end))
	}
	return feat
}

func (c ChangepointOptions) TablePrint(w io.Writer) error {
	if len(c.Changepoints) == 0 {
		_, err := fmt.Fprintln(w, "Changepoints: None")
		return err
	}
	if _, err := fmt.Fprintln(w, "Changepoints:"); err != nil {
		return err
	}
	tbl := tablewriter.NewWriter(w)
	tbl.Header([]string{"Name", "Datetime"})
	rows := make([][]string, 0, len(c.Changepoints))
	for _, chpt := range c.Changepoints {
		rows = append(rows, []string{chpt.Name, chpt.T.Format(time.RFC3339)})
	}
	if err := tbl.Bulk(rows); err != nil {
		return err
	}
	return tbl.Render()
}
