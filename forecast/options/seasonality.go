package options

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/aouyang1/forecast-studio/feature"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

const (
	DefaultYearlyOrders = 10
	DefaultWeeklyOrders = 3
	DefaultDailyOrders  = 4

	yearPeriod = time.Duration(365.25 * 24 * float64(time.Hour))
)

var (
	ErrUnknownSeasonalityMode = errors.New("unknown seasonality mode")
	ErrDuplicateSeasonality   = errors.New("duplicate seasonality name")
)

// SeasonalityMode controls whether a seasonality is fit. Auto enables the seasonality when
// the training data spans at least two periods and is sampled more often than the period.
type SeasonalityMode string

const (
	SeasonalityAuto SeasonalityMode = "auto"
	SeasonalityOn   SeasonalityMode = "on"
	SeasonalityOff  SeasonalityMode = "off"
)

// ParseSeasonalityMode converts a string into a seasonality mode. An empty string is auto.
func ParseSeasonalityMode(s string) (SeasonalityMode, error) {
	switch SeasonalityMode(s) {
	case "", SeasonalityAuto:
		return SeasonalityAuto, nil
	case SeasonalityOn, "true":
		return SeasonalityOn, nil
	case SeasonalityOff, "false":
		return SeasonalityOff, nil
	}
	return "", fmt.Errorf("%q, %w", s, ErrUnknownSeasonalityMode)
}

// Seasonality options configures the number of seasonality components to fit for.
type SeasonalityOptions struct {
	SeasonalityConfigs []SeasonalityConfig `json:"seasonality_configs"`
}

// NewDefaultSeasonalityOptions generates a default seasonality config with yearly, weekly and
// daily seasonal components that are each enabled depending on the training data
func NewDefaultSeasonalityOptions() SeasonalityOptions {
	return SeasonalityOptions{
		SeasonalityConfigs: []SeasonalityConfig{
			NewYearlySeasonalityConfig(DefaultYearlyOrders),
			NewWeeklySeasonalityConfig(DefaultWeeklyOrders),
			NewDailySeasonalityConfig(DefaultDailyOrders),
		},
	}
}

// Validate checks that each config has a known mode and a unique name
func (s SeasonalityOptions) Validate() error {
	seen := make(map[string]struct{}, len(s.SeasonalityConfigs))
	for _, seasCfg := range s.SeasonalityConfigs {
		if _, err := ParseSeasonalityMode(string(seasCfg.Mode)); err != nil {
			return err
		}
		if _, exists := seen[seasCfg.Name]; exists {
			return fmt.Errorf("%q, %w", seasCfg.Name, ErrDuplicateSeasonality)
		}
		seen[seasCfg.Name] = struct{}{}
	}
	return nil
}

// Resolve turns every auto config on or off given the training span and sampling interval and
// drops configs that cannot generate any features.
func (s *SeasonalityOptions) Resolve(span, freq time.Duration) {
	resolved := make([]SeasonalityConfig, 0, len(s.SeasonalityConfigs))
	for _, seasCfg := range s.SeasonalityConfigs {
		if seasCfg.Period <= 0 || seasCfg.Name == "" || seasCfg.Orders <= 0 {
			continue
		}
		if seasCfg.Mode == "" || seasCfg.Mode == SeasonalityAuto {
			seasCfg.Mode = SeasonalityOff
			if span >= 2*seasCfg.Period && freq > 0 && freq < seasCfg.Period {
				seasCfg.Mode = SeasonalityOn
			}
		}
		resolved = append(resolved, seasCfg)
	}
	sort.Slice(resolved, func(i, j int) bool {
		if resolved[i].Period != resolved[j].Period {
			return resolved[i].Period > resolved[j].Period
		}
		return resolved[i].Name < resolved[j].Name
	})
	s.SeasonalityConfigs = resolved
}

// Enabled returns the configs that are not turned off
func (s SeasonalityOptions) Enabled() []SeasonalityConfig {
	var enabled []SeasonalityConfig
	for _, seasCfg := range s.SeasonalityConfigs {
		if seasCfg.Mode != SeasonalityOff && seasCfg.Orders > 0 && seasCfg.Period > 0 {
			enabled = append(enabled, seasCfg)
		}
	}
	return enabled
}

// Get returns the config with the matching name
func (s SeasonalityOptions) Get(name string) (SeasonalityConfig, bool) {
	for _, seasCfg := range s.SeasonalityConfigs {
		if seasCfg.Name == name {
			return seasCfg, true
		}
	}
	return SeasonalityConfig{}, false
}

// GenerateFourierFeatures creates the sine and cosine terms of every enabled seasonality
func (s SeasonalityOptions) GenerateFourierFeatures(tFeat *feature.Set) (*feature.Set, error) {
	x := feature.NewSet()
	for _, seasCfg := range s.Enabled() {
		seasFeatures, err := seasCfg.GenerateFeatures(tFeat)
		if err != nil {
			return nil, fmt.Errorf("unable to generate seasonality features for %q, %w", seasCfg.Name, err)
		}
		x.Update(seasFeatures)
	}
	return x, nil
}

func (s SeasonalityOptions) TablePrint(w io.Writer) error {
	if len(s.SeasonalityConfigs) == 0 {
		_, err := fmt.Fprintln(w, "Seasonality: None")
		return err
	}
	if _, err := fmt.Fprintln(w, "Seasonality:"); err != nil {
		return err
	}
	tbl := tablewriter.NewWriter(w)
	tbl.Header([]string{"Name", "Period", "Orders", "Mode"})
	tbl.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	rows := make([][]string, 0, len(s.SeasonalityConfigs))
	for _, seasCfg := range s.SeasonalityConfigs {
		rows = append(rows, []string{
			seasCfg.Name, seasCfg.Period.String(), strconv.Itoa(seasCfg.Orders), string(seasCfg.Mode),
		})
	}
	if err := tbl.Bulk(rows); err != nil {
		return err
	}
	return tbl.Render()
}

// SeasonalityConfig represents a single seasonality configuration to model. This will generate
// Fourier series of the specified period and number of orders. E.g. a period of 24*time.Hour
// with 3 orders will create 6 Fourier series of order 1, 2, 3 and for the sine/cosine components
// where order 1 will have a period of 1 day and order 2 will have a period of 12 hours.
type SeasonalityConfig struct {
	Name   string          `json:"name"`
	Orders int             `json:"orders"`
	Period time.Duration   `json:"period"`
	Mode   SeasonalityMode `json:"mode"`
}

// NewSeasonalityConfig creates a new auto seasonality config given a name, period and orders
func NewSeasonalityConfig(name string, period time.Duration, orders int) SeasonalityConfig {
	if orders < 0 {
		orders = 0
	}

	return SeasonalityConfig{
		Name:   name,
		Orders: orders,
		Period: period,
		Mode:   SeasonalityAuto,
	}
}

// NewDailySeasonalityConfig creates a daily seasonality config given a specified number of orders
func NewDailySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasDaily, 24*time.Hour, orders)
}

// NewWeeklySeasonalityConfig creates a weekly seasonality config given a specified number of orders
func NewWeeklySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasWeekly, 7*24*time.Hour, orders)
}

// NewYearlySeasonalityConfig creates a yearly seasonality config given a specified number of orders
func NewYearlySeasonalityConfig(orders int) SeasonalityConfig {
	return NewSeasonalityConfig(LabelSeasYearly, yearPeriod, orders)
}

// WithMode returns a copy of the config with the mode set
func (s SeasonalityConfig) WithMode(mode SeasonalityMode) SeasonalityConfig {
	s.Mode = mode
	return s
}

// GenerateFeatures computes the fourier terms of this seasonality from the epoch time feature
func (s SeasonalityConfig) GenerateFeatures(tFeat *feature.Set) (*feature.Set, error) {
	epoch, exists := tFeat.Get(feature.NewTime(LabelTimeEpoch))
	if !exists {
		return nil, ErrUnknownTimeFeature
	}

	period := s.Period.Seconds()
	x := feature.NewSet()
	for order := 1; order <= s.Orders; order++ {
		sinFeat := feature.NewSeasonality(s.Name, feature.FourierCompSin, order)
		cosFeat := feature.NewSeasonality(s.Name, feature.FourierCompCos, order)
		x.Set(sinFeat, sinFeat.Generate(epoch, period))
		x.Set(cosFeat, cosFeat.Generate(epoch, period))
	}
	return x, nil
}
