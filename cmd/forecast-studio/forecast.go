package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	forecaster "github.com/aouyang1/forecast-studio"
	"github.com/aouyang1/forecast-studio/pipeline"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

var ErrNoForecast = errors.New("no forecast produced")

type forecastFlags struct {
	horizon    int
	out        string
	modelOut   string
	plotOut    string
	profileDir string
	verbose    bool
}

func forecastCmd() *cobra.Command {
	flags := &forecastFlags{}
	cmd := &cobra.Command{
		Use:   "forecast <file|->",
		Short: "Forecast a semicolon delimited ds;y file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.profileDir != "" {
				defer profile.Start(profile.CPUProfile, profile.ProfilePath(flags.profileDir)).Stop()
			}
			return runForecast(cmd, args[0], flags)
		},
	}
	cmd.Flags().IntVarP(&flags.horizon, "horizon", "n", pipeline.DefaultHorizon, "number of future periods to forecast [1, 365]")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "write the future forecast csv to this file")
	cmd.Flags().StringVar(&flags.modelOut, "model-out", "", "write the fit model as json to this file")
	cmd.Flags().StringVar(&flags.plotOut, "plot-out", "", "write the forecast and component charts as html to this file")
	cmd.Flags().StringVar(&flags.profileDir, "profile", "", "write a cpu profile into this directory")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "print the fit model")
	return cmd
}

func runForecast(cmd *cobra.Command, path string, flags *forecastFlags) error {
	horizon, err := pipeline.NewHorizon(flags.horizon)
	if err != nil {
		return err
	}

	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	opt, err := cfg.ForecasterOptions()
	if err != nil {
		return err
	}

	var model *forecaster.Forecaster
	factory := func() (pipeline.Model, error) {
		f, err := forecaster.New(opt)
		if err != nil {
			return nil, err
		}
		model = f
		return f, nil
	}

	p := pipeline.New(factory, cfg.IngestOptions())
	report, err := p.Run(cmd.Context(), pipeline.Inputs{
		Upload:  &pipeline.Upload{Name: filepath.Base(path), Data: data},
		Horizon: horizon,
	})
	if err != nil {
		return err
	}
	if report.Stage != pipeline.StageForecasted {
		return ErrNoForecast
	}

	w := cmd.OutOrStdout()
	if flags.verbose && model != nil {
		if err := model.TablePrint(w); err != nil {
			return err
		}
	}
	if err := writeForecastTable(w, report.Future); err != nil {
		return err
	}

	if flags.out != "" {
		if err := os.WriteFile(flags.out, report.CSV, 0o644); err != nil {
			return fmt.Errorf("unable to write forecast csv, %w", err)
		}
	}
	if flags.modelOut != "" {
		if err := writeModel(flags.modelOut, model); err != nil {
			return err
		}
	}
	if flags.plotOut != "" {
		if err := writePlots(flags.plotOut, report); err != nil {
			return err
		}
	}
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read input, %w", err)
	}
	return data, nil
}

func writeForecastTable(w io.Writer, rows pipeline.ForecastTable) error {
	table := tablewriter.NewWriter(w)
	table.Header(pipeline.ExportHeader)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(rows.Strings()); err != nil {
		return err
	}
	return table.Render()
}

func writeModel(path string, model *forecaster.Forecaster) error {
	if model == nil {
		return ErrNoForecast
	}
	m, err := model.Model()
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode model, %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}

func writePlots(path string, report *pipeline.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create plot file, %w", err)
	}
	defer f.Close()

	fig := &forecaster.Figure{Title: "Forecast", AssetsHost: cfg.Server.AssetsHost}
	fig.Charts = append(fig.Charts, report.ForecastFigure.Charts...)
	fig.Charts = append(fig.Charts, report.ComponentsFigure.Charts...)
	return fig.Render(f)
}
