// Command forecast-studio serves the forecasting page or runs a forecast from the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aouyang1/forecast-studio/config"
	"github.com/spf13/cobra"
)

// set by linker flags at build time
var version = "dev"

// v holds the configuration from defaults, environment, the config file and flags
var v = config.NewViper()

// cfg is the validated configuration loaded before any subcommand runs
var cfg *config.Config

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "forecast-studio",
	Short: "Automated time series forecasting",
	Long: `forecast-studio fits a trend and seasonality forecasting model to an uploaded
time series and produces the future values with their intervals.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "yaml config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(forecastCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	logger, err := loaded.NewLogger(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to setup logging, %w", err)
	}
	slog.SetDefault(logger)

	cfg = loaded
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "forecast-studio %s\n", version)
		},
	}
}
