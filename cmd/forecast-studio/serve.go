package main

import (
	"log/slog"

	"github.com/aouyang1/forecast-studio/pipeline"
	"github.com/aouyang1/forecast-studio/server"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the forecasting page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opt, err := cfg.ForecasterOptions()
			if err != nil {
				return err
			}
			ingestOpt := cfg.IngestOptions()

			srv, err := server.New(
				pipeline.New(pipeline.ForecasterFactory(opt), ingestOpt),
				server.Options{
					MaxUploadBytes: cfg.Server.MaxUploadBytes,
					ReadTimeout:    cfg.Server.ReadTimeout,
					WriteTimeout:   cfg.Server.WriteTimeout,
					AssetsHost:     cfg.Server.AssetsHost,
					IntervalWidth:  opt.IntervalWidth,
					IngestOptions:  ingestOpt,
					DebugMode:      cfg.Logging.Level == "debug",
				},
			)
			if err != nil {
				return err
			}
			slog.Debug("loaded config", "server", cfg.Server, "forecast", cfg.Forecast)
			return srv.ListenAndServe(cmd.Context(), cfg.Server.Addr)
		},
	}
	cmd.Flags().String("addr", ":8501", "address to listen on")
	_ = v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}
