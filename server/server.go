// Package server serves the forecast page and a json api. Every request runs the whole pipeline
// from the submitted inputs; the upload is echoed back as a hidden field so changing the horizon
// re-runs the forecast without selecting the file again.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/aouyang1/forecast-studio/pipeline"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	DefaultMaxUploadBytes = 32 << 20
	DefaultAssetsHost     = "https://go-echarts.github.io/go-echarts-assets/assets/"
	shutdownTimeout       = 10 * time.Second
)

var ErrUploadTooLarge = errors.New("upload exceeds the maximum size")

// Options configures the http server
type Options struct {
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AssetsHost     string
	IntervalWidth  float64
	IngestOptions  pipeline.IngestOptions
	DefaultHorizon pipeline.Horizon
	DebugMode      bool
}

func (o *Options) setDefaults() {
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if o.AssetsHost == "" {
		o.AssetsHost = DefaultAssetsHost
	}
	if o.DefaultHorizon == 0 {
		o.DefaultHorizon = pipeline.DefaultHorizon
	}
	if o.IngestOptions.Delimiter == 0 {
		o.IngestOptions = pipeline.NewDefaultIngestOptions()
	}
}

// Server runs the pipeline for browser and api requests
type Server struct {
	opt      Options
	pipeline *pipeline.Pipeline
	tmpl     *template.Template
	engine   *gin.Engine
}

func New(p *pipeline.Pipeline, opt Options) (*Server, error) {
	opt.setDefaults()

	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("unable to parse templates, %w", err)
	}

	if !opt.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		opt:      opt,
		pipeline: p,
		tmpl:     tmpl,
	}
	s.engine = s.setupRouter()
	return s, nil
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = s.opt.MaxUploadBytes
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(s.tmpl)

	r.GET("/", s.index)
	r.POST("/", s.index)

	api := r.Group("/api")
	api.POST("/forecast", s.apiForecast)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

// Handler returns the http handler of every route
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until the context is canceled and then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.opt.ReadTimeout,
		WriteTimeout: s.opt.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs each request once it completes
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"errors", c.Errors.ByType(gin.ErrorTypePrivate).String(),
		)
	}
}
