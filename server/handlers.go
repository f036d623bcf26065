package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/forecast-studio/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

const (
	formFile       = "file"
	formUploadB64  = "upload_b64"
	formUploadName = "upload_name"
	formHorizon    = "horizon"
)

type pageData struct {
	AssetsHost      string
	Delimiter       string
	TimestampColumn string
	ValueColumn     string

	UploadName string
	UploadB64  string
	Awaiting   bool
	Columns    []string
	Rows       [][]string

	MinHorizon int
	MaxHorizon int
	Horizon    int

	Error string

	Forecasted      bool
	IntervalPercent string
	ForecastColumns []string
	ForecastRows    [][]string
	ForecastCharts  []template.HTML
	ComponentCharts []template.HTML
	DataURI         template.URL
}

type forecastResponse struct {
	Stage        string                 `json:"stage"`
	Horizon      int                    `json:"horizon"`
	MaxTimestamp *time.Time             `json:"max_timestamp,omitempty"`
	Forecast     pipeline.ForecastTable `json:"forecast"`
	DataURI      string                 `json:"data_uri,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// index renders the page for the submitted upload and horizon
func (s *Server) index(c *gin.Context) {
	upload, err := s.readUpload(c)
	horizon := s.formHorizon(c)

	data := s.newPageData(upload, horizon)
	if err != nil {
		_ = c.Error(err)
		data.Error = err.Error()
		c.HTML(http.StatusBadRequest, "index.html", data)
		return
	}

	report, err := s.pipeline.Run(c.Request.Context(), pipeline.Inputs{Upload: upload, Horizon: horizon})
	if report != nil {
		data.fill(report)
	}

	status := http.StatusOK
	if err != nil {
		_ = c.Error(err)
		data.Error = err.Error()
		status = http.StatusUnprocessableEntity
	}
	c.HTML(status, "index.html", data)
}

// apiForecast runs the pipeline and responds with the future forecast and its csv data uri
func (s *Server) apiForecast(c *gin.Context) {
	upload, err := s.readUpload(c)
	if err != nil {
		s.respondJSON(c, http.StatusBadRequest, forecastResponse{Error: err.Error()})
		return
	}

	horizon := s.opt.DefaultHorizon
	if raw := strings.TrimSpace(c.PostForm(formHorizon)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil {
			horizon, err = pipeline.NewHorizon(n)
		}
		if err != nil {
			s.respondJSON(c, http.StatusBadRequest, forecastResponse{Error: fmt.Sprintf("invalid horizon %q, %v", raw, err)})
			return
		}
	}

	report, err := s.pipeline.Run(c.Request.Context(), pipeline.Inputs{Upload: upload, Horizon: horizon})
	resp := forecastResponse{
		Stage:    report.Stage.String(),
		Horizon:  int(horizon),
		Forecast: report.Future,
		DataURI:  report.DataURI,
	}
	if report.HasMaxTimestamp {
		resp.MaxTimestamp = &report.MaxTimestamp
	}
	if err != nil {
		_ = c.Error(err)
		resp.Error = err.Error()
		s.respondJSON(c, http.StatusUnprocessableEntity, resp)
		return
	}
	s.respondJSON(c, http.StatusOK, resp)
}

func (s *Server) respondJSON(c *gin.Context, status int, resp forecastResponse) {
	body, err := json.Marshal(resp)
	if err != nil {
		_ = c.Error(err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(forecastResponse{Stage: resp.Stage, Error: "unable to encode forecast"})
	}
	c.Data(status, "application/json; charset=utf-8", body)
}

// readUpload returns the uploaded file or the upload echoed back by a previous page. A nil upload
// means nothing was provided.
func (s *Server) readUpload(c *gin.Context) (*pipeline.Upload, error) {
	if c.Request.Method != http.MethodPost {
		return nil, nil
	}
	// the echoed upload is base64 encoded so allow for the expansion
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*s.opt.MaxUploadBytes+1<<20)

	fh, err := c.FormFile(formFile)
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("unable to open upload, %w", err)
		}
		defer f.Close()

		data, err := s.readLimited(f)
		if err != nil {
			return nil, err
		}
		return &pipeline.Upload{Name: fh.Filename, Data: data}, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, ErrUploadTooLarge
		}
		return nil, fmt.Errorf("unable to read upload, %w", err)
	}

	encoded := c.PostForm(formUploadB64)
	if encoded == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("unable to decode previous upload, %w", err)
	}
	if int64(len(data)) > s.opt.MaxUploadBytes {
		return nil, ErrUploadTooLarge
	}
	return &pipeline.Upload{Name: c.PostForm(formUploadName), Data: data}, nil
}

func (s *Server) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.opt.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("unable to read upload, %w", err)
	}
	if int64(len(data)) > s.opt.MaxUploadBytes {
		return nil, ErrUploadTooLarge
	}
	return data, nil
}

// formHorizon reads the horizon widget clamping it into range
func (s *Server) formHorizon(c *gin.Context) pipeline.Horizon {
	raw := c.PostForm(formHorizon)
	if raw == "" {
		raw = c.Query(formHorizon)
	}
	if strings.TrimSpace(raw) == "" {
		return s.opt.DefaultHorizon
	}
	return pipeline.ParseHorizon(raw)
}

func (s *Server) newPageData(upload *pipeline.Upload, horizon pipeline.Horizon) *pageData {
	data := &pageData{
		AssetsHost:      s.opt.AssetsHost,
		Delimiter:       string(s.opt.IngestOptions.Delimiter),
		TimestampColumn: s.opt.IngestOptions.TimestampColumn,
		ValueColumn:     s.opt.IngestOptions.ValueColumn,
		Awaiting:        upload == nil,
		MinHorizon:      pipeline.MinHorizon,
		MaxHorizon:      pipeline.MaxHorizon,
		Horizon:         int(horizon),
		IntervalPercent: strconv.Itoa(int(math.Round(s.opt.IntervalWidth * 100))),
	}
	if upload != nil {
		data.UploadName = upload.Name
		data.UploadB64 = base64.StdEncoding.EncodeToString(upload.Data)
	}
	return data
}

func (d *pageData) fill(report *pipeline.Report) {
	if report.Dataset != nil {
		d.Columns = report.Dataset.Table.Columns
		d.Rows = report.Dataset.DisplayRows()
	}
	if report.Stage != pipeline.StageForecasted {
		return
	}

	d.Forecasted = true
	d.ForecastColumns = pipeline.ExportHeader
	d.ForecastRows = report.Future.Strings()
	// data uri built from our own base64 encoded csv
	d.DataURI = template.URL(report.DataURI)
	for _, snippet := range report.ForecastFigure.Snippets() {
		d.ForecastCharts = append(d.ForecastCharts, template.HTML(snippet.Element+snippet.Script))
	}
	for _, snippet := range report.ComponentsFigure.Snippets() {
		d.ComponentCharts = append(d.ComponentCharts, template.HTML(snippet.Element+snippet.Script))
	}
}
