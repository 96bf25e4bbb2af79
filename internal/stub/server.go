// Package stub is a small stand-in for the remote analysis service. It keeps
// uploaded CSV files in memory and answers simple questions about the latest
// one, enough to drive the console locally and in tests.
package stub

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Dataset is an uploaded CSV file.
type Dataset struct {
	ID         string
	Name       string
	Header     []string
	Rows       [][]string
	UploadedAt time.Time
}

// Server serves /upload and /query.
type Server struct {
	echo   *echo.Echo
	logger *zap.Logger

	mu       sync.RWMutex
	datasets map[string]*Dataset
	latest   string
}

type errorResponse struct {
	Message string `json:"message"`
}

type uploadResponse struct {
	Message   string `json:"message"`
	DatasetID string `json:"dataset_id"`
	Rows      int    `json:"rows"`
	Columns   int    `json:"columns"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	AnalysisResult string   `json:"analysis_result"`
	Insights       []string `json:"insights"`
	DatasetID      string   `json:"dataset_id"`
}

// New builds a server with its routes registered.
func New(logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	s := &Server{echo: e, logger: logger, datasets: make(map[string]*Dataset)}

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.BodyLimit("32M"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}))

	e.GET("/health", s.handleHealth)
	e.POST("/upload", s.handleUpload)
	e.POST("/query", s.handleQuery)
	return s
}

// Handler exposes the router, mostly for httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("stub analysis service listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error { return s.echo.Shutdown(ctx) }

// Latest returns the most recently uploaded dataset, if any.
func (s *Server) Latest() (*Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[s.latest]
	return ds, ok
}

func (s *Server) handleHealth(c echo.Context) error {
	s.mu.RLock()
	n := len(s.datasets)
	s.mu.RUnlock()
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "datasets": n})
}

func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no file provided in field 'file'")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file").SetInternal(err)
	}
	defer src.Close()

	header, rows, err := readCSV(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ds := &Dataset{
		ID:         uuid.NewString(),
		Name:       fh.Filename,
		Header:     header,
		Rows:       rows,
		UploadedAt: time.Now(),
	}
	s.mu.Lock()
	s.datasets[ds.ID] = ds
	s.latest = ds.ID
	s.mu.Unlock()
	s.logger.Info("dataset stored", zap.String("dataset_id", ds.ID), zap.String("name", ds.Name), zap.Int("rows", len(rows)), zap.Int("columns", len(header)))

	return c.JSON(http.StatusOK, uploadResponse{
		Message:   fmt.Sprintf("File '%s' uploaded successfully (%d rows, %d columns).", ds.Name, len(rows), len(header)),
		DatasetID: ds.ID,
		Rows:      len(rows),
		Columns:   len(header),
	})
}

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	q := strings.TrimSpace(req.Query)
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query cannot be empty")
	}
	ds, ok := s.Latest()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no dataset uploaded yet")
	}
	ans := Answer(ds, q)
	return c.JSON(http.StatusOK, queryResponse{
		AnalysisResult: ans.Text,
		Insights:       ans.Insights,
		DatasetID:      ds.ID,
	})
}

// handleError renders every error as {"message": ...}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
		if he.Internal != nil {
			s.logger.Error("request failed", zap.Int("status", code), zap.Error(he.Internal))
		}
	} else {
		s.logger.Error("request failed", zap.Error(err))
	}
	if err := c.JSON(code, errorResponse{Message: msg}); err != nil {
		s.logger.Error("write error response", zap.Error(err))
	}
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid CSV: %v", err)
	}
	if len(records) == 0 {
		return nil, nil, errors.New("CSV file is empty")
	}
	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	return header, records[1:], nil
}
