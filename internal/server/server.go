// Package server serves the usage widget and its data over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/j-veylop/sense-dashboard-tui/internal/chart"
	"github.com/j-veylop/sense-dashboard-tui/internal/config"
	"github.com/j-veylop/sense-dashboard-tui/internal/logger"
	"github.com/j-veylop/sense-dashboard-tui/internal/models"
	"github.com/j-veylop/sense-dashboard-tui/internal/render"
	"github.com/j-veylop/sense-dashboard-tui/internal/services"
)

// Source provides usage data and the defaults for omitted query parameters.
type Source interface {
	Fetch(ctx context.Context, r models.TimeRange) (*models.PlotData, error)
	Config() *config.Config
}

// Server is the widget HTTP server.
type Server struct {
	src     Source
	addr    string
	httpSrv *http.Server
}

// New creates a server listening on addr.
func New(addr string, src Source) *Server {
	s := &Server{src: src, addr: addr}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	r.Get("/widget.png", s.handleWidget(render.FormatPNG))
	r.Get("/widget.svg", s.handleWidget(render.FormatSVG))
	r.Route("/api", func(r chi.Router) {
		r.Get("/usage", s.handleUsage())
		r.Get("/geometry", s.handleGeometry())
	})
	return r
}

// Start listens and serves until Shutdown.
func (s *Server) Start() error {
	logger.Info("http listen", "addr", s.addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"latency", time.Since(start),
		)
	})
}

func (s *Server) handleWidget(format render.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timeRange, err := s.parseRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		theme, err := s.parseTheme(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		var buf bytes.Buffer
		plot, err := s.src.Fetch(r.Context(), timeRange)
		if err == nil {
			err = render.RenderWidget(&buf, format, plot, theme)
		}
		if err != nil {
			logger.Warn("widget render failed", "range", timeRange, "error", err)
			buf.Reset()
			if renderErr := render.RenderError(&buf, format, widgetErrorMessage(err)); renderErr != nil {
				writeError(w, http.StatusInternalServerError, renderErr)
				return
			}
			writeImage(w, format, http.StatusBadGateway, buf.Bytes())
			return
		}

		writeImage(w, format, http.StatusOK, buf.Bytes())
	}
}

func widgetErrorMessage(err error) string {
	if errors.Is(err, services.ErrLoginRequired) || errors.Is(err, services.ErrTokenRejected) {
		return "Unable to authenticate with Sense: " + err.Error()
	}
	return "No plot data retrieved.\n\nError: " + err.Error()
}

func (s *Server) handleUsage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timeRange, err := s.parseRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		plot, err := s.src.Fetch(r.Context(), timeRange)
		if err != nil {
			writeError(w, fetchStatus(err), err)
			return
		}

		writeJSON(w, http.StatusOK, usageResponse{
			PlotData: plot,
			Peak:     plot.Usage.Peak(),
			Latest:   plot.Usage.Latest(),
			Title:    plot.Title(),
		})
	}
}

func (s *Server) handleGeometry() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timeRange, err := s.parseRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		layout, err := parseLayout(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		plot, err := s.src.Fetch(r.Context(), timeRange)
		if err != nil {
			writeError(w, fetchStatus(err), err)
			return
		}

		geom, err := render.Geometry(plot, layout)
		if errors.Is(err, chart.ErrDegenerateSeries) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		writeJSON(w, http.StatusOK, geometryResponse{
			Range:   timeRange,
			Width:   layout.CanvasWidth(),
			Height:  layout.PlotHeight,
			XInset:  layout.XInset,
			YMin:    geom.YMin,
			YMax:    geom.YMax,
			Flat:    geom.Flat,
			Fill:    geom.Fill.SVG(),
			Stroke:  geom.Stroke.SVG(),
			Anchors: geom.Anchors,
		})
	}
}

type usageResponse struct {
	*models.PlotData
	Title  string  `json:"title"`
	Peak   float64 `json:"peak"`
	Latest float64 `json:"latest"`
}

type geometryResponse struct {
	Range   models.TimeRange `json:"range"`
	Fill    string           `json:"fill"`
	Stroke  string           `json:"stroke"`
	Anchors []chart.Point    `json:"anchors"`
	Width   float64          `json:"width"`
	Height  float64          `json:"height"`
	XInset  float64          `json:"xInset"`
	YMin    float64          `json:"yMin"`
	YMax    float64          `json:"yMax"`
	Flat    bool             `json:"flat"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) parseRange(r *http.Request) (models.TimeRange, error) {
	token := r.URL.Query().Get("range")
	if token == "" {
		return s.src.Config().Range, nil
	}
	return models.ParseTimeRange(token)
}

func (s *Server) parseTheme(r *http.Request) (render.Theme, error) {
	name := r.URL.Query().Get("theme")
	if name == "" {
		name = s.src.Config().Theme
	}
	return render.ThemeByName(name)
}

// parseLayout reads optional width, height and xInset parameters. A custom
// width is the full canvas width, so no left inset applies.
func parseLayout(r *http.Request) (render.Layout, error) {
	l := render.DefaultLayout()
	q := r.URL.Query()

	if v := q.Get("width"); v != "" {
		width, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return l, fmt.Errorf("invalid width %q", v)
		}
		l.PlotWidth = width
		l.LeftInset = 0
	}
	if v := q.Get("height"); v != "" {
		height, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return l, fmt.Errorf("invalid height %q", v)
		}
		l.PlotHeight = height
	}
	if v := q.Get("xInset"); v != "" {
		inset, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return l, fmt.Errorf("invalid xInset %q", v)
		}
		l.XInset = inset
	}
	return l, nil
}

func fetchStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRange):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrLoginRequired), errors.Is(err, services.ErrTokenRejected):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func writeImage(w http.ResponseWriter, format render.Format, status int, body []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
