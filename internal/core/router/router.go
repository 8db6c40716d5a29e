package router

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/uk-towns-map/internal/controls"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/model"
	"github.com/mohammed-shakir/uk-towns-map/internal/core/observability"
	"github.com/mohammed-shakir/uk-towns-map/internal/mapview"
	"github.com/mohammed-shakir/uk-towns-map/internal/towns"
)

// MapService is the map state the handlers drive.
type MapService interface {
	Hover(town string, x, y float64) bool
	Unhover()
	State() mapview.State
	WriteSVG(w io.Writer) error
	WritePNG(w io.Writer) error
}

//go:embed page.html
var pageFS embed.FS

var pageTmpl = template.Must(template.ParseFS(pageFS, "page.html"))

type handlers struct {
	logger   *slog.Logger
	maps     MapService
	controls *controls.Controls
}

// Mount registers the page, map and api routes on r.
func Mount(r chi.Router, logger *slog.Logger, maps MapService, ctl *controls.Controls) {
	h := &handlers{logger: logger, maps: maps, controls: ctl}

	r.Get("/", instrument("/", h.page))
	r.Get("/map.svg", instrument("/map.svg", h.svg))
	r.Get("/map.png", instrument("/map.png", h.png))

	r.Route("/api", func(r chi.Router) {
		r.Get("/controls", instrument("/api/controls", h.getControls))
		r.Post("/controls", instrument("/api/controls", h.setControls))
		r.Post("/reload", instrument("/api/reload", h.reload))
		r.Post("/hover", instrument("/api/hover", h.hover))
		r.Post("/unhover", instrument("/api/unhover", h.unhover))
		r.Get("/state", instrument("/api/state", h.state))
	})
}

// instrument records status and latency under a fixed route label.
func instrument(route string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		fn(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

type pageData struct {
	Controls controls.State
	Modes    []model.DisplayMode
	Map      template.HTML
}

func (h *handlers) page(w http.ResponseWriter, r *http.Request) {
	var svg bytes.Buffer
	if err := h.maps.WriteSVG(&svg); err != nil {
		h.logger.ErrorContext(r.Context(), "render svg", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	var out bytes.Buffer
	data := pageData{
		Controls: h.controls.State(),
		Modes:    model.Modes,
		Map:      template.HTML(svg.String()), // text content is escaped by the svg writer
	}
	if err := pageTmpl.Execute(&out, data); err != nil {
		h.logger.ErrorContext(r.Context(), "render page", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = out.WriteTo(w)
}

func (h *handlers) svg(w http.ResponseWriter, r *http.Request) {
	h.writeMap(w, r, "image/svg+xml", h.maps.WriteSVG)
}

func (h *handlers) png(w http.ResponseWriter, r *http.Request) {
	h.writeMap(w, r, "image/png", h.maps.WritePNG)
}

func (h *handlers) writeMap(w http.ResponseWriter, r *http.Request, contentType string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		h.logger.ErrorContext(r.Context(), "render map", "err", err, "content_type", contentType)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (h *handlers) getControls(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.controls.State())
}

type controlsUpdate struct {
	Source controls.Source `json:"source"`
	Value  json.RawMessage `json:"value"`
}

func (h *handlers) setControls(w http.ResponseWriter, r *http.Request) {
	var req controlsUpdate
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}
	value, err := rawValue(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	st, err := h.controls.Set(req.Source, value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// rawValue accepts the widget value as a JSON string or number.
func rawValue(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("missing value")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	return "", errors.New("value must be a string or number")
}

type reloadResponse struct {
	Controls controls.State `json:"controls"`
	Map      mapview.State  `json:"map"`
}

func (h *handlers) reload(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("mode"); raw != "" {
		mode, err := model.ParseMode(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h.controls.SetMode(mode)
	}

	err := h.controls.Reload(r.Context())
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		// client went away; nothing to answer
		return
	default:
		status := http.StatusInternalServerError
		var dfe *towns.DataFetchError
		if errors.As(err, &dfe) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{Controls: h.controls.State(), Map: h.maps.State()})
}

func (h *handlers) hover(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	town := strings.TrimSpace(q.Get("town"))
	if town == "" {
		writeError(w, http.StatusBadRequest, errors.New("missing required parameter: town"))
		return
	}
	x, err := parseCoord(q.Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("x: %w", err))
		return
	}
	y, err := parseCoord(q.Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("y: %w", err))
		return
	}
	if !h.maps.Hover(town, x, y) {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown town %q", town))
		return
	}
	writeJSON(w, http.StatusOK, h.maps.State().Tooltip)
}

func (h *handlers) unhover(w http.ResponseWriter, _ *http.Request) {
	h.maps.Unhover()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) state(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.maps.State())
}

func parseCoord(v string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("parse float: %w", err)
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
