package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-activity-timeline/internal/analyzer"
	"github.com/penwyp/go-activity-timeline/internal/application/view"
	"github.com/penwyp/go-activity-timeline/internal/core/cache"
	"github.com/penwyp/go-activity-timeline/internal/core/model"
	"github.com/penwyp/go-activity-timeline/internal/core/report"
	"github.com/penwyp/go-activity-timeline/internal/core/window"
	"github.com/penwyp/go-activity-timeline/internal/data/source"
	"github.com/penwyp/go-activity-timeline/internal/util"
)

// DefaultMaxUpload bounds POST /v1/upload bodies.
const DefaultMaxUpload = 32 << 20

// Source produces batches for uploads and remote loads.
type Source interface {
	LoadBytes(data []byte, name string) (*model.ParsedBatch, error)
	LoadRemote(ctx context.Context, user string, day time.Time) (*model.ParsedBatch, error)
}

// Handler serves the committed view.
type Handler struct {
	loader    *view.Loader
	view      *view.View
	source    Source
	metrics   *Metrics
	reports   *cache.MemoryCache[[]byte] // encoded summaries and hourly reports
	maxUpload int64
}

// NewHandler wires metrics to the view's commit hooks.
func NewHandler(loader *view.Loader, src Source, metrics *Metrics) *Handler {
	if metrics == nil {
		metrics = NewMetrics()
	}
	v := loader.View()
	h := &Handler{
		loader:    loader,
		view:      v,
		source:    src,
		metrics:   metrics,
		reports:   cache.NewMemoryCache[[]byte](cache.DefaultMaxEntries),
		maxUpload: DefaultMaxUpload,
	}
	v.OnCommit(metrics.ObserveCommit)
	v.OnCommit(func(batch *model.ParsedBatch) { h.reports.Advance(batch.Generation) })
	v.OnDiscard(metrics.ObserveDiscard)
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/summary", h.summary)
	mux.HandleFunc("/v1/timeline", h.timeline)
	mux.HandleFunc("/v1/hourly", h.hourly)
	mux.HandleFunc("/v1/types", h.types)
	mux.HandleFunc("/v1/upload", h.upload)
	mux.HandleFunc("/v1/load", h.load)
	mux.HandleFunc("/healthz", healthz)
	mux.Handle("/metrics", h.metrics.Handler())
}

// Routes returns the mux wrapped in request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return logRequests(mux)
}

// healthz reports a simple OK status for health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Load runs fn through the loader and records the outcome.
func (h *Handler) Load(ctx context.Context, fn view.LoadFunc) (*model.ParsedBatch, error) {
	batch, err := h.loader.Load(ctx, fn)
	h.metrics.ObserveLoad(outcomeOf(err))
	return batch, err
}

func outcomeOf(err error) string {
	var fetchErr *source.FetchError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, view.ErrSuperseded):
		return OutcomeSuperseded
	case analyzer.IsInputError(err):
		return OutcomeInput
	case errors.As(err, &fetchErr):
		return OutcomeFetch
	default:
		return OutcomeError
	}
}

type activitiesResponse struct {
	Generation uint64             `json:"generation"`
	Source     string             `json:"source"`
	LoadedAt   time.Time          `json:"loadedAt"`
	RowsSeen   int                `json:"rowsSeen"`
	RowsKept   int                `json:"rowsKept"`
	Warnings   []model.RowWarning `json:"warnings"`
	Activities []model.Activity   `json:"activities"`
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	batch, ok := h.committed(w)
	if !ok {
		return
	}
	day, ok := h.dayParam(w, r, false)
	if !ok {
		return
	}
	activities := report.Filter(batch.Activities, day)
	if raw := r.URL.Query().Get("type"); raw != "" {
		typ := model.ActivityType(raw)
		if style, ok := model.LabelStyle(raw); ok {
			typ = style.Type
		}
		if !typ.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("unknown activity type %q", raw))
			return
		}
		activities = ofType(activities, typ)
	}

	warnings := batch.Warnings
	if warnings == nil {
		warnings = []model.RowWarning{}
	}
	writeJSON(w, http.StatusOK, activitiesResponse{
		Generation: batch.Generation,
		Source:     batch.Source,
		LoadedAt:   batch.LoadedAt,
		RowsSeen:   batch.TotalRowsSeen,
		RowsKept:   batch.RowsKept,
		Warnings:   warnings,
		Activities: activities,
	})
}

func ofType(activities []model.Activity, typ model.ActivityType) []model.Activity {
	out := make([]model.Activity, 0, len(activities))
	for _, a := range activities {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	batch, ok := h.committed(w)
	if !ok {
		return
	}
	day, ok := h.dayParam(w, r, false)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	key := fmt.Sprintf("summary|%s|%s|%d", q.Get("groupBy"), dayKey(day), limit)
	h.writeReport(w, batch, key, func() (interface{}, error) {
		return report.BuildSummary(batch, report.Options{
			GroupBy:  q.Get("groupBy"),
			Day:      day,
			Limit:    limit,
			Location: h.view.Location(),
		})
	})
}

type timelineResponse struct {
	Viewport window.Viewport  `json:"viewport"`
	Timeline *report.Timeline `json:"timeline"`
}

// timeline applies the query to the shared viewport, then clips the batch.
// Accepted: day, start/end (HH:MM), startMinute/widthMinutes, zoom with
// optional anchor (minute), pan (minutes).
func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	batch, ok := h.committed(w)
	if !ok {
		return
	}
	q := r.URL.Query()

	if q.Get("day") != "" {
		day, ok := h.dayParam(w, r, false)
		if !ok {
			return
		}
		h.view.SetDay(day)
	}

	var vp window.Viewport
	switch {
	case q.Get("start") != "" || q.Get("end") != "":
		start, err := window.ParseClock(q.Get("start"), 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		end, err := window.ParseClock(q.Get("end"), window.MinutesPerDay)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		if end <= start {
			writeError(w, http.StatusBadRequest, "invalid_request", "end must be after start")
			return
		}
		vp = h.view.SetRange(start, end-start)
	case q.Get("startMinute") != "" || q.Get("widthMinutes") != "":
		current := h.view.Viewport()
		start, err := floatParam(q, "startMinute", current.StartMinute)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		width, err := floatParam(q, "widthMinutes", current.WidthMinutes)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		vp = h.view.SetRange(start, width)
	case q.Get("zoom") != "":
		current := h.view.Viewport()
		factor, err := floatParam(q, "zoom", 1)
		if err != nil || factor <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "zoom must be a positive number")
			return
		}
		anchor, err := floatParam(q, "anchor", current.StartMinute+current.WidthMinutes/2)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		vp = h.view.Zoom(factor, anchor)
	case q.Get("pan") != "":
		delta, err := floatParam(q, "pan", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		vp = h.view.Pan(delta)
	default:
		vp = h.view.Viewport()
	}

	writeJSON(w, http.StatusOK, timelineResponse{
		Viewport: vp,
		Timeline: report.BuildTimeline(batch.Activities, vp.Window()),
	})
}

func (h *Handler) hourly(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	batch, ok := h.committed(w)
	if !ok {
		return
	}
	day, ok := h.dayParam(w, r, true)
	if !ok {
		return
	}

	raw := r.URL.Query().Get("hour")
	if raw == "" {
		h.writeReport(w, batch, "hourly|"+dayKey(day), func() (interface{}, error) {
			return report.BuildHourly(batch.Activities, day), nil
		})
		return
	}
	hour, err := strconv.Atoi(raw)
	if err != nil || hour < 0 || hour >= window.HoursPerDay {
		writeError(w, http.StatusBadRequest, "invalid_request", "hour must be between 0 and 23")
		return
	}
	h.writeReport(w, batch, fmt.Sprintf("hour|%s|%d", dayKey(day), hour), func() (interface{}, error) {
		return report.BuildHour(batch.Activities, day, hour), nil
	})
}

// writeReport serves the encoded report for key, building it on a miss.
// Build errors are client errors.
func (h *Handler) writeReport(w http.ResponseWriter, batch *model.ParsedBatch, key string, build func() (interface{}, error)) {
	data, hit, err := h.reports.GetOrCompute(batch.Generation, key, func() ([]byte, error) {
		payload, err := build()
		if err != nil {
			return nil, err
		}
		return sonic.Marshal(payload)
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	h.metrics.ObserveReport(hit)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func dayKey(day time.Time) string {
	if day.IsZero() {
		return "all"
	}
	return day.Format(time.RFC3339)
}

func (h *Handler) types(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, model.TypeStyles())
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, h.maxUpload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
		return
	}
	if int64(len(data)) > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Sprintf("body exceeds %d bytes", h.maxUpload))
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = uploadName(r.Header.Get("Content-Type"))
	}

	batch, err := h.Load(r.Context(), func(context.Context) (*model.ParsedBatch, error) {
		return h.source.LoadBytes(data, name)
	})
	h.respondLoad(w, batch, err)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	if user == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user is required")
		return
	}
	day, ok := h.dayParam(w, r, true)
	if !ok {
		return
	}

	batch, err := h.Load(r.Context(), func(ctx context.Context) (*model.ParsedBatch, error) {
		return h.source.LoadRemote(ctx, user, day)
	})
	h.respondLoad(w, batch, err)
}

type loadResponse struct {
	Generation   uint64          `json:"generation"`
	Source       string          `json:"source"`
	RowsSeen     int             `json:"rowsSeen"`
	RowsKept     int             `json:"rowsKept"`
	WarningCount int             `json:"warningCount"`
	CoveredRange model.DateRange `json:"coveredRange"`
}

func (h *Handler) respondLoad(w http.ResponseWriter, batch *model.ParsedBatch, err error) {
	var fetchErr *source.FetchError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, loadResponse{
			Generation:   batch.Generation,
			Source:       batch.Source,
			RowsSeen:     batch.TotalRowsSeen,
			RowsKept:     batch.RowsKept,
			WarningCount: len(batch.Warnings),
			CoveredRange: batch.CoveredRange,
		})
	case errors.Is(err, view.ErrSuperseded):
		writeError(w, http.StatusConflict, "superseded", err.Error())
	case analyzer.IsInputError(err):
		writeError(w, http.StatusUnprocessableEntity, "invalid_input", err.Error())
	case errors.As(err, &fetchErr):
		writeError(w, http.StatusBadGateway, "fetch_failed", err.Error())
	case errors.Is(err, analyzer.ErrNoRemote):
		writeError(w, http.StatusBadRequest, "not_configured", err.Error())
	default:
		util.LogErrorf("Load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func (h *Handler) committed(w http.ResponseWriter) (*model.ParsedBatch, bool) {
	batch := h.view.Batch()
	if batch == nil {
		writeError(w, http.StatusNotFound, "no_data", "no batch loaded")
		return nil, false
	}
	return batch, true
}

// dayParam reads ?day=. When absent it returns the viewport day if
// fallback is set, otherwise the zero time.
func (h *Handler) dayParam(w http.ResponseWriter, r *http.Request, fallback bool) (time.Time, bool) {
	raw := r.URL.Query().Get("day")
	if raw == "" {
		raw = r.URL.Query().Get("date")
	}
	if raw == "" {
		if fallback {
			return h.view.Viewport().DayStart, true
		}
		return time.Time{}, true
	}
	day, err := util.NewTimeProvider(h.view.Location()).ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return time.Time{}, false
	}
	return day, true
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	return false
}

func floatParam(q map[string][]string, key string, def float64) (float64, error) {
	values := q[key]
	if len(values) == 0 || values[0] == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(values[0], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a finite number", key)
	}
	return v, nil
}

func uploadName(contentType string) string {
	switch {
	case strings.Contains(contentType, "ndjson"), strings.Contains(contentType, "jsonl"):
		return "upload.jsonl"
	case strings.Contains(contentType, "json"):
		return "upload.json"
	case strings.Contains(contentType, "csv"):
		return "upload.csv"
	}
	return "upload"
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
