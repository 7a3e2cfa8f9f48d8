package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"StockAnalyzer/internal/analysis"
	"StockAnalyzer/internal/config"
	"StockAnalyzer/internal/logger"
	"StockAnalyzer/internal/metrics"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	source  analysis.Source
	params  config.Analysis
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewHandler creates a new Handler. m may be nil.
func NewHandler(src analysis.Source, p config.Analysis, m *metrics.Metrics, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{source: src, params: p, metrics: m, log: log}
}

// ChartResponse is the payload of GET /api/v1/chart.
type ChartResponse struct {
	Symbol string              `json:"symbol"`
	Period string              `json:"period"`
	Data   []analysis.ChartRow `json:"data"`
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Analyze handles GET /api/v1/analyze?symbol=&period=&account_balance=
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, analysis.BuildReport(res))
}

// Chart handles GET /api/v1/chart?symbol=&period=
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	res, ok := h.run(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, ChartResponse{
		Symbol: res.Symbol,
		Period: res.Period,
		Data:   analysis.ChartData(res.Series),
	})
}

// run parses the common query parameters and analyses the symbol. It writes
// the error response itself and reports whether the caller should continue.
func (h *Handler) run(w http.ResponseWriter, r *http.Request) (*analysis.Result, bool) {
	q := r.URL.Query()
	symbol := strings.TrimSpace(q.Get("symbol"))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return nil, false
	}

	var balance float64
	if v := q.Get("account_balance"); v != "" {
		b, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid account_balance %q", v))
			return nil, false
		}
		balance = b
	}

	sess := analysis.NewSession(h.source, h.params, h.log)
	sess.Metrics = h.metrics
	res, err := sess.Analyze(r.Context(), symbol, q.Get("period"), balance)
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return nil, false
	}
	return res, true
}

// statusFor maps analysis errors onto HTTP status codes.
func statusFor(err error) int {
	switch analysis.Status(err) {
	case "invalid":
		return http.StatusBadRequest
	case "no_data":
		return http.StatusNotFound
	case "upstream":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// withRunID tags each request with a run ID, echoed in X-Run-ID.
func withRunID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		runID := r.Header.Get("X-Run-ID")
		if runID == "" {
			runID = logger.NewRunID()
		}
		w.Header().Set("X-Run-ID", runID)
		next.ServeHTTP(w, r.WithContext(logger.WithRunID(r.Context(), runID)))
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
