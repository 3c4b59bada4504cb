package valuation

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// HoldingSource supplies the holdings a valuation runs over.
type HoldingSource interface {
	GetAll() ([]domain.Holding, error)
	GetByAccount(account string) ([]domain.Holding, error)
}

// Handlers contains HTTP handlers for the valuation API
type Handlers struct {
	engine   *Engine
	holdings HoldingSource
	log      zerolog.Logger
}

// NewHandlers creates a new valuation handlers instance
func NewHandlers(engine *Engine, holdings HoldingSource, log zerolog.Logger) *Handlers {
	return &Handlers{
		engine:   engine,
		holdings: holdings,
		log:      log.With().Str("handler", "valuation").Logger(),
	}
}

// RegisterRoutes registers valuation routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/valuation", func(r chi.Router) {
		r.Get("/summary", h.HandleSummary)
		r.Get("/daily-change", h.HandleDailyChange)
		r.Get("/risk", h.HandleRisk)
	})
}

// summaryResponse is the portfolio metrics with the risk block attached.
type summaryResponse struct {
	PortfolioMetrics
	Risk RiskMetrics `json:"risk"`
}

// HandleSummary returns portfolio metrics plus the risk summary as of a date
// GET /api/valuation/summary?date=&account=
func (h *Handlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.parseDate(w, r)
	if !ok {
		return
	}
	hs, ok := h.loadHoldings(w, r)
	if !ok {
		return
	}

	metrics, risk, err := h.engine.SummaryAsOf(r.Context(), hs, asOf)
	if err != nil {
		h.writeFetchError(w, err, "Failed to compute valuation")
		return
	}

	h.writeJSON(w, http.StatusOK, summaryResponse{PortfolioMetrics: metrics, Risk: risk})
}

// HandleDailyChange returns the day-over-day portfolio movement
// GET /api/valuation/daily-change?date=&account=
func (h *Handlers) HandleDailyChange(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDate(w, r)
	if !ok {
		return
	}
	hs, ok := h.loadHoldings(w, r)
	if !ok {
		return
	}

	change, err := h.engine.DailyChangeAsOf(r.Context(), hs, day)
	if err != nil {
		h.writeFetchError(w, err, "Failed to compute daily change")
		return
	}

	h.writeJSON(w, http.StatusOK, change)
}

// HandleRisk returns the heuristic risk summary
// GET /api/valuation/risk?date=&account=
func (h *Handlers) HandleRisk(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.parseDate(w, r)
	if !ok {
		return
	}
	hs, ok := h.loadHoldings(w, r)
	if !ok {
		return
	}

	metrics, err := h.engine.Risk(r.Context(), hs, asOf)
	if err != nil {
		h.writeFetchError(w, err, "Failed to compute risk metrics")
		return
	}

	h.writeJSON(w, http.StatusOK, metrics)
}

// parseDate reads the optional ?date= query parameter, defaulting to
// today. Reports false after writing an error response.
func (h *Handlers) parseDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return domain.Day(time.Now()), true
	}
	day, err := domain.ParseDay(raw)
	if err != nil {
		http.Error(w, "Invalid date", http.StatusBadRequest)
		return time.Time{}, false
	}
	return day, true
}

func (h *Handlers) loadHoldings(w http.ResponseWriter, r *http.Request) ([]domain.Holding, bool) {
	var (
		hs  []domain.Holding
		err error
	)
	if account := r.URL.Query().Get("account"); account != "" {
		hs, err = h.holdings.GetByAccount(account)
	} else {
		hs, err = h.holdings.GetAll()
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load holdings")
		http.Error(w, "Failed to load holdings", http.StatusInternalServerError)
		return nil, false
	}
	return hs, true
}

// writeFetchError maps upstream market-data failures to 502 so
// clients can tell them apart from bugs in this service.
func (h *Handlers) writeFetchError(w http.ResponseWriter, err error, msg string) {
	h.log.Error().Err(err).Msg(msg)
	if domain.IsTransport(err) {
		http.Error(w, "Market data unavailable", http.StatusBadGateway)
		return
	}
	http.Error(w, msg, http.StatusInternalServerError)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
