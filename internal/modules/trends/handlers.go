package trends

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// HoldingSource supplies the holdings a trend series runs over.
type HoldingSource interface {
	GetAll() ([]domain.Holding, error)
	GetByAccount(account string) ([]domain.Holding, error)
}

// Handlers contains HTTP handlers for the trends API
type Handlers struct {
	sampler  *Sampler
	holdings HoldingSource
	log      zerolog.Logger
}

// NewHandlers creates a new trends handlers instance
func NewHandlers(sampler *Sampler, holdings HoldingSource, log zerolog.Logger) *Handlers {
	return &Handlers{
		sampler:  sampler,
		holdings: holdings,
		log:      log.With().Str("handler", "trends").Logger(),
	}
}

// RegisterRoutes registers trends routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/trends", func(r chi.Router) {
		r.Get("/series", h.HandleSeries)
		r.Get("/growth", h.HandleGrowth)
	})
}

// HandleSeries returns the sampled value series for a date range
// GET /api/trends/series?start=&end=&account=
func (h *Handlers) HandleSeries(w http.ResponseWriter, r *http.Request) {
	points, ok := h.series(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, points)
}

// HandleGrowth returns growth statistics over a date range
// GET /api/trends/growth?start=&end=&account=
func (h *Handlers) HandleGrowth(w http.ResponseWriter, r *http.Request) {
	points, ok := h.series(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, Growth(points))
}

// series parses the range, loads holdings and samples the series,
// writing the error response itself on failure.
func (h *Handlers) series(w http.ResponseWriter, r *http.Request) ([]TrendPoint, bool) {
	start, err := domain.ParseDay(r.URL.Query().Get("start"))
	if err != nil {
		http.Error(w, "Invalid start date", http.StatusBadRequest)
		return nil, false
	}

	end := domain.Day(time.Now())
	if raw := r.URL.Query().Get("end"); raw != "" {
		end, err = domain.ParseDay(raw)
		if err != nil {
			http.Error(w, "Invalid end date", http.StatusBadRequest)
			return nil, false
		}
	}
	if start.After(end) {
		http.Error(w, "Start date after end date", http.StatusBadRequest)
		return nil, false
	}

	var hs []domain.Holding
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

	points, err := h.sampler.Series(r.Context(), hs, start, end)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to sample trend series")
		if domain.IsTransport(err) {
			http.Error(w, "Market data unavailable", http.StatusBadGateway)
		} else {
			http.Error(w, "Failed to sample trend series", http.StatusInternalServerError)
		}
		return nil, false
	}

	return points, true
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
