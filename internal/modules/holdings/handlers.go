package holdings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for the holdings API
type Handlers struct {
	repo       *Repository
	aggregator *Aggregator
	log        zerolog.Logger
}

// NewHandlers creates a new holdings handlers instance
func NewHandlers(repo *Repository, aggregator *Aggregator, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo:       repo,
		aggregator: aggregator,
		log:        log.With().Str("handler", "holdings").Logger(),
	}
}

// RegisterRoutes registers holdings routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/holdings", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/aggregate", h.HandleAggregate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}/dividend", h.HandleUpdateDividend)
		r.Delete("/{id}", h.HandleDelete)
	})
}

// HandleList returns all holdings, optionally filtered by account
// GET /api/holdings?account=
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		list []domain.Holding
		err  error
	)
	if account := r.URL.Query().Get("account"); account != "" {
		list, err = h.repo.GetByAccount(account)
	} else {
		list, err = h.repo.GetAll()
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list holdings")
		http.Error(w, "Failed to list holdings", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, list)
}

// createHoldingRequest is the JSON body for holding creation.
type createHoldingRequest struct {
	Symbol            string   `json:"symbol"`
	Account           string   `json:"account"`
	Shares            float64  `json:"shares"`
	PurchasePrice     *float64 `json:"purchase_price,omitempty"`
	PurchaseDate      string   `json:"purchase_date"`
	DividendPerShare  float64  `json:"dividend_per_share"`
	DividendFrequency int      `json:"dividend_frequency"`
}

// HandleCreate records a new purchase lot
// POST /api/holdings
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	purchaseDate, err := domain.ParseDay(req.PurchaseDate)
	if err != nil {
		http.Error(w, "Invalid purchase_date", http.StatusBadRequest)
		return
	}

	holding := domain.Holding{
		Symbol:            req.Symbol,
		Account:           req.Account,
		Shares:            req.Shares,
		PurchasePrice:     req.PurchasePrice,
		PurchaseDate:      purchaseDate,
		DividendPerShare:  req.DividendPerShare,
		DividendFrequency: domain.DividendFrequency(req.DividendFrequency),
	}

	if err := h.repo.Create(&holding); err != nil {
		if errors.Is(err, domain.ErrInvalidHolding) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to create holding")
		http.Error(w, "Failed to create holding", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, holding)
}

// HandleAggregate returns weighted per-symbol summaries
// GET /api/holdings/aggregate?account=
func (h *Handlers) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load holdings")
		http.Error(w, "Failed to load holdings", http.StatusInternalServerError)
		return
	}

	aggregates := h.aggregator.Aggregate(list, r.URL.Query().Get("account"))
	h.writeJSON(w, http.StatusOK, aggregates)
}

// HandleGet returns a single holding
// GET /api/holdings/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	holding, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("holding", id).Msg("Failed to get holding")
		http.Error(w, "Failed to get holding", http.StatusInternalServerError)
		return
	}
	if holding == nil {
		http.Error(w, "Holding not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, holding)
}

// HandleUpdateDividend corrects dividend metadata on a holding
// PUT /api/holdings/{id}/dividend
func (h *Handlers) HandleUpdateDividend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		DividendPerShare  float64 `json:"dividend_per_share"`
		DividendFrequency int     `json:"dividend_frequency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.repo.UpdateDividend(id, req.DividendPerShare, domain.DividendFrequency(req.DividendFrequency))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidHolding) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Holding not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes a holding
// DELETE /api/holdings/{id}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.Delete(id); err != nil {
		http.Error(w, "Holding not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
