package plans

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/aristath/dividend-tracker/internal/events"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for the recurring plan API
type Handlers struct {
	repo      *Repository
	scheduler *Scheduler
	prices    domain.PriceSource
	eventMgr  *events.Manager
	log       zerolog.Logger
}

// NewHandlers creates a new plan handlers instance
func NewHandlers(repo *Repository, scheduler *Scheduler, prices domain.PriceSource, eventMgr *events.Manager, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo:      repo,
		scheduler: scheduler,
		prices:    prices,
		eventMgr:  eventMgr,
		log:       log.With().Str("handler", "plans").Logger(),
	}
}

// RegisterRoutes registers plan routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/plans", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/reconcile", h.HandleReconcile)
		r.Put("/{id}/active", h.HandleSetActive)
	})
}

// HandleList returns all plans
// GET /api/plans
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list plans")
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

// createPlanRequest is the JSON body for plan creation.
type createPlanRequest struct {
	Title     string  `json:"title"`
	Symbol    string  `json:"symbol"`
	Account   string  `json:"account"`
	Amount    float64 `json:"amount"`
	Frequency string  `json:"frequency"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date,omitempty"`
	Note      string  `json:"note,omitempty"`
}

// HandleCreate creates a new plan
// POST /api/plans
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	start, err := domain.ParseDay(req.StartDate)
	if err != nil {
		http.Error(w, "Invalid start_date", http.StatusBadRequest)
		return
	}

	var end *time.Time
	if req.EndDate != "" {
		e, err := domain.ParseDay(req.EndDate)
		if err != nil {
			http.Error(w, "Invalid end_date", http.StatusBadRequest)
			return
		}
		end = &e
	}

	plan := domain.RecurringPlan{
		Title:     req.Title,
		Symbol:    req.Symbol,
		Account:   req.Account,
		Amount:    req.Amount,
		Frequency: domain.PlanFrequency(req.Frequency),
		StartDate: start,
		EndDate:   end,
		Active:    true,
		Note:      req.Note,
	}

	if err := h.repo.Create(&plan); err != nil {
		if errors.Is(err, domain.ErrInvalidPlan) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("Failed to create plan")
		http.Error(w, "Failed to create plan", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, plan)
}

// HandleGet returns a single plan with its ledger
// GET /api/plans/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	plan, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("plan", id).Msg("Failed to get plan")
		http.Error(w, "Failed to get plan", http.StatusInternalServerError)
		return
	}
	if plan == nil {
		http.Error(w, "Plan not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, plan)
}

// HandleDelete removes a plan and its ledger
// DELETE /api/plans/{id}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.Delete(id); err != nil {
		h.log.Error().Err(err).Str("plan", id).Msg("Failed to delete plan")
		http.Error(w, "Failed to delete plan", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleReconcile runs reconciliation for one plan and persists the result
// POST /api/plans/{id}/reconcile?as_of=YYYY-MM-DD
func (h *Handlers) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	asOf := domain.Day(time.Now())
	if s := r.URL.Query().Get("as_of"); s != "" {
		parsed, err := domain.ParseDay(s)
		if err != nil {
			http.Error(w, "Invalid as_of date", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}

	plan, err := h.repo.GetByID(id)
	if err != nil {
		h.log.Error().Err(err).Str("plan", id).Msg("Failed to get plan")
		http.Error(w, "Failed to get plan", http.StatusInternalServerError)
		return
	}
	if plan == nil {
		http.Error(w, "Plan not found", http.StatusNotFound)
		return
	}

	before := len(plan.Transactions)
	reconciled, err := h.scheduler.Reconcile(r.Context(), *plan, h.prices, asOf)
	if err != nil {
		h.log.Error().Err(err).Str("plan", id).Msg("Reconciliation failed")
		http.Error(w, "Reconciliation failed", http.StatusInternalServerError)
		return
	}

	if err := h.repo.SaveTransactions(&reconciled); err != nil {
		h.log.Error().Err(err).Str("plan", id).Msg("Failed to persist transactions")
		http.Error(w, "Failed to persist transactions", http.StatusInternalServerError)
		return
	}

	h.eventMgr.Emit(events.PlanReconcileComplete, "plans", map[string]interface{}{
		"plan_id": id,
		"created": len(reconciled.Transactions) - before,
		"as_of":   domain.FormatDay(asOf),
	})

	h.writeJSON(w, http.StatusOK, reconciled)
}

// HandleSetActive flips a plan's active flag
// PUT /api/plans/{id}/active
func (h *Handlers) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.SetActive(id, req.Active); err != nil {
		http.Error(w, "Plan not found", http.StatusNotFound)
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
