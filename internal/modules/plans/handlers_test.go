package plans

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/dividend-tracker/internal/domain"
	"github.com/aristath/dividend-tracker/internal/events"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlers(t *testing.T, prices domain.PriceSource) (*chi.Mux, *Repository) {
	t.Helper()
	db := setupTestDB(t)
	repo := NewRepository(db.Conn(), zerolog.Nop())

	h := NewHandlers(repo, NewScheduler(zerolog.Nop()), prices, events.NewManager(zerolog.Nop()), zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r, repo
}

func TestHandleCreatePlan(t *testing.T) {
	r, repo := setupHandlers(t, &stubPriceSource{price: 100})

	body := `{"title":"KO monthly","symbol":"ko","account":"main","amount":3000,"frequency":"monthly","start_date":"2024-01-15"}`
	req := httptest.NewRequest("POST", "/plans", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var created domain.RecurringPlan
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.Equal(t, "KO", created.Symbol)
	assert.True(t, created.Active)

	stored, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestHandleCreatePlanRejectsEndBeforeStart(t *testing.T) {
	r, _ := setupHandlers(t, &stubPriceSource{price: 100})

	body := `{"title":"KO","symbol":"KO","amount":3000,"frequency":"monthly","start_date":"2024-06-01","end_date":"2024-01-01"}`
	req := httptest.NewRequest("POST", "/plans", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "end date")
}

func TestHandleReconcilePersistsLedger(t *testing.T) {
	r, repo := setupHandlers(t, &stubPriceSource{price: 100})

	plan := domain.RecurringPlan{
		Title: "KO monthly", Symbol: "KO", Amount: 3000,
		Frequency: domain.PlanMonthly, StartDate: domain.NewDay(2024, time.January, 15), Active: true,
	}
	require.NoError(t, repo.Create(&plan))

	req := httptest.NewRequest("POST", "/plans/"+plan.ID+"/reconcile?as_of=2024-04-20", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var reconciled domain.RecurringPlan
	require.NoError(t, json.NewDecoder(w.Body).Decode(&reconciled))
	assert.Len(t, reconciled.Transactions, 4)

	stored, err := repo.GetByID(plan.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Transactions, 4)
}

func TestHandleReconcileUnknownPlan(t *testing.T) {
	r, _ := setupHandlers(t, &stubPriceSource{price: 100})

	req := httptest.NewRequest("POST", "/plans/missing/reconcile", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSetActive(t *testing.T) {
	r, repo := setupHandlers(t, &stubPriceSource{price: 100})

	plan := domain.RecurringPlan{
		Title: "KO", Symbol: "KO", Amount: 100,
		Frequency: domain.PlanWeekly, StartDate: domain.NewDay(2024, time.January, 1), Active: true,
	}
	require.NoError(t, repo.Create(&plan))

	req := httptest.NewRequest("PUT", "/plans/"+plan.ID+"/active", strings.NewReader(`{"active":false}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)

	stored, err := repo.GetByID(plan.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}
