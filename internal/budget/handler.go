package budget

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/storekeep-erp/storekeep-erp/internal/platform/httpx"
	"github.com/storekeep-erp/storekeep-erp/internal/shared"
)

// Handler wires budget endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers budget routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/budgets", h.list)
	r.Get("/budgets/totals", h.totals)
	r.Get("/budgets/report.csv", h.reportCSV)
	r.Get("/budgets/{id}", h.get)
	r.Post("/budgets", h.create)
	r.Put("/budgets/{id}", h.updatePlanned)
	r.Post("/budgets/{id}/actuals", h.adjustActuals)
}

type planRequest struct {
	Month           string  `json:"month" validate:"required"`
	PlannedIncome   float64 `json:"planned_income" validate:"gte=0"`
	PlannedExpenses float64 `json:"planned_expenses" validate:"gte=0"`
}

func monthRangeQuery(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from, to := now, now
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	from, to, err := monthRangeQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "months must be YYYY-MM")
		return
	}
	budgets, err := h.service.List(r.Context(), from, to)
	if err != nil {
		h.logger.Error("list budgets", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, budgets)
}

func (h *Handler) totals(w http.ResponseWriter, r *http.Request) {
	from, to, err := monthRangeQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "months must be YYYY-MM")
		return
	}
	totals, err := h.service.Totals(r.Context(), from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, totals)
}

func (h *Handler) reportCSV(w http.ResponseWriter, r *http.Request) {
	from, to, err := monthRangeQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "months must be YYYY-MM")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="budget-report.csv"`)
	if err := h.service.WriteReportCSV(r.Context(), w, from, to); err != nil {
		h.logger.Error("budget report", slog.Any("error", err))
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid budget id")
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	month, err := time.Parse("2006-01", req.Month)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "month must be YYYY-MM")
		return
	}
	b, err := h.service.CreateForMonth(r.Context(), shared.ActorFromContext(r.Context()), PlanInput{
		Date:            month,
		PlannedIncome:   req.PlannedIncome,
		PlannedExpenses: req.PlannedExpenses,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

type actualsRequest struct {
	IncomeDelta  float64 `json:"income_delta"`
	ExpenseDelta float64 `json:"expense_delta"`
}

func (h *Handler) adjustActuals(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid budget id")
		return
	}
	var req actualsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	b, err := h.service.AdjustActuals(r.Context(), shared.ActorFromContext(r.Context()), id, req.IncomeDelta, req.ExpenseDelta)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) updatePlanned(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid budget id")
		return
	}
	var req planRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := PlanInput{PlannedIncome: req.PlannedIncome, PlannedExpenses: req.PlannedExpenses}
	if req.Month != "" {
		month, err := time.Parse("2006-01", req.Month)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "month must be YYYY-MM")
			return
		}
		input.Date = month
	}
	b, err := h.service.UpdatePlanned(r.Context(), shared.ActorFromContext(r.Context()), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}
