package finance

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

// Handler wires journal endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers journal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/expenses", h.listExpenses)
	r.Get("/expenses/{id}", h.getExpense)
	r.Post("/expenses", h.addExpense)
	r.Put("/expenses/{id}", h.updateExpense)
	r.Delete("/expenses/{id}", h.deleteExpense)

	r.Get("/incomes", h.listIncomes)
	r.Get("/incomes/{id}", h.getIncome)
	r.Post("/incomes", h.addIncome)
	r.Put("/incomes/{id}", h.updateIncome)
	r.Delete("/incomes/{id}", h.deleteIncome)

	r.Get("/finance/summary", h.summary)
}

type expenseRequest struct {
	Category string  `json:"category" validate:"required"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Date     string  `json:"date"`
}

type incomeRequest struct {
	Source string  `json:"source" validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Date   string  `json:"date"`
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", raw)
}

func rangeQuery(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from, to := now, now
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dates must be YYYY-MM-DD")
		return
	}
	expenses, err := h.service.ListExpenses(r.Context(), from, to)
	if err != nil {
		h.logger.Error("list expenses", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expenses)
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expense id")
		return
	}
	expense, err := h.service.GetExpense(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) addExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	expense, err := h.service.AddExpense(r.Context(), shared.ActorFromContext(r.Context()), ExpenseInput{
		Category: req.Category,
		Amount:   req.Amount,
		Date:     date,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, expense)
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expense id")
		return
	}
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	expense, err := h.service.UpdateExpense(r.Context(), shared.ActorFromContext(r.Context()), id, ExpenseInput{
		Category: req.Category,
		Amount:   req.Amount,
		Date:     date,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, expense)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expense id")
		return
	}
	if err := h.service.DeleteExpense(r.Context(), shared.ActorFromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listIncomes(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dates must be YYYY-MM-DD")
		return
	}
	incomes, err := h.service.ListIncomes(r.Context(), from, to)
	if err != nil {
		h.logger.Error("list incomes", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, incomes)
}

func (h *Handler) getIncome(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid income id")
		return
	}
	income, err := h.service.GetIncome(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, income)
}

func (h *Handler) addIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	income, err := h.service.AddIncome(r.Context(), shared.ActorFromContext(r.Context()), IncomeInput{
		Source: req.Source,
		Amount: req.Amount,
		Date:   date,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, income)
}

func (h *Handler) updateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid income id")
		return
	}
	var req incomeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	income, err := h.service.UpdateIncome(r.Context(), shared.ActorFromContext(r.Context()), id, IncomeInput{
		Source: req.Source,
		Amount: req.Amount,
		Date:   date,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, income)
}

func (h *Handler) deleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid income id")
		return
	}
	if err := h.service.DeleteIncome(r.Context(), shared.ActorFromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	from, to, err := rangeQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dates must be YYYY-MM-DD")
		return
	}
	summary, err := h.service.Summarize(r.Context(), from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
