package payroll

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

// Handler wires payroll endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers payroll routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/payrolls", h.list)
	r.Get("/payrolls/{id}", h.get)
	r.Post("/payrolls", h.create)
	r.Put("/payrolls/{id}", h.update)
	r.Post("/payrolls/{id}/pay", h.markPaid)
	r.Delete("/payrolls/{id}", h.delete)
}

type payrollRequest struct {
	EmployeeID  int64   `json:"employee_id" validate:"required"`
	HoursWorked float64 `json:"hours_worked" validate:"required,gt=0"`
	HourlyRate  float64 `json:"hourly_rate" validate:"required,gt=0"`
	PeriodStart string  `json:"period_start" validate:"required"`
	PeriodEnd   string  `json:"period_end" validate:"required"`
}

func (req payrollRequest) toInput() (PayrollInput, error) {
	start, err := time.Parse("2006-01-02", req.PeriodStart)
	if err != nil {
		return PayrollInput{}, err
	}
	end, err := time.Parse("2006-01-02", req.PeriodEnd)
	if err != nil {
		return PayrollInput{}, err
	}
	return PayrollInput{
		EmployeeID:  req.EmployeeID,
		HoursWorked: req.HoursWorked,
		HourlyRate:  req.HourlyRate,
		PeriodStart: start,
		PeriodEnd:   end,
	}, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	from, to := now, now
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
			return
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
			return
		}
		to = parsed
	}
	payrolls, err := h.service.List(r.Context(), from, to)
	if err != nil {
		h.logger.Error("list payrolls", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, payrolls)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payroll id")
		return
	}
	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req payrollRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period dates must be YYYY-MM-DD")
		return
	}
	p, err := h.service.Create(r.Context(), shared.ActorFromContext(r.Context()), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payroll id")
		return
	}
	var req payrollRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "period dates must be YYYY-MM-DD")
		return
	}
	p, err := h.service.Update(r.Context(), shared.ActorFromContext(r.Context()), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) markPaid(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payroll id")
		return
	}
	changed, err := h.service.MarkPaid(r.Context(), shared.ActorFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"paid": changed})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payroll id")
		return
	}
	if err := h.service.Delete(r.Context(), shared.ActorFromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
