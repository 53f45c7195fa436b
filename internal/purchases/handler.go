package purchases

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

// Handler wires purchase endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers purchase routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/purchases", h.list)
	r.Get("/purchases/{id}", h.get)
	r.Post("/purchases", h.add)
	r.Put("/purchases/{id}", h.update)
	r.Delete("/purchases/{id}", h.delete)
}

type addPurchaseRequest struct {
	ProductID    int64   `json:"product_id" validate:"required"`
	Quantity     int64   `json:"quantity" validate:"required,gt=0"`
	TotalCost    float64 `json:"total_cost" validate:"required,gt=0"`
	PurchaseDate string  `json:"purchase_date"`
}

type updatePurchaseRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRangeQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	purchases, err := h.service.ListPurchases(r.Context(), from, to)
	if err != nil {
		h.logger.Error("list purchases", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchases)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase id")
		return
	}
	purchase, err := h.service.GetPurchase(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	var req addPurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := AddPurchaseInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		TotalCost: req.TotalCost,
	}
	if req.PurchaseDate != "" {
		date, err := time.Parse("2006-01-02", req.PurchaseDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "purchase_date must be YYYY-MM-DD")
			return
		}
		input.PurchaseDate = date
	}
	purchase, err := h.service.AddPurchase(r.Context(), shared.ActorFromContext(r.Context()), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, purchase)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase id")
		return
	}
	var req updatePurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	purchase, err := h.service.UpdatePurchase(r.Context(), shared.ActorFromContext(r.Context()), id, req.Quantity)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase id")
		return
	}
	if err := h.service.DeletePurchase(r.Context(), shared.ActorFromContext(r.Context()), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// dateRangeQuery reads optional from/to query params, defaulting to today.
func dateRangeQuery(r *http.Request) (time.Time, time.Time, error) {
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
