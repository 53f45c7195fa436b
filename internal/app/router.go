package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/storekeep-erp/storekeep-erp/internal/auth"
	"github.com/storekeep-erp/storekeep-erp/internal/budget"
	"github.com/storekeep-erp/storekeep-erp/internal/catalog"
	"github.com/storekeep-erp/storekeep-erp/internal/finance"
	"github.com/storekeep-erp/storekeep-erp/internal/observability"
	"github.com/storekeep-erp/storekeep-erp/internal/payroll"
	"github.com/storekeep-erp/storekeep-erp/internal/platform/httpx"
	"github.com/storekeep-erp/storekeep-erp/internal/purchases"
	"github.com/storekeep-erp/storekeep-erp/internal/sales"
	"github.com/storekeep-erp/storekeep-erp/internal/shared"
	"github.com/storekeep-erp/storekeep-erp/internal/stock"
	"github.com/storekeep-erp/storekeep-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthService     *auth.Service
	AuthHandler     *auth.Handler
	CatalogHandler  *catalog.Handler
	StockHandler    *stock.Handler
	PurchaseHandler *purchases.Handler
	SalesHandler    *sales.Handler
	FinanceHandler  *finance.Handler
	BudgetHandler   *budget.Handler
	PayrollHandler  *payroll.Handler
	JobHandler      *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with storekeep defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(auth.ActorMiddleware(params.AuthService, params.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			params.Logger.Error("issue csrf token", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api/v1", func(r chi.Router) {
		params.CatalogHandler.MountRoutes(r)
		params.StockHandler.MountRoutes(r)
		params.PurchaseHandler.MountRoutes(r)
		params.SalesHandler.MountRoutes(r)
		params.FinanceHandler.MountRoutes(r)
		params.BudgetHandler.MountRoutes(r)
		params.PayrollHandler.MountRoutes(r)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
