package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jbweber/homelab/catalog/internal/controller"
	"github.com/jbweber/homelab/catalog/internal/metrics"
	"github.com/jbweber/homelab/catalog/internal/repository"
	"github.com/jbweber/homelab/catalog/internal/validation"
	"github.com/jbweber/homelab/catalog/internal/views"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer is built from
type Deps struct {
	Repository   repository.ProductRepository
	Health       HealthChecker
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	StoreTimeout time.Duration
}

// API translates HTTP requests into controller actions and controller
// results into HTTP responses
type API struct {
	products  *controller.ProductsController
	validator *validation.Validator
	views     *views.Renderer
	health    HealthChecker
	logger    *slog.Logger
	metrics   *metrics.Metrics
	timeout   time.Duration
}

// ErrorResponse is the JSON body returned by non-HTML endpoints on failure
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON body returned by /healthz
type HealthResponse struct {
	Status string `json:"status"`
}

// NewAPI creates a new API instance
func NewAPI(deps Deps) (*API, error) {
	renderer, err := views.New()
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	timeout := deps.StoreTimeout
	if timeout <= 0 {
		timeout = controller.DefaultTimeout
	}
	return &API{
		products:  controller.NewProductsController(deps.Repository, timeout),
		validator: validation.New(),
		views:     renderer,
		health:    deps.Health,
		logger:    logger,
		metrics:   m,
		timeout:   timeout,
	}, nil
}

// Handler returns the fully wired router
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(StructuredLogger(a.logger))
	r.Use(Recoverer(a.logger))
	r.Use(Instrument(a.metrics))
	a.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers all endpoints to the given chi router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, actionPath(controller.ActionIndex), http.StatusSeeOther)
	})

	// Products endpoints group
	r.Route("/products", func(r chi.Router) {
		r.Get("/", a.indexHandler)

		r.Get("/details", a.detailsHandler)
		r.Get("/details/{id}", a.detailsHandler)

		r.Get("/create", a.createFormHandler)
		r.Post("/create", a.createSubmitHandler)

		r.Get("/edit", a.editFormHandler)
		r.Get("/edit/{id}", a.editFormHandler)
		r.Post("/edit", a.editSubmitHandler)
		r.Post("/edit/{id}", a.editSubmitHandler)

		r.Get("/delete", a.deleteConfirmHandler)
		r.Get("/delete/{id}", a.deleteConfirmHandler)
		r.Post("/delete", a.deleteExecuteHandler)
		r.Post("/delete/{id}", a.deleteExecuteHandler)
	})

	r.Get("/healthz", a.healthHandler)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		a.renderPage(w, r, http.StatusNotFound, views.PageNotFound, views.Page{})
	})
}

// healthHandler handles GET /healthz
func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), a.timeout)
		defer cancel()
		if err := a.health.Ping(ctx); err != nil {
			a.logger.ErrorContext(r.Context(), "Health check failed", "error", err)
			writeJSON(w, a.logger, http.StatusServiceUnavailable, ErrorResponse{Error: "datastore unavailable"})
			return
		}
	}
	writeJSON(w, a.logger, http.StatusOK, HealthResponse{Status: "ok"})
}

// respond translates a controller outcome into an HTTP response
func (a *API) respond(w http.ResponseWriter, r *http.Request, action string, result controller.Result, err error, page views.Page) {
	if err != nil {
		a.metrics.ObserveAction(action, "error")
		a.logger.ErrorContext(r.Context(), "Action failed", "action", action, "error", err)
		a.renderPage(w, r, http.StatusInternalServerError, views.PageError,
			views.Page{RequestID: middleware.GetReqID(r.Context())})
		return
	}
	a.metrics.ObserveAction(action, result.Kind.String())

	switch result.Kind {
	case controller.KindRenderView:
		status := result.StatusCode
		if !page.State.IsValid() {
			status = http.StatusUnprocessableEntity
		}
		page.Model = result.Model
		a.renderPage(w, r, status, result.View, page)
	case controller.KindRedirect:
		http.Redirect(w, r, actionPath(result.Action), result.StatusCode)
	case controller.KindNotFound:
		a.logger.DebugContext(r.Context(), "Product not found", "action", action, "path", r.URL.Path)
		a.renderPage(w, r, result.StatusCode, views.PageNotFound, views.Page{})
	default:
		a.logger.ErrorContext(r.Context(), "Unknown result kind", "action", action, "kind", result.Kind)
		a.renderPage(w, r, http.StatusInternalServerError, views.PageError,
			views.Page{RequestID: middleware.GetReqID(r.Context())})
	}
}

// renderPage renders a view in full before writing the status line
func (a *API) renderPage(w http.ResponseWriter, r *http.Request, status int, view string, page views.Page) {
	var buf bytes.Buffer
	if err := a.views.Render(&buf, view, page); err != nil {
		a.logger.ErrorContext(r.Context(), "Failed to render view", "view", view, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.ErrorContext(r.Context(), "Failed to write response", "view", view, "error", err)
	}
}

// actionPath maps a controller action to its route
func actionPath(action string) string {
	switch action {
	case controller.ActionIndex:
		return "/products"
	default:
		return fmt.Sprintf("/products/%s", action)
	}
}

// writeJSON encodes body as the JSON response
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}
