package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"study-planner/internal/generator"
	"study-planner/internal/planner"
	"study-planner/internal/service"
)

const (
	ownerHeader  = "X-Owner"
	defaultOwner = "web"
	maxBodyBytes = 1 << 20
)

// PlanService is what the HTTP layer needs from the service package.
type PlanService interface {
	Generate(ctx context.Context, owner string, req service.PlanRequest, now time.Time) (*service.ScheduledPlan, error)
	Get(ctx context.Context, id string) (*service.ScheduledPlan, error)
}

// API serves the plan endpoints.
type API struct {
	plans   PlanService
	log     zerolog.Logger
	now     func() time.Time
	timeout time.Duration
}

func New(plans PlanService, log zerolog.Logger, timeout time.Duration) *API {
	return &API{
		plans:   plans,
		log:     log.With().Str("component", "api").Logger(),
		now:     time.Now,
		timeout: timeout,
	}
}

// Routes mounts the API onto a new router. metricsHandler may be nil.
func (a *API) Routes(metricsHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		if a.timeout > 0 {
			r.Use(middleware.Timeout(a.timeout))
		}
		r.Post("/generate-plan", a.handleGeneratePlan)
		r.Get("/plans/{id}", a.handleGetPlan)
	})
	return r
}

// POST /api/generate-plan
func (a *API) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req GeneratePlanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	constraints, err := planner.ParseConstraints(req.HoursPerDay, req.Deadline, req.DaysPerWeek)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	owner := r.Header.Get(ownerHeader)
	if owner == "" {
		owner = defaultOwner
	}

	plan, err := a.plans.Generate(r.Context(), owner, service.PlanRequest{Topic: req.Topic, Constraints: constraints}, a.now())
	if err != nil {
		status, msg := statusFor(err)
		a.log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Int("status", status).Msg("generate plan")
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(plan))
}

// GET /api/plans/{id}
func (a *API) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := a.plans.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, service.ErrNotFound.Error())
			return
		}
		a.log.Error().Err(err).Msg("get plan")
		writeError(w, http.StatusInternalServerError, "failed getting plan")
		return
	}
	writeJSON(w, http.StatusOK, toResponse(plan))
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, planner.ErrInvalidConstraints), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Failed to generate plan"
	case errors.Is(err, planner.ErrMalformedPlan), errors.Is(err, generator.ErrGeneration):
		return http.StatusBadGateway, "Failed to generate plan"
	default:
		return http.StatusInternalServerError, "Failed to generate plan"
	}
}

func toResponse(p *service.ScheduledPlan) PlanResponse {
	instances := p.Instances
	if instances == nil {
		instances = []planner.Instance{}
	}
	return PlanResponse{
		Success:     true,
		ID:          p.ID,
		Topic:       p.Topic,
		StartDate:   p.StartDate,
		HoursPerDay: p.Constraints.HoursPerDay,
		Deadline:    p.Constraints.DeadlineWeeks,
		DaysPerWeek: p.Constraints.DaysPerWeek,
		Plan:        instances,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Success: false, Error: msg})
}
