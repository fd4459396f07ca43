package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medagenda/clinic-scheduling/internal/auth"
	"github.com/medagenda/clinic-scheduling/internal/scheduling"
)

type RouterConfig struct {
	Slots        *scheduling.SlotRegistry
	Appointments *scheduling.AppointmentService
	FollowUps    *scheduling.FollowUpScheduler
	Verifier     *auth.Verifier
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Logger       zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(AuthMiddleware(cfg.Verifier))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Open to unauthenticated patients browsing availability.
	r.Get("/public/slots", listPublicSlotsHandler(cfg.Slots))

	r.Post("/slots", createSlotHandler(cfg.Slots))
	r.Get("/slots", listOwnSlotsHandler(cfg.Slots))
	r.Post("/slots/{id}/cancel", cancelSlotHandler(cfg.Slots))
	r.Post("/slots/{id}/reactivate", reactivateSlotHandler(cfg.Slots))

	r.Post("/appointments", bookAppointmentHandler(cfg.Appointments))
	r.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Appointments))
	r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Appointments))
	r.Post("/appointments/{id}/follow-up", scheduleFollowUpHandler(cfg.FollowUps))

	return r
}
