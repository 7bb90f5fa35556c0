package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/apperrors"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/signaling"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Handler      *Handler
	Hub          *signaling.Hub
	HealthChecks map[string]HealthCheck
	Logger       zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handler

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger(cfg.Logger))
	router.Use(middleware.Recoverer)

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperrors.ErrMethodNotAllowed)
	})
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperrors.ErrNotFound)
	})

	router.Get("/health", healthHandler(cfg.Hub, cfg.HealthChecks))
	router.Get("/ws", cfg.Hub.ServeWS)

	// Edge devices hold no user credential.
	router.Post("/handleSensorIncomingData", h.HandleSensorIncomingData)
	router.Post("/updateSensorStatus", h.UpdateSensorStatus)
	router.Post("/verifyToken", h.VerifyToken)

	router.Group(func(r chi.Router) {
		r.Use(RequireIdentity(h.auth))
		r.Post("/getDeviceRegistrationToken", h.GetDeviceRegistrationToken)
		r.Post("/getAllDevicesForUser", h.GetAllDevicesForUser)
		r.Post("/getSensorsWithMotionDetected", h.GetSensorsWithMotionDetected)
		r.Post("/addNewDevice", h.AddNewDevice)
		r.Post("/removeDevice", h.RemoveDevice)
		r.Post("/getDeviceStatusIndicators", h.GetDeviceStatusIndicators)
	})

	router.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
			// Preflights fall through to the OPTIONS route, which answers 204.
			OptionsPassthrough: true,
		}))
		r.Get("/stream/{deviceID}/{action}", h.StreamControl)
		r.Post("/stream/{deviceID}/{action}", h.StreamControl)
		r.Options("/stream/{deviceID}/{action}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return router
}

type healthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Signaling signaling.Stats   `json:"signaling"`
}

func healthHandler(hub *signaling.Hub, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "healthy", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Str("dependency", name).Msg("Health check failed")
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		resp.Signaling = hub.Registry().Stats()

		writeJSON(w, status, resp)
	}
}
