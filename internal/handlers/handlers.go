package handlers

import (
	"context"
	"net/http"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/services"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	ingest  *services.IngestService
	devices *services.DeviceService
	stream  *services.StreamService
	auth    *services.AuthService
}

func NewHandler(
	ingest *services.IngestService,
	devices *services.DeviceService,
	stream *services.StreamService,
	auth *services.AuthService,
) *Handler {
	return &Handler{ingest: ingest, devices: devices, stream: stream, auth: auth}
}

type userRequest struct {
	UserEmail string `json:"user_email"`
}

type tokenRequest struct {
	Email     string `json:"email"`
	UserEmail string `json:"user_email"`
	Token     string `json:"token"`
}

func (h *Handler) HandleSensorIncomingData(w http.ResponseWriter, r *http.Request) {
	var req services.SensorEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	event, err := h.ingest.RecordSensorEvent(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Sensor data received", "id": event.ID})
}

func (h *Handler) UpdateSensorStatus(w http.ResponseWriter, r *http.Request) {
	var req services.HeartbeatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.ingest.RecordHeartbeat(r.Context(), &req); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Status updated"})
}

// GetDeviceRegistrationToken stores the caller's push token. Values may come
// from the query string or the JSON body.
func (h *Handler) GetDeviceRegistrationToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	query := r.URL.Query()
	email := firstNonEmpty(req.Email, req.UserEmail, query.Get("email"), query.Get("user_email"))
	token := firstNonEmpty(req.Token, query.Get("token"))

	if err := authorizeEmail(r, email); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.ingest.RegisterToken(r.Context(), email, token); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Token saved"})
}

func (h *Handler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	identity, err := h.auth.VerifyAndRecord(r.Context(), firstNonEmpty(bearerToken(r), req.Token))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

// withUser decodes {"user_email": ...}, checks ownership and runs fn.
func (h *Handler) withUser(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userEmail string) (any, error)) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := authorizeEmail(r, req.UserEmail); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := fn(r.Context(), req.UserEmail)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetAllDevicesForUser(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(ctx context.Context, userEmail string) (any, error) {
		return h.devices.ListDevices(ctx, userEmail)
	})
}

func (h *Handler) GetSensorsWithMotionDetected(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(ctx context.Context, userEmail string) (any, error) {
		return h.devices.ListMotionEvents(ctx, userEmail)
	})
}

func (h *Handler) GetDeviceStatusIndicators(w http.ResponseWriter, r *http.Request) {
	h.withUser(w, r, func(ctx context.Context, userEmail string) (any, error) {
		return h.devices.StatusIndicators(ctx, userEmail)
	})
}

func (h *Handler) AddNewDevice(w http.ResponseWriter, r *http.Request) {
	h.changeDevice(w, r, h.devices.AddDevice, "Device added")
}

func (h *Handler) RemoveDevice(w http.ResponseWriter, r *http.Request) {
	h.changeDevice(w, r, h.devices.RemoveDevice, "Device removed")
}

func (h *Handler) changeDevice(w http.ResponseWriter, r *http.Request, fn func(context.Context, *models.Device) error, message string) {
	var device models.Device
	if err := decodeJSON(r, &device); err != nil {
		writeError(w, r, err)
		return
	}
	if err := authorizeEmail(r, device.UserEmail); err != nil {
		writeError(w, r, err)
		return
	}
	if err := fn(r.Context(), &device); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: message})
}

// StreamControl proxies start/stop/status to the device. Start and stop
// report 502 when the device did not accept the call. An optional user_email
// query parameter picks that user's device when ids collide.
func (h *Handler) StreamControl(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	userEmail := r.URL.Query().Get("user_email")
	result, err := h.stream.Control(r.Context(), chi.URLParam(r, "deviceID"), userEmail, action)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if action != services.StreamStatus && !result.Reachable() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
