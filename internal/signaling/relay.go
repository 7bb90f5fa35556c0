package signaling

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/rs/zerolog"
)

// Sender delivers an encoded envelope to one session.
type Sender interface {
	Send(sessionID string, payload []byte) bool
}

// Relay routes signaling messages between the camera of a device and its
// viewers. It is not safe for concurrent use; the hub drives it from a single
// goroutine.
type Relay struct {
	registry *Registry
	sender   Sender
	logger   zerolog.Logger
}

func NewRelay(registry *Registry, sender Sender, logger zerolog.Logger) *Relay {
	return &Relay{
		registry: registry,
		sender:   sender,
		logger:   logger.With().Str("component", "relay").Logger(),
	}
}

func (r *Relay) Connect(sessionID string) {
	r.registry.OnConnect(sessionID)
}

// Disconnect drops the session. Viewers lose their camera when it was one.
func (r *Relay) Disconnect(sessionID string) {
	session, ok := r.registry.OnDisconnect(sessionID)
	if !ok {
		return
	}
	if session.Role == models.RoleCamera {
		r.cameraGone(session.DeviceID, "")
	}
}

// Handle processes one raw frame received from sessionID.
func (r *Relay) Handle(sessionID string, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
		r.sendError(sessionID, "malformed message")
		return
	}

	switch env.Type {
	case EventRegister:
		r.handleRegister(sessionID, env.Data)
	case EventOffer:
		r.handleOffer(sessionID, env.Data)
	case EventAnswer:
		r.handleAnswer(sessionID, env.Data)
	case EventICECandidate:
		r.handleICECandidate(sessionID, env.Data)
	case EventStream:
		r.handleStream(sessionID, env.Data)
	default:
		r.sendError(sessionID, "unknown event type "+env.Type)
	}
}

func parseRegister(data json.RawMessage) (RegisterPayload, error) {
	var payload RegisterPayload
	if err := json.Unmarshal(data, &payload); err == nil {
		return payload, nil
	}
	// Bare role string, as older clients send it.
	var role string
	if err := json.Unmarshal(data, &role); err != nil {
		return payload, err
	}
	payload.Type = role
	return payload, nil
}

func (r *Relay) handleRegister(sessionID string, data json.RawMessage) {
	payload, err := parseRegister(data)
	if err != nil {
		r.sendError(sessionID, "malformed register payload")
		return
	}

	role := models.Role(strings.ToLower(payload.Type))
	previous, err := r.registry.OnRegister(sessionID, role, payload.DeviceID)
	switch {
	case errors.Is(err, ErrProducerConflict):
		r.sendError(sessionID, "device already has a camera")
		return
	case errors.Is(err, ErrInvalidRegistration):
		r.sendError(sessionID, "register requires type camera or viewer and a device_id")
		return
	case err != nil:
		r.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Register from unknown session")
		return
	}

	log := r.logger.With().Str("session_id", sessionID).Str("device_id", payload.DeviceID).Logger()
	if previous.Role == models.RoleCamera && (role != models.RoleCamera || previous.DeviceID != payload.DeviceID) {
		r.cameraGone(previous.DeviceID, sessionID)
	}

	device := devicePayload{DeviceID: payload.DeviceID}
	switch role {
	case models.RoleCamera:
		log.Info().Msg("Camera registered")
		for _, viewer := range r.registry.Viewers(payload.DeviceID) {
			r.send(viewer, encode(EventCameraAvailable, device))
		}
		r.send(sessionID, encode(EventCreateOffer, device))

	case models.RoleViewer:
		log.Info().Msg("Viewer registered")
		producer, ok := r.registry.Producer(payload.DeviceID)
		if !ok {
			r.send(sessionID, encode(EventNoCamera, device))
			return
		}
		r.send(sessionID, encode(EventCameraAvailable, device))
		r.send(producer, encode(EventCreateOffer, device))
	}
}

// handleOffer forwards a camera's offer to the viewers of its device.
func (r *Relay) handleOffer(sessionID string, data json.RawMessage) {
	session, ok := r.registry.Get(sessionID)
	if !ok || session.Role != models.RoleCamera {
		r.logger.Warn().Str("session_id", sessionID).Msg("Dropping offer from non-camera session")
		return
	}

	viewers := r.registry.Viewers(session.DeviceID)
	if len(viewers) == 0 {
		r.logger.Debug().Str("device_id", session.DeviceID).Msg("No viewers, offer dropped")
		return
	}

	payload := encodeRaw(EventOffer, data)
	for _, viewer := range viewers {
		r.send(viewer, payload)
	}
}

// handleAnswer forwards a viewer's answer to the camera of its device only.
func (r *Relay) handleAnswer(sessionID string, data json.RawMessage) {
	session, ok := r.registry.Get(sessionID)
	if !ok || session.Role != models.RoleViewer {
		r.logger.Warn().Str("session_id", sessionID).Msg("Dropping answer from non-viewer session")
		return
	}

	producer, ok := r.registry.Producer(session.DeviceID)
	if !ok {
		r.logger.Debug().Str("device_id", session.DeviceID).Msg("No camera, answer dropped")
		return
	}
	r.send(producer, encodeRaw(EventAnswer, data))
}

func (r *Relay) handleICECandidate(sessionID string, data json.RawMessage) {
	session, ok := r.registry.Get(sessionID)
	if !ok || session.Role == models.RoleUnassigned {
		r.logger.Warn().Str("session_id", sessionID).Msg("Dropping ICE candidate from unregistered session")
		return
	}
	if !isObject(data) {
		r.logger.Warn().Str("session_id", sessionID).Msg("Dropping malformed ICE candidate")
		return
	}

	payload := encodeRaw(EventICECandidate, data)
	switch session.Role {
	case models.RoleCamera:
		for _, viewer := range r.registry.Viewers(session.DeviceID) {
			r.send(viewer, payload)
		}
	case models.RoleViewer:
		if producer, ok := r.registry.Producer(session.DeviceID); ok {
			r.send(producer, payload)
		}
	}
}

// handleStream relays a JPEG frame from a camera to its viewers.
func (r *Relay) handleStream(sessionID string, data json.RawMessage) {
	session, ok := r.registry.Get(sessionID)
	if !ok || session.Role != models.RoleCamera {
		r.sendError(sessionID, "only cameras may stream")
		return
	}

	var frame StreamFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Image == "" {
		r.sendError(sessionID, "malformed stream frame")
		return
	}
	if _, err := base64.StdEncoding.DecodeString(frame.Image); err != nil {
		r.sendError(sessionID, "stream image is not valid base64")
		return
	}
	frame.DeviceID = session.DeviceID

	payload := encode(EventStream, frame)
	for _, viewer := range r.registry.Viewers(session.DeviceID) {
		r.send(viewer, payload)
	}
}

// cameraGone tells the device's viewers the camera left. except is skipped,
// so a camera that re-registers as a viewer is not told twice.
func (r *Relay) cameraGone(deviceID, except string) {
	r.logger.Info().Str("device_id", deviceID).Msg("Camera left")
	payload := encode(EventNoCamera, devicePayload{DeviceID: deviceID})
	for _, viewer := range r.registry.Viewers(deviceID) {
		if viewer == except {
			continue
		}
		r.send(viewer, payload)
	}
}

func (r *Relay) sendError(sessionID, message string) {
	r.send(sessionID, encode(EventError, errorPayload{Message: message}))
}

func (r *Relay) send(sessionID string, payload []byte) {
	if !r.sender.Send(sessionID, payload) {
		r.logger.Debug().Str("session_id", sessionID).Msg("Message not delivered")
	}
}
