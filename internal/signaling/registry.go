package signaling

import (
	"errors"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	ErrUnknownSession      = errors.New("unknown session")
	ErrInvalidRegistration = errors.New("invalid registration")
	ErrProducerConflict    = errors.New("device already has a camera")
)

// Registry maps signaling sessions to their role and device. State lives in
// memory only and is rebuilt from new connections after a restart.
type Registry struct {
	sessions  cmap.ConcurrentMap[string, models.Session]
	producers cmap.ConcurrentMap[string, string] // device id -> session id
	now       func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:  cmap.New[models.Session](),
		producers: cmap.New[string](),
		now:       time.Now,
	}
}

// OnConnect records an unassigned session.
func (r *Registry) OnConnect(sessionID string) {
	r.sessions.Set(sessionID, models.Session{ID: sessionID, ConnectedAt: r.now()})
}

// OnRegister assigns role and device to a session and returns its previous
// state. A device accepts a single camera at a time.
func (r *Registry) OnRegister(sessionID string, role models.Role, deviceID string) (models.Session, error) {
	if role != models.RoleCamera && role != models.RoleViewer {
		return models.Session{}, ErrInvalidRegistration
	}
	if deviceID == "" {
		return models.Session{}, ErrInvalidRegistration
	}

	previous, ok := r.sessions.Get(sessionID)
	if !ok {
		return models.Session{}, ErrUnknownSession
	}

	if role == models.RoleCamera && !r.producers.SetIfAbsent(deviceID, sessionID) {
		if owner, _ := r.producers.Get(deviceID); owner != sessionID {
			return previous, ErrProducerConflict
		}
	}

	if previous.Role == models.RoleCamera && (role != models.RoleCamera || previous.DeviceID != deviceID) {
		r.releaseProducer(previous.DeviceID, sessionID)
	}

	updated := previous
	updated.Role = role
	updated.DeviceID = deviceID
	r.sessions.Set(sessionID, updated)

	return previous, nil
}

// OnDisconnect removes the session. Safe for sessions that never registered.
func (r *Registry) OnDisconnect(sessionID string) (models.Session, bool) {
	session, ok := r.sessions.Pop(sessionID)
	if !ok {
		return models.Session{}, false
	}
	if session.Role == models.RoleCamera {
		r.releaseProducer(session.DeviceID, sessionID)
	}
	return session, true
}

func (r *Registry) releaseProducer(deviceID, sessionID string) {
	r.producers.RemoveCb(deviceID, func(_ string, owner string, exists bool) bool {
		return exists && owner == sessionID
	})
}

func (r *Registry) Get(sessionID string) (models.Session, bool) {
	return r.sessions.Get(sessionID)
}

// Producer returns the camera session registered for the device.
func (r *Registry) Producer(deviceID string) (string, bool) {
	return r.producers.Get(deviceID)
}

// Viewers returns the viewer sessions of the device.
func (r *Registry) Viewers(deviceID string) []string {
	var viewers []string
	for item := range r.sessions.IterBuffered() {
		if item.Val.Role == models.RoleViewer && item.Val.DeviceID == deviceID {
			viewers = append(viewers, item.Key)
		}
	}
	return viewers
}

func (r *Registry) Count() int {
	return r.sessions.Count()
}

// Stats counts live sessions by role.
type Stats struct {
	Sessions int `json:"sessions"`
	Cameras  int `json:"cameras"`
	Viewers  int `json:"viewers"`
	Pending  int `json:"unregistered"`
}

func (r *Registry) Stats() Stats {
	var stats Stats
	for item := range r.sessions.IterBuffered() {
		stats.Sessions++
		switch item.Val.Role {
		case models.RoleCamera:
			stats.Cameras++
		case models.RoleViewer:
			stats.Viewers++
		default:
			stats.Pending++
		}
	}
	return stats
}
