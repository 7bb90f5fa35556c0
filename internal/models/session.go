package models

import "time"

type Role string

const (
	RoleUnassigned Role = ""
	RoleCamera     Role = "camera"
	RoleViewer     Role = "viewer"
)

// Session is one signaling connection as seen by the registry.
type Session struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	DeviceID    string    `json:"device_id"`
	ConnectedAt time.Time `json:"connected_at"`
}
