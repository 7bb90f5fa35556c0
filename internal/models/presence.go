package models

import "time"

type ConnectionStatus string

const (
	StatusOnline  ConnectionStatus = "online"
	StatusWarning ConnectionStatus = "warning"
	StatusOffline ConnectionStatus = "offline"
)

// VisualIndicator is the colour tag clients render next to a device.
func (s ConnectionStatus) VisualIndicator() string {
	switch s {
	case StatusOnline:
		return "green"
	case StatusWarning:
		return "yellow"
	default:
		return "red"
	}
}

// Presence is one entry of a classification snapshot.
type Presence struct {
	DeviceID             string           `json:"device_id"`
	UserEmail            string           `json:"user_email"`
	Status               ConnectionStatus `json:"connection_status"`
	LastSeen             time.Time        `json:"last_seen"`
	MinutesSinceLastSeen int              `json:"minutes_since_last_seen"`
}

// LastKnownStatus is what the monitor remembers between ticks.
type LastKnownStatus struct {
	Status     ConnectionStatus `json:"status"`
	ObservedAt time.Time        `json:"observed_at"`
}
