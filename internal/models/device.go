package models

import "time"

type Device struct {
	DeviceID  string `json:"device_id"`
	UserEmail string `json:"user_email"`
}

type HealthInfo struct {
	IsHealthy     bool      `json:"is_healthy"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	UptimeHours   *float64  `json:"uptime_hours,omitempty"`
}

// DeviceStatus is the per-device row of the status indicator response.
type DeviceStatus struct {
	DeviceID             string           `json:"device_id"`
	ConnectionStatus     ConnectionStatus `json:"connection_status"`
	VisualIndicator      string           `json:"visual_indicator"`
	LastSeen             time.Time        `json:"last_seen"`
	MinutesSinceLastSeen int              `json:"minutes_since_last_seen"`
	CPUTemp              *float64         `json:"cpu_temp,omitempty"`
	UptimeSeconds        *int64           `json:"uptime_seconds,omitempty"`
	RawStatus            string           `json:"raw_status"`
	HealthInfo           HealthInfo       `json:"health_info"`
}

type StatusSummary struct {
	TotalDevices int       `json:"total_devices"`
	Online       int       `json:"online"`
	Warning      int       `json:"warning"`
	Offline      int       `json:"offline"`
	LastUpdated  time.Time `json:"last_updated"`
}

type DeviceStatusReport struct {
	UserEmail string         `json:"user_email"`
	Summary   StatusSummary  `json:"summary"`
	Devices   []DeviceStatus `json:"devices"`
}
