package models

import "time"

// Heartbeat is one row of the append-only heartbeat log.
type Heartbeat struct {
	ID            int64     `json:"id"`
	DeviceID      string    `json:"device_id"`
	UserEmail     string    `json:"user_email"`
	Status        string    `json:"status"`
	LastActivity  time.Time `json:"last_activity"`
	CPUTemp       *float64  `json:"cpu_temp,omitempty"`
	UptimeSeconds *int64    `json:"uptime_seconds,omitempty"`
	ReportedAt    *string   `json:"reported_at,omitempty"`
	IPAddress     *string   `json:"ip_address,omitempty"`
}
