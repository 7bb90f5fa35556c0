package models

import "time"

type SensorEvent struct {
	ID             int64      `json:"id"`
	DeviceID       string     `json:"device_id"`
	UserEmail      string     `json:"linked_user_email"`
	Timestamp      *time.Time `json:"timestamp"`
	MotionDetected *bool      `json:"motion_detected"`
	CreatedAt      time.Time  `json:"created_at"`
}
