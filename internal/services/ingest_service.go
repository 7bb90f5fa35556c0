package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/apperrors"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/repositories"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/utils"
	"github.com/rs/zerolog"
)

type SensorEventRequest struct {
	DeviceID       string  `json:"device_id"`
	TimeStamp      *string `json:"timeStamp"`
	MotionDetected *bool   `json:"motion_detected"`
	UserEmail      string  `json:"user_email"`
}

type SystemInfo struct {
	CPUTemp       *float64 `json:"cpu_temp"`
	UptimeSeconds *int64   `json:"uptime_seconds"`
	Timestamp     *string  `json:"timestamp"`
}

type HeartbeatRequest struct {
	DeviceID      string      `json:"device_id"`
	Status        string      `json:"status"`
	UserEmail     string      `json:"user_email"`
	Timestamp     *string     `json:"timestamp"`
	IPAddress     *string     `json:"ip_address"`
	CPUTemp       *float64    `json:"cpu_temp"`
	UptimeSeconds *int64      `json:"uptime_seconds"`
	SystemInfo    *SystemInfo `json:"system_info"`
}

type IngestService struct {
	sensors    repositories.SensorRepository
	heartbeats repositories.HeartbeatRepository
	tokens     repositories.TokenRepository
	notifier   Notifier
	now        func() time.Time
	logger     zerolog.Logger
}

func NewIngestService(
	sensors repositories.SensorRepository,
	heartbeats repositories.HeartbeatRepository,
	tokens repositories.TokenRepository,
	notifier Notifier,
	logger zerolog.Logger,
) *IngestService {
	return &IngestService{
		sensors:    sensors,
		heartbeats: heartbeats,
		tokens:     tokens,
		notifier:   notifier,
		now:        time.Now,
		logger:     logger.With().Str("component", "ingest").Logger(),
	}
}

// RecordSensorEvent stores a sensor event and, when motion was detected,
// enqueues a notification. Delivery never affects the result.
func (s *IngestService) RecordSensorEvent(ctx context.Context, req *SensorEventRequest) (*models.SensorEvent, error) {
	switch {
	case strings.TrimSpace(req.DeviceID) == "":
		return nil, apperrors.Validation("device_id is required")
	case strings.TrimSpace(req.UserEmail) == "":
		return nil, apperrors.Validation("user_email is required")
	case req.TimeStamp == nil:
		return nil, apperrors.Validation("timeStamp is required")
	case req.MotionDetected == nil:
		return nil, apperrors.Validation("motion_detected is required")
	}

	at, err := utils.ParseTimestamp(*req.TimeStamp)
	if err != nil {
		return nil, apperrors.Validation("timeStamp must be an ISO-8601 timestamp")
	}

	event := &models.SensorEvent{
		DeviceID:       req.DeviceID,
		UserEmail:      req.UserEmail,
		Timestamp:      &at,
		MotionDetected: req.MotionDetected,
	}
	if err := s.sensors.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}

	if *req.MotionDetected {
		s.notifier.Enqueue(models.NotificationEvent{
			Kind:           models.NotificationMotion,
			DeviceID:       req.DeviceID,
			UserEmail:      req.UserEmail,
			Timestamp:      *req.TimeStamp,
			MotionDetected: true,
		})
	}

	return event, nil
}

// RecordHeartbeat appends a heartbeat. The server clock is authoritative; the
// device's own timestamp is kept as reported.
func (s *IngestService) RecordHeartbeat(ctx context.Context, req *HeartbeatRequest) (*models.Heartbeat, error) {
	switch {
	case strings.TrimSpace(req.DeviceID) == "":
		return nil, apperrors.Validation("device_id is required")
	case strings.TrimSpace(req.Status) == "":
		return nil, apperrors.Validation("status is required")
	case strings.TrimSpace(req.UserEmail) == "":
		return nil, apperrors.Validation("user_email is required")
	}

	heartbeat := &models.Heartbeat{
		DeviceID:      req.DeviceID,
		UserEmail:     req.UserEmail,
		Status:        req.Status,
		LastActivity:  s.now().UTC(),
		CPUTemp:       req.CPUTemp,
		UptimeSeconds: req.UptimeSeconds,
		ReportedAt:    req.Timestamp,
		IPAddress:     req.IPAddress,
	}
	if info := req.SystemInfo; info != nil {
		if info.CPUTemp != nil {
			heartbeat.CPUTemp = info.CPUTemp
		}
		if info.UptimeSeconds != nil {
			heartbeat.UptimeSeconds = info.UptimeSeconds
		}
		if heartbeat.ReportedAt == nil {
			heartbeat.ReportedAt = info.Timestamp
		}
	}
	if heartbeat.IPAddress != nil && *heartbeat.IPAddress == "" {
		heartbeat.IPAddress = nil
	}

	if err := s.heartbeats.Append(ctx, heartbeat); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}

	s.logger.Debug().
		Str("device_id", heartbeat.DeviceID).
		Str("status", heartbeat.Status).
		Msg("Heartbeat stored")
	return heartbeat, nil
}

// RegisterToken stores the push registration token of a user's app.
func (s *IngestService) RegisterToken(ctx context.Context, userEmail, token string) error {
	if strings.TrimSpace(userEmail) == "" {
		return apperrors.Validation("email is required")
	}
	if strings.TrimSpace(token) == "" {
		return apperrors.Validation("token is required")
	}

	if err := s.tokens.Upsert(ctx, &models.RegistrationToken{UserEmail: userEmail, Token: token}); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}
	return nil
}
