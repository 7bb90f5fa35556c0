package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/apperrors"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/repositories"
	"github.com/rs/zerolog"
)

type DeviceService struct {
	devices    repositories.DeviceRepository
	sensors    repositories.SensorRepository
	heartbeats repositories.HeartbeatRepository
	now        func() time.Time
	logger     zerolog.Logger
}

func NewDeviceService(
	devices repositories.DeviceRepository,
	sensors repositories.SensorRepository,
	heartbeats repositories.HeartbeatRepository,
	logger zerolog.Logger,
) *DeviceService {
	return &DeviceService{
		devices:    devices,
		sensors:    sensors,
		heartbeats: heartbeats,
		now:        time.Now,
		logger:     logger.With().Str("component", "devices").Logger(),
	}
}

func requireEmail(userEmail string) error {
	if strings.TrimSpace(userEmail) == "" {
		return apperrors.Validation("user_email is required")
	}
	return nil
}

func validateDevice(device *models.Device) error {
	if strings.TrimSpace(device.DeviceID) == "" {
		return apperrors.Validation("device_id is required")
	}
	return requireEmail(device.UserEmail)
}

func (s *DeviceService) ListDevices(ctx context.Context, userEmail string) ([]*models.Device, error) {
	if err := requireEmail(userEmail); err != nil {
		return nil, err
	}
	devices, err := s.devices.ListByUser(ctx, userEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}
	return devices, nil
}

func (s *DeviceService) ListMotionEvents(ctx context.Context, userEmail string) ([]*models.SensorEvent, error) {
	if err := requireEmail(userEmail); err != nil {
		return nil, err
	}
	events, err := s.sensors.ListMotionByUser(ctx, userEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}
	return events, nil
}

func (s *DeviceService) AddDevice(ctx context.Context, device *models.Device) error {
	if err := validateDevice(device); err != nil {
		return err
	}
	if err := s.devices.Add(ctx, device); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}
	s.logger.Info().Str("device_id", device.DeviceID).Str("user_email", device.UserEmail).Msg("Device added")
	return nil
}

// RemoveDevice deletes the device's sensor rows. Its heartbeats are kept.
func (s *DeviceService) RemoveDevice(ctx context.Context, device *models.Device) error {
	if err := validateDevice(device); err != nil {
		return err
	}
	err := s.devices.Remove(ctx, device)
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("device %s: %w", device.DeviceID, apperrors.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}
	s.logger.Info().Str("device_id", device.DeviceID).Str("user_email", device.UserEmail).Msg("Device removed")
	return nil
}

// StatusIndicators classifies every device of the user from its latest heartbeat.
func (s *DeviceService) StatusIndicators(ctx context.Context, userEmail string) (*models.DeviceStatusReport, error) {
	if err := requireEmail(userEmail); err != nil {
		return nil, err
	}

	heartbeats, err := s.heartbeats.LatestForUser(ctx, userEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}

	now := s.now().UTC()
	report := &models.DeviceStatusReport{
		UserEmail: userEmail,
		Devices:   make([]models.DeviceStatus, 0, len(heartbeats)),
	}

	for _, hb := range heartbeats {
		presence, err := NewPresence(now, hb)
		if err != nil {
			s.logger.Warn().Str("device_id", hb.DeviceID).Msg("Skipping heartbeat without timestamp")
			continue
		}

		status := models.DeviceStatus{
			DeviceID:             hb.DeviceID,
			ConnectionStatus:     presence.Status,
			VisualIndicator:      presence.Status.VisualIndicator(),
			LastSeen:             presence.LastSeen,
			MinutesSinceLastSeen: presence.MinutesSinceLastSeen,
			CPUTemp:              hb.CPUTemp,
			UptimeSeconds:        hb.UptimeSeconds,
			RawStatus:            hb.Status,
			HealthInfo: models.HealthInfo{
				IsHealthy:     presence.Status == models.StatusOnline,
				LastHeartbeat: presence.LastSeen,
			},
		}
		if hb.UptimeSeconds != nil {
			hours := float64(*hb.UptimeSeconds) / 3600
			status.HealthInfo.UptimeHours = &hours
		}
		report.Devices = append(report.Devices, status)

		switch presence.Status {
		case models.StatusOnline:
			report.Summary.Online++
		case models.StatusWarning:
			report.Summary.Warning++
		default:
			report.Summary.Offline++
		}
	}

	sort.Slice(report.Devices, func(i, j int) bool {
		return report.Devices[i].DeviceID < report.Devices[j].DeviceID
	})
	report.Summary.TotalDevices = len(report.Devices)
	report.Summary.LastUpdated = now

	return report, nil
}
