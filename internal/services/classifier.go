package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/repositories"
	"github.com/rs/zerolog"
)

const (
	WarningAfter = 3 * time.Minute
	OfflineAfter = 5 * time.Minute
)

var ErrMissingHeartbeatTime = errors.New("heartbeat has no timestamp")

// Classify maps the time since the last heartbeat onto a connection status.
func Classify(now, lastSeen time.Time) models.ConnectionStatus {
	elapsed := now.Sub(lastSeen)
	switch {
	case elapsed < WarningAfter:
		return models.StatusOnline
	case elapsed < OfflineAfter:
		return models.StatusWarning
	default:
		return models.StatusOffline
	}
}

// NewPresence classifies a single heartbeat. Clock skew (a heartbeat from the
// future) reads as online, zero minutes.
func NewPresence(now time.Time, heartbeat *models.Heartbeat) (models.Presence, error) {
	if heartbeat.LastActivity.IsZero() {
		return models.Presence{}, ErrMissingHeartbeatTime
	}

	minutes := int(now.Sub(heartbeat.LastActivity) / time.Minute)
	if minutes < 0 {
		minutes = 0
	}

	return models.Presence{
		DeviceID:             heartbeat.DeviceID,
		UserEmail:            heartbeat.UserEmail,
		Status:               Classify(now, heartbeat.LastActivity),
		LastSeen:             heartbeat.LastActivity,
		MinutesSinceLastSeen: minutes,
	}, nil
}

type Classifier struct {
	heartbeats repositories.HeartbeatRepository
	now        func() time.Time
	logger     zerolog.Logger
}

func NewClassifier(heartbeats repositories.HeartbeatRepository, logger zerolog.Logger) *Classifier {
	return &Classifier{
		heartbeats: heartbeats,
		now:        time.Now,
		logger:     logger.With().Str("component", "classifier").Logger(),
	}
}

// Snapshot classifies the latest heartbeat of every device. Devices that never
// reported are absent; records without a timestamp are skipped.
func (c *Classifier) Snapshot(ctx context.Context) ([]models.Presence, error) {
	heartbeats, err := c.heartbeats.LatestPerDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest heartbeats: %w", err)
	}

	now := c.now()
	snapshot := make([]models.Presence, 0, len(heartbeats))
	for _, hb := range heartbeats {
		presence, err := NewPresence(now, hb)
		if err != nil {
			c.logger.Warn().
				Str("device_id", hb.DeviceID).
				Str("user_email", hb.UserEmail).
				Int64("heartbeat_id", hb.ID).
				Msg("Skipping heartbeat without timestamp")
			continue
		}
		snapshot = append(snapshot, presence)
	}

	return snapshot, nil
}
