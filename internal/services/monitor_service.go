package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/repositories"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const monitorLockName = "status-monitor"

// TickReport summarises one monitor run.
type TickReport struct {
	Skipped     bool
	Classified  int
	Transitions int
}

// MonitorService periodically reclassifies every device and notifies users
// once per status transition. The first observation of a device only records
// a baseline.
type MonitorService struct {
	classifier *Classifier
	statuses   repositories.StatusRepository
	locker     repositories.Locker
	notifier   Notifier
	lockTTL    time.Duration
	logger     zerolog.Logger

	running atomic.Bool
	cron    *cron.Cron
}

func NewMonitorService(
	classifier *Classifier,
	statuses repositories.StatusRepository,
	locker repositories.Locker,
	notifier Notifier,
	lockTTL time.Duration,
	logger zerolog.Logger,
) *MonitorService {
	return &MonitorService{
		classifier: classifier,
		statuses:   statuses,
		locker:     locker,
		notifier:   notifier,
		lockTTL:    lockTTL,
		logger:     logger.With().Str("component", "monitor").Logger(),
	}
}

// Start schedules Tick with a standard five-field cron expression evaluated in location.
func (m *MonitorService) Start(schedule string, location *time.Location) error {
	if m.cron != nil {
		return errors.New("monitor is already running")
	}

	c := cron.New(cron.WithLocation(location))
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.lockTTL)
		defer cancel()
		m.Tick(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule monitor: %w", err)
	}

	m.cron = c
	c.Start()
	m.logger.Info().Str("schedule", schedule).Str("timezone", location.String()).Msg("Status monitor started")
	return nil
}

// Stop waits for a running tick to finish. The monitor can be started again.
func (m *MonitorService) Stop() {
	if m.cron == nil {
		return
	}
	<-m.cron.Stop().Done()
	m.cron = nil
	m.logger.Info().Msg("Status monitor stopped")
}

// Tick runs one classification pass. Overlapping runs, in this process or on
// another replica holding the lock, are skipped.
func (m *MonitorService) Tick(ctx context.Context) TickReport {
	if !m.running.CompareAndSwap(false, true) {
		m.logger.Warn().Msg("Previous monitor tick still running, skipping")
		return TickReport{Skipped: true}
	}
	defer m.running.Store(false)

	if m.locker != nil {
		release, err := m.locker.TryLock(ctx, monitorLockName, m.lockTTL)
		if err != nil {
			m.logger.Error().Err(err).Msg("Failed to acquire monitor lock, skipping tick")
			return TickReport{Skipped: true}
		}
		if release == nil {
			m.logger.Debug().Msg("Monitor lock held elsewhere, skipping tick")
			return TickReport{Skipped: true}
		}
		defer release()
	}

	snapshot, err := m.classifier.Snapshot(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to classify devices, skipping tick")
		return TickReport{}
	}

	report := TickReport{Classified: len(snapshot)}
	for _, presence := range snapshot {
		if m.observe(ctx, presence) {
			report.Transitions++
		}
	}

	m.logger.Info().
		Int("devices", report.Classified).
		Int("transitions", report.Transitions).
		Msg("Monitor tick complete")
	return report
}

func (m *MonitorService) observe(ctx context.Context, presence models.Presence) bool {
	log := m.logger.With().
		Str("device_id", presence.DeviceID).
		Str("user_email", presence.UserEmail).
		Logger()

	previous, err := m.statuses.GetLastKnown(ctx, presence.UserEmail, presence.DeviceID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		log.Error().Err(err).Msg("Failed to read last known status")
		return false
	}

	transition := previous != nil && previous.Status != presence.Status
	if transition {
		log.Info().
			Str("from", string(previous.Status)).
			Str("to", string(presence.Status)).
			Msg("Device status changed")
		m.notifier.Enqueue(models.NotificationEvent{
			Kind:             models.NotificationStatus,
			DeviceID:         presence.DeviceID,
			UserEmail:        presence.UserEmail,
			Timestamp:        presence.LastSeen.UTC().Format(time.RFC3339),
			ConnectionStatus: presence.Status,
		})
	}

	if err := m.statuses.SetLastKnown(ctx, presence.UserEmail, presence.DeviceID, &models.LastKnownStatus{
		Status:     presence.Status,
		ObservedAt: m.classifier.now(),
	}); err != nil {
		log.Error().Err(err).Msg("Failed to store last known status")
	}

	return transition
}
