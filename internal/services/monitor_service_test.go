package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/mocks"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/repositories"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type monitorFixture struct {
	heartbeats *mocks.MockHeartbeatRepository
	statuses   *mocks.MockStatusRepository
	notifier   *mocks.MockNotifier
	locker     *mocks.MockLocker
	monitor    *MonitorService
}

func newMonitorFixture(withLocker bool) *monitorFixture {
	f := &monitorFixture{
		heartbeats: new(mocks.MockHeartbeatRepository),
		statuses:   new(mocks.MockStatusRepository),
		notifier:   new(mocks.MockNotifier),
	}
	var locker repositories.Locker
	if withLocker {
		f.locker = new(mocks.MockLocker)
		locker = f.locker
	}
	f.monitor = NewMonitorService(newTestClassifier(f.heartbeats), f.statuses, locker, f.notifier, time.Minute, zerolog.Nop())
	return f
}

func TestMonitorTick_NotifiesOnTransition(t *testing.T) {
	// ARRANGE
	f := newMonitorFixture(false)
	f.heartbeats.On("LatestPerDevice", mock.Anything).Return([]*models.Heartbeat{
		{ID: 1, DeviceID: "dev1", UserEmail: "a@x.com", LastActivity: fixedNow.Add(-6 * time.Minute)},
	}, nil)
	f.statuses.On("GetLastKnown", mock.Anything, "a@x.com", "dev1").
		Return(&models.LastKnownStatus{Status: models.StatusOnline}, nil)
	f.statuses.On("SetLastKnown", mock.Anything, "a@x.com", "dev1", mock.MatchedBy(func(s *models.LastKnownStatus) bool {
		return s.Status == models.StatusOffline
	})).Return(nil)
	f.notifier.On("Enqueue", mock.MatchedBy(func(e models.NotificationEvent) bool {
		return e.Kind == models.NotificationStatus && e.ConnectionStatus == models.StatusOffline && e.DeviceID == "dev1"
	})).Return(true)

	// ACT
	report := f.monitor.Tick(context.Background())

	// ASSERT
	assert.Equal(t, TickReport{Classified: 1, Transitions: 1}, report)
	f.notifier.AssertNumberOfCalls(t, "Enqueue", 1)
	f.statuses.AssertExpectations(t)
}

func TestMonitorTick_NoNotificationWithoutChange(t *testing.T) {
	f := newMonitorFixture(false)
	f.heartbeats.On("LatestPerDevice", mock.Anything).Return([]*models.Heartbeat{
		{ID: 1, DeviceID: "dev1", UserEmail: "a@x.com", LastActivity: fixedNow.Add(-time.Minute)},
	}, nil)
	f.statuses.On("GetLastKnown", mock.Anything, "a@x.com", "dev1").
		Return(&models.LastKnownStatus{Status: models.StatusOnline}, nil)
	f.statuses.On("SetLastKnown", mock.Anything, "a@x.com", "dev1", mock.Anything).Return(nil)

	report := f.monitor.Tick(context.Background())
	report2 := f.monitor.Tick(context.Background())

	assert.Equal(t, 0, report.Transitions)
	assert.Equal(t, 0, report2.Transitions)
	f.notifier.AssertNotCalled(t, "Enqueue", mock.Anything)
}

func TestMonitorTick_FirstObservationIsBaseline(t *testing.T) {
	f := newMonitorFixture(false)
	f.heartbeats.On("LatestPerDevice", mock.Anything).Return([]*models.Heartbeat{
		{ID: 1, DeviceID: "dev1", UserEmail: "a@x.com", LastActivity: fixedNow.Add(-10 * time.Minute)},
	}, nil)
	f.statuses.On("GetLastKnown", mock.Anything, "a@x.com", "dev1").Return(nil, repositories.ErrNotFound)
	f.statuses.On("SetLastKnown", mock.Anything, "a@x.com", "dev1", mock.Anything).Return(nil)

	report := f.monitor.Tick(context.Background())

	assert.Equal(t, 1, report.Classified)
	assert.Equal(t, 0, report.Transitions)
	f.notifier.AssertNotCalled(t, "Enqueue", mock.Anything)
	f.statuses.AssertCalled(t, "SetLastKnown", mock.Anything, "a@x.com", "dev1", mock.Anything)
}

func TestMonitorTick_StatusReadFailureSkipsDevice(t *testing.T) {
	f := newMonitorFixture(false)
	f.heartbeats.On("LatestPerDevice", mock.Anything).Return([]*models.Heartbeat{
		{ID: 1, DeviceID: "dev1", UserEmail: "a@x.com", LastActivity: fixedNow.Add(-10 * time.Minute)},
	}, nil)
	f.statuses.On("GetLastKnown", mock.Anything, "a@x.com", "dev1").Return(nil, errors.New("redis down"))

	report := f.monitor.Tick(context.Background())

	assert.Equal(t, 0, report.Transitions)
	f.statuses.AssertNotCalled(t, "SetLastKnown", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMonitorTick_QueryFailureSkipsTick(t *testing.T) {
	f := newMonitorFixture(false)
	f.heartbeats.On("LatestPerDevice", mock.Anything).Return(nil, errors.New("connection refused"))

	report := f.monitor.Tick(context.Background())

	assert.Equal(t, TickReport{}, report)
	f.statuses.AssertNotCalled(t, "GetLastKnown", mock.Anything, mock.Anything, mock.Anything)
}

func TestMonitorTick_SkipsWhileRunning(t *testing.T) {
	f := newMonitorFixture(false)
	f.monitor.running.Store(true)

	report := f.monitor.Tick(context.Background())

	assert.True(t, report.Skipped)
	f.heartbeats.AssertNotCalled(t, "LatestPerDevice", mock.Anything)
}

func TestMonitorTick_SkipsWhenLockHeldElsewhere(t *testing.T) {
	f := newMonitorFixture(true)
	f.locker.On("TryLock", mock.Anything, monitorLockName, time.Minute).Return(nil, nil)

	report := f.monitor.Tick(context.Background())

	assert.True(t, report.Skipped)
	f.heartbeats.AssertNotCalled(t, "LatestPerDevice", mock.Anything)
}

func TestMonitorTick_ReleasesLock(t *testing.T) {
	f := newMonitorFixture(true)
	released := false
	f.locker.On("TryLock", mock.Anything, monitorLockName, time.Minute).Return(func() { released = true }, nil)
	f.heartbeats.On("LatestPerDevice", mock.Anything).Return([]*models.Heartbeat{}, nil)

	report := f.monitor.Tick(context.Background())

	assert.False(t, report.Skipped)
	assert.True(t, released)
}

func TestMonitor_StartRejectsBadSchedule(t *testing.T) {
	f := newMonitorFixture(false)

	err := f.monitor.Start("every five minutes", time.UTC)

	assert.Error(t, err)
}

func TestMonitor_StartStop(t *testing.T) {
	f := newMonitorFixture(false)
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Skip("tzdata not available")
	}

	assert.NoError(t, f.monitor.Start("*/5 * * * *", loc))
	assert.Error(t, f.monitor.Start("*/5 * * * *", loc))
	f.monitor.Stop()

	// Restart after stop.
	assert.NoError(t, f.monitor.Start("*/5 * * * *", loc))
	f.monitor.Stop()
	f.monitor.Stop()
}
