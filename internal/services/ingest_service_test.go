package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/apperrors"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/mocks"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ingestFixture struct {
	sensors    *mocks.MockSensorRepository
	heartbeats *mocks.MockHeartbeatRepository
	tokens     *mocks.MockTokenRepository
	notifier   *mocks.MockNotifier
	service    *IngestService
}

func newIngestFixture() *ingestFixture {
	f := &ingestFixture{
		sensors:    new(mocks.MockSensorRepository),
		heartbeats: new(mocks.MockHeartbeatRepository),
		tokens:     new(mocks.MockTokenRepository),
		notifier:   new(mocks.MockNotifier),
	}
	f.service = NewIngestService(f.sensors, f.heartbeats, f.tokens, f.notifier, zerolog.Nop())
	f.service.now = func() time.Time { return fixedNow }
	return f
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestRecordSensorEvent_StoresAndNotifies(t *testing.T) {
	// ARRANGE
	f := newIngestFixture()
	f.sensors.On("Create", mock.Anything, mock.MatchedBy(func(e *models.SensorEvent) bool {
		return e.DeviceID == "dev1" && e.UserEmail == "a@x.com" && *e.MotionDetected &&
			e.Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	})).Return(nil)
	f.notifier.On("Enqueue", mock.MatchedBy(func(e models.NotificationEvent) bool {
		return e.Kind == models.NotificationMotion && e.DeviceID == "dev1" && e.Timestamp == "2024-01-01T00:00:00Z"
	})).Return(true)

	// ACT
	_, err := f.service.RecordSensorEvent(context.Background(), &SensorEventRequest{
		DeviceID:       "dev1",
		TimeStamp:      strPtr("2024-01-01T00:00:00Z"),
		MotionDetected: boolPtr(true),
		UserEmail:      "a@x.com",
	})

	// ASSERT
	require.NoError(t, err)
	f.sensors.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestRecordSensorEvent_NoMotionNoNotification(t *testing.T) {
	f := newIngestFixture()
	f.sensors.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.service.RecordSensorEvent(context.Background(), &SensorEventRequest{
		DeviceID:       "dev1",
		TimeStamp:      strPtr("2024-01-01T00:00:00Z"),
		MotionDetected: boolPtr(false),
		UserEmail:      "a@x.com",
	})

	require.NoError(t, err)
	f.notifier.AssertNotCalled(t, "Enqueue", mock.Anything)
}

func TestRecordSensorEvent_Validation(t *testing.T) {
	valid := func() *SensorEventRequest {
		return &SensorEventRequest{
			DeviceID:       "dev1",
			TimeStamp:      strPtr("2024-01-01T00:00:00Z"),
			MotionDetected: boolPtr(true),
			UserEmail:      "a@x.com",
		}
	}
	cases := map[string]func(r *SensorEventRequest){
		"missing device":    func(r *SensorEventRequest) { r.DeviceID = "" },
		"missing email":     func(r *SensorEventRequest) { r.UserEmail = " " },
		"missing timestamp": func(r *SensorEventRequest) { r.TimeStamp = nil },
		"missing motion":    func(r *SensorEventRequest) { r.MotionDetected = nil },
		"bad timestamp":     func(r *SensorEventRequest) { r.TimeStamp = strPtr("last tuesday") },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newIngestFixture()
			req := valid()
			mutate(req)

			_, err := f.service.RecordSensorEvent(context.Background(), req)

			assert.ErrorIs(t, err, apperrors.ErrValidation)
			f.sensors.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestRecordSensorEvent_StoreFailure(t *testing.T) {
	f := newIngestFixture()
	f.sensors.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := f.service.RecordSensorEvent(context.Background(), &SensorEventRequest{
		DeviceID:       "dev1",
		TimeStamp:      strPtr("2024-01-01T00:00:00Z"),
		MotionDetected: boolPtr(true),
		UserEmail:      "a@x.com",
	})

	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	f.notifier.AssertNotCalled(t, "Enqueue", mock.Anything)
}

func TestRecordSensorEvent_FailedDispatchDoesNotFailIngest(t *testing.T) {
	// ARRANGE: real notifier whose token lookup fails
	sensors := new(mocks.MockSensorRepository)
	tokens := new(mocks.MockTokenRepository)
	sender := new(mocks.MockPushSender)
	sensors.On("Create", mock.Anything, mock.Anything).Return(nil)
	tokens.On("GetByEmail", mock.Anything, "a@x.com").Return(nil, errors.New("database is down"))
	pool := utils.NewWorkerPool(1, 4, zerolog.Nop())
	notifier := NewNotificationService(tokens, sender, pool, time.Second, zerolog.Nop())
	service := NewIngestService(sensors, new(mocks.MockHeartbeatRepository), tokens, notifier, zerolog.Nop())

	// ACT
	_, err := service.RecordSensorEvent(context.Background(), &SensorEventRequest{
		DeviceID:       "dev1",
		TimeStamp:      strPtr("2024-01-01T00:00:00Z"),
		MotionDetected: boolPtr(true),
		UserEmail:      "a@x.com",
	})
	pool.Shutdown()

	// ASSERT
	require.NoError(t, err)
	tokens.AssertNumberOfCalls(t, "GetByEmail", 1)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestRecordHeartbeat_ServerAssignsTime(t *testing.T) {
	f := newIngestFixture()
	var stored *models.Heartbeat
	f.heartbeats.On("Append", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.Heartbeat)
	}).Return(nil)
	temp := 48.5
	uptime := int64(7200)

	_, err := f.service.RecordHeartbeat(context.Background(), &HeartbeatRequest{
		DeviceID:  "dev1",
		Status:    "active",
		UserEmail: "a@x.com",
		IPAddress: strPtr("10.0.0.5"),
		SystemInfo: &SystemInfo{
			CPUTemp:       &temp,
			UptimeSeconds: &uptime,
			Timestamp:     strPtr("1999-01-01T00:00:00Z"),
		},
	})

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, fixedNow, stored.LastActivity)
	assert.Equal(t, "1999-01-01T00:00:00Z", *stored.ReportedAt)
	assert.Equal(t, 48.5, *stored.CPUTemp)
	assert.Equal(t, int64(7200), *stored.UptimeSeconds)
	assert.Equal(t, "10.0.0.5", *stored.IPAddress)
}

func TestRecordHeartbeat_Validation(t *testing.T) {
	f := newIngestFixture()

	_, err := f.service.RecordHeartbeat(context.Background(), &HeartbeatRequest{DeviceID: "dev1", UserEmail: "a@x.com"})

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	f.heartbeats.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestRegisterToken(t *testing.T) {
	f := newIngestFixture()
	f.tokens.On("Upsert", mock.Anything, &models.RegistrationToken{UserEmail: "a@x.com", Token: "tok-1"}).Return(nil)

	require.NoError(t, f.service.RegisterToken(context.Background(), "a@x.com", "tok-1"))
	assert.ErrorIs(t, f.service.RegisterToken(context.Background(), "a@x.com", ""), apperrors.ErrValidation)
	assert.ErrorIs(t, f.service.RegisterToken(context.Background(), "", "tok-1"), apperrors.ErrValidation)
	f.tokens.AssertNumberOfCalls(t, "Upsert", 1)
}
