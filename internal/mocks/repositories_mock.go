package mocks

import (
	"context"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockHeartbeatRepository is a mock implementation of repositories.HeartbeatRepository
type MockHeartbeatRepository struct {
	mock.Mock
}

func (m *MockHeartbeatRepository) Append(ctx context.Context, heartbeat *models.Heartbeat) error {
	args := m.Called(ctx, heartbeat)
	return args.Error(0)
}

func (m *MockHeartbeatRepository) LatestPerDevice(ctx context.Context) ([]*models.Heartbeat, error) {
	args := m.Called(ctx)
	heartbeats, _ := args.Get(0).([]*models.Heartbeat)
	return heartbeats, args.Error(1)
}

func (m *MockHeartbeatRepository) LatestForUser(ctx context.Context, userEmail string) ([]*models.Heartbeat, error) {
	args := m.Called(ctx, userEmail)
	heartbeats, _ := args.Get(0).([]*models.Heartbeat)
	return heartbeats, args.Error(1)
}

func (m *MockHeartbeatRepository) LatestIPAddress(ctx context.Context, deviceID, userEmail string) (string, error) {
	args := m.Called(ctx, deviceID, userEmail)
	return args.String(0), args.Error(1)
}

// MockSensorRepository is a mock implementation of repositories.SensorRepository
type MockSensorRepository struct {
	mock.Mock
}

func (m *MockSensorRepository) Create(ctx context.Context, event *models.SensorEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSensorRepository) ListMotionByUser(ctx context.Context, userEmail string) ([]*models.SensorEvent, error) {
	args := m.Called(ctx, userEmail)
	events, _ := args.Get(0).([]*models.SensorEvent)
	return events, args.Error(1)
}

// MockDeviceRepository is a mock implementation of repositories.DeviceRepository
type MockDeviceRepository struct {
	mock.Mock
}

func (m *MockDeviceRepository) Add(ctx context.Context, device *models.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockDeviceRepository) Remove(ctx context.Context, device *models.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockDeviceRepository) ListByUser(ctx context.Context, userEmail string) ([]*models.Device, error) {
	args := m.Called(ctx, userEmail)
	devices, _ := args.Get(0).([]*models.Device)
	return devices, args.Error(1)
}

// MockTokenRepository is a mock implementation of repositories.TokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Upsert(ctx context.Context, token *models.RegistrationToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) GetByEmail(ctx context.Context, userEmail string) ([]string, error) {
	args := m.Called(ctx, userEmail)
	tokens, _ := args.Get(0).([]string)
	return tokens, args.Error(1)
}

func (m *MockTokenRepository) SaveIdentity(ctx context.Context, identity *models.Identity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

// MockStatusRepository is a mock implementation of repositories.StatusRepository
type MockStatusRepository struct {
	mock.Mock
}

func (m *MockStatusRepository) GetLastKnown(ctx context.Context, userEmail, deviceID string) (*models.LastKnownStatus, error) {
	args := m.Called(ctx, userEmail, deviceID)
	status, _ := args.Get(0).(*models.LastKnownStatus)
	return status, args.Error(1)
}

func (m *MockStatusRepository) SetLastKnown(ctx context.Context, userEmail, deviceID string, status *models.LastKnownStatus) error {
	args := m.Called(ctx, userEmail, deviceID, status)
	return args.Error(0)
}

// MockLocker is a mock implementation of repositories.Locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	args := m.Called(ctx, name, ttl)
	release, _ := args.Get(0).(func())
	return release, args.Error(1)
}
