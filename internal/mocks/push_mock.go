package mocks

import (
	"context"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockPushSender is a mock implementation of services.PushSender
type MockPushSender struct {
	mock.Mock
}

func (m *MockPushSender) Send(ctx context.Context, message *models.PushMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// MockNotifier is a mock implementation of services.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Enqueue(event models.NotificationEvent) bool {
	args := m.Called(event)
	return args.Bool(0)
}

// MockIdentityProvider is a mock implementation of services.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Verify(ctx context.Context, credential string) (*models.Identity, error) {
	args := m.Called(ctx, credential)
	identity, _ := args.Get(0).(*models.Identity)
	return identity, args.Error(1)
}
