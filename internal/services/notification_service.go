package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/apperrors"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/repositories"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/utils"
	"github.com/rs/zerolog"
)

var (
	ErrNoNotificationTarget = fmt.Errorf("no registration token for user: %w", apperrors.ErrNotFound)
	ErrAmbiguousTarget      = fmt.Errorf("multiple registration tokens for user: %w", apperrors.ErrAmbiguousState)
)

// Notifier accepts notification events without blocking the caller.
type Notifier interface {
	Enqueue(event models.NotificationEvent) bool
}

// NotificationService resolves a user's registration token, composes the
// message and hands it to the push gateway. Failed deliveries are not retried.
type NotificationService struct {
	tokens  repositories.TokenRepository
	sender  PushSender
	pool    *utils.WorkerPool
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

func NewNotificationService(
	tokens repositories.TokenRepository,
	sender PushSender,
	pool *utils.WorkerPool,
	timeout time.Duration,
	logger zerolog.Logger,
) *NotificationService {
	return &NotificationService{
		tokens:  tokens,
		sender:  sender,
		pool:    pool,
		timeout: timeout,
		now:     time.Now,
		logger:  logger.With().Str("component", "notifier").Logger(),
	}
}

// Dispatch sends the notification for event synchronously.
func (s *NotificationService) Dispatch(ctx context.Context, event models.NotificationEvent) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tokens, err := s.tokens.GetByEmail(ctx, event.UserEmail)
	if err != nil {
		return fmt.Errorf("failed to resolve registration token: %w: %w", apperrors.ErrUnavailable, err)
	}

	switch {
	case len(tokens) == 0:
		return ErrNoNotificationTarget
	case len(tokens) > 1:
		return ErrAmbiguousTarget
	case tokens[0] == "":
		return ErrNoNotificationTarget
	}

	message := s.compose(event, tokens[0])
	if err := s.sender.Send(ctx, message); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}

	return nil
}

// Enqueue schedules Dispatch on the worker pool. A full queue drops the event.
func (s *NotificationService) Enqueue(event models.NotificationEvent) bool {
	accepted := s.pool.TrySubmit(func() {
		if err := s.Dispatch(context.Background(), event); err != nil {
			s.logger.Error().Err(err).
				Str("kind", string(event.Kind)).
				Str("device_id", event.DeviceID).
				Str("user_email", event.UserEmail).
				Msg("Notification not delivered")
			return
		}
		s.logger.Info().
			Str("kind", string(event.Kind)).
			Str("device_id", event.DeviceID).
			Msg("Notification delivered")
	})
	if !accepted {
		s.logger.Warn().
			Str("kind", string(event.Kind)).
			Str("device_id", event.DeviceID).
			Msg("Notification queue full, dropping event")
	}
	return accepted
}

func (s *NotificationService) compose(event models.NotificationEvent, token string) *models.PushMessage {
	at, err := utils.ParseTimestamp(event.Timestamp)
	if err != nil {
		s.logger.Warn().Str("timestamp", event.Timestamp).Msg("Invalid event timestamp, using current time")
		at = s.now()
	}
	formatted := at.UTC().Format(time.RFC3339)

	data := map[string]string{
		"deviceId":  event.DeviceID,
		"timestamp": formatted,
		"userEmail": event.UserEmail,
	}

	message := &models.PushMessage{Token: token, Data: data}
	switch event.Kind {
	case models.NotificationStatus:
		message.Title = "Device status changed"
		message.Body = fmt.Sprintf("Device %s is now %s", event.DeviceID, event.ConnectionStatus)
		data["connectionStatus"] = string(event.ConnectionStatus)
	default:
		message.Title = "New Mail Alert"
		message.Body = "New mail is delivered in your mailbox on " + formatted
		data["motionDetected"] = strconv.FormatBool(event.MotionDetected)
	}

	return message
}
