package services

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// PushSender delivers one composed message to the push gateway.
type PushSender interface {
	Send(ctx context.Context, message *models.PushMessage) error
}

// NewFirebaseApp initialises the Firebase Admin SDK from a service account file.
func NewFirebaseApp(ctx context.Context, credentialsFile string) (*firebase.App, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase: %w", err)
	}
	return app, nil
}

type FCMSender struct {
	client *messaging.Client
	logger zerolog.Logger
}

func NewFCMSender(ctx context.Context, app *firebase.App, logger zerolog.Logger) (*FCMSender, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}
	return &FCMSender{
		client: client,
		logger: logger.With().Str("component", "fcm").Logger(),
	}, nil
}

func (s *FCMSender) Send(ctx context.Context, message *models.PushMessage) error {
	id, err := s.client.Send(ctx, &messaging.Message{
		Token: message.Token,
		Notification: &messaging.Notification{
			Title: message.Title,
			Body:  message.Body,
		},
		Data: message.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to send push message: %w", err)
	}

	s.logger.Debug().Str("message_id", id).Msg("Push message sent")
	return nil
}

// LogSender only logs messages. Used when no Firebase credentials are configured.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "push").Logger()}
}

func (s *LogSender) Send(_ context.Context, message *models.PushMessage) error {
	s.logger.Info().
		Str("title", message.Title).
		Str("body", message.Body).
		Interface("data", message.Data).
		Msg("Push delivery disabled, message logged")
	return nil
}
