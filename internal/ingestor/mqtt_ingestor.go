// Package ingestor feeds sensor events and heartbeats published over MQTT into
// the same ingest path as the HTTP endpoints.
package ingestor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/services"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	sensorTopic    = "sensor"
	heartbeatTopic = "heartbeat"

	handleTimeout = 10 * time.Second
)

// Recorder is the part of the ingest service the MQTT path uses.
type Recorder interface {
	RecordSensorEvent(ctx context.Context, req *services.SensorEventRequest) (*models.SensorEvent, error)
	RecordHeartbeat(ctx context.Context, req *services.HeartbeatRequest) (*models.Heartbeat, error)
}

type Config struct {
	BrokerURL   string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
}

type Ingestor struct {
	cfg      Config
	recorder Recorder
	client   mqtt.Client
	logger   zerolog.Logger
}

func New(cfg Config, recorder Recorder, logger zerolog.Logger) *Ingestor {
	return &Ingestor{
		cfg:      cfg,
		recorder: recorder,
		logger:   logger.With().Str("component", "mqtt").Logger(),
	}
}

func (i *Ingestor) topic(kind string) string {
	return strings.TrimSuffix(i.cfg.TopicPrefix, "/") + "/" + kind
}

func (i *Ingestor) Start() error {
	// Replicas share a configured client id prefix.
	clientID := fmt.Sprintf("%s-%s", i.cfg.ClientID, uuid.NewString()[:8])

	opts := mqtt.NewClientOptions().
		AddBroker(i.cfg.BrokerURL).
		SetClientID(clientID).
		SetOrderMatters(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if i.cfg.Username != "" {
		opts.SetUsername(i.cfg.Username)
		opts.SetPassword(i.cfg.Password)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		i.logger.Error().Err(err).Msg("MQTT connection lost")
	}
	opts.OnConnect = func(c mqtt.Client) {
		for _, topic := range []string{i.topic(sensorTopic), i.topic(heartbeatTopic)} {
			i.logger.Info().Str("topic", topic).Msg("MQTT connected, subscribing to topic")
			if token := c.Subscribe(topic, 1, i.onMessage); token.Wait() && token.Error() != nil {
				i.logger.Error().Err(token.Error()).Str("topic", topic).Msg("Failed to subscribe to MQTT topic")
			}
		}
	}

	i.client = mqtt.NewClient(opts)
	if tk := i.client.Connect(); tk.Wait() && tk.Error() != nil {
		return fmt.Errorf("failed to connect to mqtt broker: %w", tk.Error())
	}
	return nil
}

func (i *Ingestor) Stop() {
	if i.client != nil && i.client.IsConnected() {
		i.client.Disconnect(500)
	}
}

func (i *Ingestor) IsConnected() bool {
	return i.client != nil && i.client.IsConnected()
}

func (i *Ingestor) onMessage(_ mqtt.Client, m mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if err := i.handle(ctx, m.Topic(), m.Payload()); err != nil {
		i.logger.Warn().Err(err).Str("topic", m.Topic()).Msg("Dropping MQTT message")
	}
}

func (i *Ingestor) handle(ctx context.Context, topic string, payload []byte) error {
	switch topic {
	case i.topic(sensorTopic):
		var req services.SensorEventRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("invalid sensor payload: %w", err)
		}
		_, err := i.recorder.RecordSensorEvent(ctx, &req)
		return err

	case i.topic(heartbeatTopic):
		var req services.HeartbeatRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("invalid heartbeat payload: %w", err)
		}
		_, err := i.recorder.RecordHeartbeat(ctx, &req)
		return err

	default:
		return fmt.Errorf("unexpected topic %q", topic)
	}
}
