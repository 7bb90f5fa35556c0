package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/apperrors"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/repositories"
	"github.com/rs/zerolog"
)

const (
	StreamStart  = "start"
	StreamStop   = "stop"
	StreamStatus = "status"
)

// StreamResult is the outcome of a call to a device's local stream service.
type StreamResult struct {
	DeviceID         string          `json:"device_id"`
	Action           string          `json:"action"`
	Status           string          `json:"status"`
	DeviceStatusCode int             `json:"device_status_code,omitempty"`
	DeviceResponse   json.RawMessage `json:"device_response,omitempty"`
}

// Reachable reports whether the device answered with a 2xx.
func (r *StreamResult) Reachable() bool {
	return r.Status == "ok"
}

// StreamService proxies start/stop/status calls to the HTTP service running
// on the device, addressed by the IP from its latest heartbeat.
type StreamService struct {
	heartbeats repositories.HeartbeatRepository
	client     *http.Client
	port       string
	logger     zerolog.Logger
}

func NewStreamService(heartbeats repositories.HeartbeatRepository, port string, timeout time.Duration, logger zerolog.Logger) *StreamService {
	return &StreamService{
		heartbeats: heartbeats,
		client:     &http.Client{Timeout: timeout},
		port:       port,
		logger:     logger.With().Str("component", "stream").Logger(),
	}
}

// Control calls action on the device. A non-empty userEmail limits the
// address lookup to that user's heartbeats.
func (s *StreamService) Control(ctx context.Context, deviceID, userEmail, action string) (*StreamResult, error) {
	if deviceID == "" {
		return nil, apperrors.Validation("device_id is required")
	}

	method := http.MethodPost
	switch action {
	case StreamStart, StreamStop:
	case StreamStatus:
		method = http.MethodGet
	default:
		return nil, apperrors.Validation("unknown stream action %q", action)
	}

	ip, err := s.heartbeats.LatestIPAddress(ctx, deviceID, userEmail)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("no known address for device %s: %w", deviceID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnavailable, err)
	}

	result := &StreamResult{DeviceID: deviceID, Action: action}
	url := fmt.Sprintf("http://%s/%s", net.JoinHostPort(ip, s.port), action)

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stream request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Str("device_id", deviceID).Str("action", action).Msg("Device stream service unreachable")
		result.Status = "unreachable"
		return result, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	result.DeviceStatusCode = resp.StatusCode
	if json.Valid(body) {
		result.DeviceResponse = body
	} else if len(body) > 0 {
		result.DeviceResponse, _ = json.Marshal(string(body))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		result.Status = "ok"
	} else {
		result.Status = "error"
	}
	return result, nil
}
