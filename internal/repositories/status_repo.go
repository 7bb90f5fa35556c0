package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	statusKeyPrefix = "device_status:"
	statusTTL       = 7 * 24 * time.Hour // forget devices silent for a week
)

// RedisStatusRepository remembers the last classified status of every device so the
// monitor can notify on transitions only.
type RedisStatusRepository struct {
	client *redis.Client
}

func NewRedisStatusRepository(client *redis.Client) *RedisStatusRepository {
	return &RedisStatusRepository{client: client}
}

func (r *RedisStatusRepository) GetLastKnown(ctx context.Context, userEmail, deviceID string) (*models.LastKnownStatus, error) {
	data, err := r.client.Get(ctx, statusKey(userEmail, deviceID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last known status: %w", err)
	}

	var status models.LastKnownStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal last known status: %w", err)
	}
	return &status, nil
}

func (r *RedisStatusRepository) SetLastKnown(ctx context.Context, userEmail, deviceID string, status *models.LastKnownStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal last known status: %w", err)
	}

	if err := r.client.Set(ctx, statusKey(userEmail, deviceID), data, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to set last known status: %w", err)
	}
	return nil
}

// Helper: build Redis key for a device's status
func statusKey(userEmail, deviceID string) string {
	return statusKeyPrefix + userEmail + ":" + deviceID
}
