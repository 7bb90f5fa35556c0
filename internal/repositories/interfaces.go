package repositories

import (
	"context"
	"time"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/apperrors"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = apperrors.ErrNotFound

// DBTX is the subset of pgxpool.Pool the Postgres repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type HeartbeatRepository interface {
	Append(ctx context.Context, heartbeat *models.Heartbeat) error
	LatestPerDevice(ctx context.Context) ([]*models.Heartbeat, error)
	LatestForUser(ctx context.Context, userEmail string) ([]*models.Heartbeat, error)
	// LatestIPAddress scopes to userEmail when it is non-empty.
	LatestIPAddress(ctx context.Context, deviceID, userEmail string) (string, error)
}

type SensorRepository interface {
	Create(ctx context.Context, event *models.SensorEvent) error
	ListMotionByUser(ctx context.Context, userEmail string) ([]*models.SensorEvent, error)
}

type DeviceRepository interface {
	Add(ctx context.Context, device *models.Device) error
	Remove(ctx context.Context, device *models.Device) error
	ListByUser(ctx context.Context, userEmail string) ([]*models.Device, error)
}

type TokenRepository interface {
	Upsert(ctx context.Context, token *models.RegistrationToken) error
	// GetByEmail returns every stored token for the user, empty strings included,
	// so callers can tell a missing token from a duplicated one.
	GetByEmail(ctx context.Context, userEmail string) ([]string, error)
	SaveIdentity(ctx context.Context, identity *models.Identity) error
}

type StatusRepository interface {
	GetLastKnown(ctx context.Context, userEmail, deviceID string) (*models.LastKnownStatus, error)
	SetLastKnown(ctx context.Context, userEmail, deviceID string, status *models.LastKnownStatus) error
}

type Locker interface {
	// TryLock returns a release func when the lock was acquired, nil otherwise.
	TryLock(ctx context.Context, name string, ttl time.Duration) (func(), error)
}
