package repositories

import (
	"context"
	"fmt"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
)

// PostgresDeviceRepository keeps device membership in sensors_data: a device exists
// for a user while at least one row links them.
type PostgresDeviceRepository struct {
	db DBTX
}

func NewPostgresDeviceRepository(db DBTX) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

func (r *PostgresDeviceRepository) Add(ctx context.Context, device *models.Device) error {
	query := `INSERT INTO sensors_data (device_id, linked_user_email)
	          VALUES ($1, $2)`

	_, err := r.db.Exec(ctx, query, device.DeviceID, device.UserEmail)
	if err != nil {
		return fmt.Errorf("failed to add device: %w", err)
	}
	return nil
}

func (r *PostgresDeviceRepository) Remove(ctx context.Context, device *models.Device) error {
	query := `DELETE FROM sensors_data
	          WHERE device_id = $1 AND linked_user_email = $2`

	result, err := r.db.Exec(ctx, query, device.DeviceID, device.UserEmail)
	if err != nil {
		return fmt.Errorf("failed to remove device: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresDeviceRepository) ListByUser(ctx context.Context, userEmail string) ([]*models.Device, error) {
	query := `SELECT DISTINCT device_id
	          FROM sensors_data
	          WHERE linked_user_email = $1
	          ORDER BY device_id`

	rows, err := r.db.Query(ctx, query, userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	devices := []*models.Device{}
	for rows.Next() {
		device := models.Device{UserEmail: userEmail}
		if err := rows.Scan(&device.DeviceID); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, &device)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}

	return devices, nil
}
