package repositories

import (
	"context"
	"fmt"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/jackc/pgx/v5/pgtype"
)

type PostgresSensorRepository struct {
	db DBTX
}

func NewPostgresSensorRepository(db DBTX) *PostgresSensorRepository {
	return &PostgresSensorRepository{db: db}
}

func (r *PostgresSensorRepository) Create(ctx context.Context, event *models.SensorEvent) error {
	query := `INSERT INTO sensors_data (device_id, timestamp, motion_detected, linked_user_email)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		event.DeviceID,
		event.Timestamp,
		event.MotionDetected,
		event.UserEmail,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store sensor event: %w", err)
	}
	return nil
}

func (r *PostgresSensorRepository) ListMotionByUser(ctx context.Context, userEmail string) ([]*models.SensorEvent, error) {
	query := `SELECT id, device_id, linked_user_email, timestamp, motion_detected, created_at
	          FROM sensors_data
	          WHERE linked_user_email = $1 AND motion_detected = true
	          ORDER BY timestamp DESC`

	rows, err := r.db.Query(ctx, query, userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to query motion events: %w", err)
	}
	defer rows.Close()

	events := []*models.SensorEvent{}
	for rows.Next() {
		var (
			event     models.SensorEvent
			timestamp pgtype.Timestamptz
			motion    pgtype.Bool
		)
		err := rows.Scan(
			&event.ID,
			&event.DeviceID,
			&event.UserEmail,
			&timestamp,
			&motion,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan motion event: %w", err)
		}
		if timestamp.Valid {
			event.Timestamp = &timestamp.Time
		}
		if motion.Valid {
			event.MotionDetected = &motion.Bool
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating motion events: %w", err)
	}
	return events, nil
}
