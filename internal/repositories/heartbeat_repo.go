package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const latestHeartbeatColumns = `id, device_id, user_email, status, last_activity,
	       cpu_temp, uptime_seconds, reported_at, ip_address`

type PostgresHeartbeatRepository struct {
	db DBTX
}

func NewPostgresHeartbeatRepository(db DBTX) *PostgresHeartbeatRepository {
	return &PostgresHeartbeatRepository{db: db}
}

func (r *PostgresHeartbeatRepository) Append(ctx context.Context, hb *models.Heartbeat) error {
	query := `INSERT INTO sensors_online_activity
	              (device_id, user_email, status, last_activity, cpu_temp, uptime_seconds, reported_at, ip_address)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	err := r.db.QueryRow(ctx, query,
		hb.DeviceID,
		hb.UserEmail,
		hb.Status,
		hb.LastActivity,
		hb.CPUTemp,
		hb.UptimeSeconds,
		hb.ReportedAt,
		hb.IPAddress,
	).Scan(&hb.ID)
	if err != nil {
		return fmt.Errorf("failed to append heartbeat: %w", err)
	}
	return nil
}

// LatestPerDevice returns the newest heartbeat of every (device_id, user_email) pair.
// Ties on last_activity go to the row inserted last.
func (r *PostgresHeartbeatRepository) LatestPerDevice(ctx context.Context) ([]*models.Heartbeat, error) {
	query := `SELECT DISTINCT ON (device_id, user_email) ` + latestHeartbeatColumns + `
	          FROM sensors_online_activity
	          ORDER BY device_id, user_email, last_activity DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest heartbeats: %w", err)
	}
	return scanHeartbeats(rows)
}

func (r *PostgresHeartbeatRepository) LatestForUser(ctx context.Context, userEmail string) ([]*models.Heartbeat, error) {
	query := `SELECT DISTINCT ON (device_id, user_email) ` + latestHeartbeatColumns + `
	          FROM sensors_online_activity
	          WHERE user_email = $1
	          ORDER BY device_id, user_email, last_activity DESC, id DESC`

	rows, err := r.db.Query(ctx, query, userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to query heartbeats for user: %w", err)
	}
	return scanHeartbeats(rows)
}

func (r *PostgresHeartbeatRepository) LatestIPAddress(ctx context.Context, deviceID, userEmail string) (string, error) {
	query := `SELECT ip_address
	          FROM sensors_online_activity
	          WHERE device_id = $1 AND ($2::text = '' OR user_email = $2)
	            AND ip_address IS NOT NULL AND ip_address <> ''
	          ORDER BY last_activity DESC, id DESC
	          LIMIT 1`

	var ip string
	err := r.db.QueryRow(ctx, query, deviceID, userEmail).Scan(&ip)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get device ip address: %w", err)
	}
	return ip, nil
}

func scanHeartbeats(rows pgx.Rows) ([]*models.Heartbeat, error) {
	defer rows.Close()

	var heartbeats []*models.Heartbeat
	for rows.Next() {
		var (
			hb           models.Heartbeat
			lastActivity pgtype.Timestamptz
			cpuTemp      pgtype.Float8
			uptime       pgtype.Int8
			reportedAt   pgtype.Text
			ipAddress    pgtype.Text
		)
		err := rows.Scan(
			&hb.ID,
			&hb.DeviceID,
			&hb.UserEmail,
			&hb.Status,
			&lastActivity,
			&cpuTemp,
			&uptime,
			&reportedAt,
			&ipAddress,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan heartbeat: %w", err)
		}

		// An invalid timestamp is left zero; the classifier skips such rows.
		if lastActivity.Valid {
			hb.LastActivity = lastActivity.Time
		}
		if cpuTemp.Valid {
			hb.CPUTemp = &cpuTemp.Float64
		}
		if uptime.Valid {
			hb.UptimeSeconds = &uptime.Int64
		}
		if reportedAt.Valid {
			hb.ReportedAt = &reportedAt.String
		}
		if ipAddress.Valid {
			hb.IPAddress = &ipAddress.String
		}
		heartbeats = append(heartbeats, &hb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating heartbeats: %w", err)
	}
	return heartbeats, nil
}
