package repositories

import (
	"context"
	"fmt"

	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/models"
	"github.com/jackc/pgx/v5/pgtype"
)

type PostgresTokenRepository struct {
	db DBTX
}

func NewPostgresTokenRepository(db DBTX) *PostgresTokenRepository {
	return &PostgresTokenRepository{db: db}
}

// Upsert overwrites the token of every row for the email, inserting one when none exists.
func (r *PostgresTokenRepository) Upsert(ctx context.Context, token *models.RegistrationToken) error {
	query := `WITH updated AS (
	              UPDATE firebase_auth
	              SET device_registration_token = $2, updated_at = NOW()
	              WHERE firebase_auth_email = $1
	              RETURNING id
	          )
	          INSERT INTO firebase_auth (firebase_auth_email, device_registration_token)
	          SELECT $1, $2
	          WHERE NOT EXISTS (SELECT 1 FROM updated)`

	_, err := r.db.Exec(ctx, query, token.UserEmail, token.Token)
	if err != nil {
		return fmt.Errorf("failed to upsert registration token: %w", err)
	}
	return nil
}

func (r *PostgresTokenRepository) GetByEmail(ctx context.Context, userEmail string) ([]string, error) {
	query := `SELECT device_registration_token
	          FROM firebase_auth
	          WHERE firebase_auth_email = $1`

	rows, err := r.db.Query(ctx, query, userEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to query registration token: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token pgtype.Text
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan registration token: %w", err)
		}
		tokens = append(tokens, token.String)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration tokens: %w", err)
	}
	return tokens, nil
}

// SaveIdentity links a verified uid to the user's row, claiming an anonymous
// registration row for the same email before creating a new one.
func (r *PostgresTokenRepository) SaveIdentity(ctx context.Context, identity *models.Identity) error {
	query := `WITH claimed AS (
	              UPDATE firebase_auth
	              SET user_uid = $1, updated_at = NOW()
	              WHERE firebase_auth_email = $2 AND (user_uid IS NULL OR user_uid = $1)
	              RETURNING id
	          )
	          INSERT INTO firebase_auth (user_uid, firebase_auth_email)
	          SELECT $1, $2
	          WHERE NOT EXISTS (SELECT 1 FROM claimed)
	          ON CONFLICT (user_uid) DO UPDATE
	              SET firebase_auth_email = EXCLUDED.firebase_auth_email, updated_at = NOW()`

	_, err := r.db.Exec(ctx, query, identity.UID, identity.Email)
	if err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	return nil
}
