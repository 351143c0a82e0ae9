package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/blabbr/contentflow/internal/models"
)

type ConnectionRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.LinkedInConnection, error)
	Upsert(ctx context.Context, conn *models.LinkedInConnection) (int64, error)
	ListExpiring(ctx context.Context, before time.Time) ([]*models.LinkedInConnection, error)
	SetValidated(ctx context.Context, id int64, active bool) error
	Remove(ctx context.Context, userID int64) error
}

type connectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) GetByUserID(ctx context.Context, userID int64) (*models.LinkedInConnection, error) {
	query := `SELECT id, user_id, profile_id, profile_name, profile_email, profile_picture_url,
			access_token, scope, token_expires_at, is_active, last_validated, created_at, updated_at
		FROM linkedin_connections WHERE user_id = $1`
	row := r.db.QueryRowContext(ctx, query, userID)

	var c models.LinkedInConnection
	err := row.Scan(&c.ID, &c.UserID, &c.ProfileID, &c.ProfileName, &c.ProfileEmail, &c.ProfilePicture,
		&c.AccessToken, &c.Scope, &c.TokenExpiresAt, &c.IsActive, &c.LastValidated, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &c, nil
}

// Upsert replaces any existing connection for the user; reconnecting always
// supersedes the previous token.
func (r *connectionRepository) Upsert(ctx context.Context, conn *models.LinkedInConnection) (int64, error) {
	query := `
		INSERT INTO linkedin_connections (
			user_id, profile_id, profile_name, profile_email, profile_picture_url,
			access_token, scope, token_expires_at, is_active, last_validated
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			profile_id = EXCLUDED.profile_id,
			profile_name = EXCLUDED.profile_name,
			profile_email = EXCLUDED.profile_email,
			profile_picture_url = EXCLUDED.profile_picture_url,
			access_token = EXCLUDED.access_token,
			scope = EXCLUDED.scope,
			token_expires_at = EXCLUDED.token_expires_at,
			is_active = TRUE,
			last_validated = EXCLUDED.last_validated,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		conn.UserID,
		conn.ProfileID,
		conn.ProfileName,
		conn.ProfileEmail,
		conn.ProfilePicture,
		conn.AccessToken,
		conn.Scope,
		conn.TokenExpiresAt,
		conn.LastValidated,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *connectionRepository) ListExpiring(ctx context.Context, before time.Time) ([]*models.LinkedInConnection, error) {
	query := `SELECT id, user_id, access_token, token_expires_at, is_active
		FROM linkedin_connections
		WHERE is_active = TRUE AND token_expires_at < $1`
	rows, err := r.db.QueryContext(ctx, query, before)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var conns []*models.LinkedInConnection
	for rows.Next() {
		var c models.LinkedInConnection
		err := rows.Scan(&c.ID, &c.UserID, &c.AccessToken, &c.TokenExpiresAt, &c.IsActive)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		conns = append(conns, &c)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return conns, nil
}

func (r *connectionRepository) SetValidated(ctx context.Context, id int64, active bool) error {
	query := `
		UPDATE linkedin_connections
		SET is_active = $1,
			last_validated = $2,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, active, time.Now(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectionRepository) Remove(ctx context.Context, userID int64) error {
	query := `DELETE FROM linkedin_connections WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
