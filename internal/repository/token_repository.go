package repository

import (
	"context"
	"database/sql"

	"github.com/workfin/practice-api/internal/models"
)

// TokenRepository persists OAuth tokens keyed by connection. It satisfies the
// token store consumed by the accounting API client.
type TokenRepository interface {
	GetToken(ctx context.Context, connectionID string) (*models.OAuthToken, error)
	SaveToken(ctx context.Context, token *models.OAuthToken) error
	DeleteToken(ctx context.Context, connectionID string) error
}

type tokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) GetToken(ctx context.Context, connectionID string) (*models.OAuthToken, error) {
	token := &models.OAuthToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT connection_id, access_token, refresh_token, expires_at, token_type, scope, updated_at
		FROM integrations.oauth_tokens WHERE connection_id = $1`,
		connectionID,
	).Scan(&token.ConnectionID, &token.AccessToken, &token.RefreshToken, &token.ExpiresAt, &token.TokenType, &token.Scope, &token.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return token, nil
}

func (r *tokenRepository) SaveToken(ctx context.Context, token *models.OAuthToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO integrations.oauth_tokens (connection_id, access_token, refresh_token, expires_at, token_type, scope, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (connection_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			token_type = EXCLUDED.token_type,
			scope = EXCLUDED.scope,
			updated_at = NOW()`,
		token.ConnectionID, token.AccessToken, token.RefreshToken, token.ExpiresAt, token.TokenType, token.Scope,
	)
	return err
}

func (r *tokenRepository) DeleteToken(ctx context.Context, connectionID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM integrations.oauth_tokens WHERE connection_id = $1", connectionID)
	return err
}
