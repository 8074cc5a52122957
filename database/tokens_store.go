package database

import (
	"context"
	"time"

	"github.com/mbolis/formdesk/forms"
)

// refresh tokens outlive access tokens by far; they are consumed on use
const refreshTokenTTL = 8760 * time.Hour

func (s *Store) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token (username, token_id, refresh_token_id, expiration)
		VALUES (?, ?, ?, ?)`,
		username,
		tokenID,
		refreshTokenID,
		s.now().Add(refreshTokenTTL),
	)
	if err != nil {
		return storeErr("db.insert_token", err)
	}
	return nil
}

// ConsumeToken deletes a stored refresh token and fails when it was missing or expired.
func (s *Store) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) error {
	var expiration time.Time
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM token
		WHERE username = ?
			AND token_id = ?
			AND refresh_token_id = ?
		RETURNING expiration`,
		username,
		tokenID,
		refreshTokenID,
	).Scan(&expiration)
	if isNoRows(err) {
		return forms.NewAuthError(forms.ErrCodeUnauthenticated, "could not refresh")
	}
	if err != nil {
		return storeErr("db.delete_token", err)
	}

	if expiration.Before(s.now()) {
		return forms.NewAuthError(forms.ErrCodeUnauthenticated, "could not refresh")
	}
	return nil
}
