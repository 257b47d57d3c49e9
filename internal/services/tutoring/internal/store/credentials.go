package store

import (
	"context"
	"fmt"
)

// GetCredentials returns the stored token blob of a user.
func (s *PostgresStore) GetCredentials(ctx context.Context, userID int64) (string, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, "SELECT blob FROM credentials WHERE user_id = $1", userID).Scan(&blob)
	if err != nil {
		return "", mapPqErr(err)
	}

	return blob, nil
}

// UpsertCredentials overwrites the token blob of a user.
func (s *PostgresStore) UpsertCredentials(ctx context.Context, userID int64, blob string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credentials (user_id, blob) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET blob = EXCLUDED.blob, updated_at = now()`,
		userID, blob)
	if err != nil {
		return fmt.Errorf("upsert credentials: %w", mapPqErr(err))
	}

	return nil
}
