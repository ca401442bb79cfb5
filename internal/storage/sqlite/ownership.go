package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/groupshare/internal/models"
)

// RegisterContent records that userID owns a photo or album. The photo and
// album services call this on upload and album creation.
func (s *SQLiteStore) RegisterContent(ctx context.Context, contentType models.ContentType, contentID, userID string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO content_owners (content_type, content_id, user_id)
		VALUES (?, ?, ?)
		ON CONFLICT(content_type, content_id) DO UPDATE SET user_id = excluded.user_id`,
		int(contentType), contentID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to register %s ownership: %w", contentType, err)
	}
	return nil
}

// IsOwnedBy reports whether the photo or album belongs to userID.
// Unknown content is reported as not owned.
func (s *SQLiteStore) IsOwnedBy(ctx context.Context, contentType models.ContentType, contentID, userID string) (bool, error) {
	var owner string
	err := s.conn.QueryRowContext(ctx,
		"SELECT user_id FROM content_owners WHERE content_type = ? AND content_id = ?",
		int(contentType), contentID,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s ownership: %w", contentType, err)
	}
	return owner == userID, nil
}
