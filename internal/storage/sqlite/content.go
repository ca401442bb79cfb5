package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/groupshare/internal/models"
)

const contentColumns = `c.id, c.group_id, c.shared_by_user_id, c.content_type,
	c.photo_id, c.album_id, c.shared_at, c.removed_at`

func scanContent(row rowScanner) (*models.GroupSharedContent, error) {
	content := &models.GroupSharedContent{}
	var contentType int
	var photoID, albumID sql.NullString
	var sharedAt int64
	var removedAt sql.NullInt64

	if err := row.Scan(&content.ID, &content.GroupID, &content.SharedByUserID, &contentType,
		&photoID, &albumID, &sharedAt, &removedAt); err != nil {
		return nil, err
	}

	content.ContentType = models.ContentType(contentType)
	content.PhotoID = photoID.String
	content.AlbumID = albumID.String
	content.SharedAt = fromUnixNano(sharedAt)
	content.RemovedAt = timePtr(removedAt)
	return content, nil
}

// GetSharedContent retrieves a shared-content row by ID.
func (q *queries) GetSharedContent(ctx context.Context, contentID string) (*models.GroupSharedContent, error) {
	content, err := scanContent(q.db.QueryRowContext(ctx,
		"SELECT "+contentColumns+" FROM group_shared_content c WHERE c.id = ?",
		contentID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Content not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shared content: %w", err)
	}
	return content, nil
}

// FindActiveContent returns the active share of a photo or album in a group.
func (q *queries) FindActiveContent(ctx context.Context, groupID string, contentType models.ContentType, contentID string) (*models.GroupSharedContent, error) {
	column := "photo_id"
	if contentType == models.ContentAlbum {
		column = "album_id"
	}

	content, err := scanContent(q.db.QueryRowContext(ctx, `
		SELECT `+contentColumns+`
		FROM group_shared_content c
		WHERE c.group_id = ? AND c.content_type = ? AND c.`+column+` = ? AND c.removed_at IS NULL
		LIMIT 1`,
		groupID, int(contentType), contentID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find shared content: %w", err)
	}
	return content, nil
}

// ListActiveContent returns the visible content of a group, newest first.
func (q *queries) ListActiveContent(ctx context.Context, groupID string) ([]*models.GroupSharedContent, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+contentColumns+`
		FROM group_shared_content c
		WHERE c.group_id = ? AND c.removed_at IS NULL
		ORDER BY c.shared_at DESC, c.id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared content: %w", err)
	}
	defer rows.Close()

	var contents []*models.GroupSharedContent
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shared content: %w", err)
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shared content: %w", err)
	}

	return contents, nil
}

// CountActiveContent returns the number of visible content rows of a group.
func (q *queries) CountActiveContent(ctx context.Context, groupID string) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM group_shared_content WHERE group_id = ? AND removed_at IS NULL",
		groupID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count shared content: %w", err)
	}
	return n, nil
}

// SaveSharedContent inserts or updates a shared-content row.
// Only removed_at changes after insert.
func (q *queries) SaveSharedContent(ctx context.Context, content *models.GroupSharedContent) error {
	if content.ID == "" {
		content.ID = uuid.New().String()
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO group_shared_content (id, group_id, shared_by_user_id, content_type,
			photo_id, album_id, shared_at, removed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET removed_at = excluded.removed_at`,
		content.ID, content.GroupID, content.SharedByUserID, int(content.ContentType),
		nullString(content.PhotoID), nullString(content.AlbumID),
		unixNano(content.SharedAt), nullTime(content.RemovedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save shared content: %w", err)
	}
	return nil
}

// RemoveContentSharedBy soft-removes the visible content userID shared into
// groupID up to sharedUntil.
func (q *queries) RemoveContentSharedBy(ctx context.Context, groupID, userID string, sharedUntil, now time.Time) (int, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE group_shared_content
		SET removed_at = ?
		WHERE group_id = ? AND shared_by_user_id = ? AND removed_at IS NULL AND shared_at <= ?`,
		unixNano(now), groupID, userID, unixNano(sharedUntil),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to remove member content: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check removed content: %w", err)
	}
	return int(n), nil
}

// RemoveAllContent soft-removes every visible content row of a group.
func (q *queries) RemoveAllContent(ctx context.Context, groupID string, now time.Time) (int, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE group_shared_content SET removed_at = ? WHERE group_id = ? AND removed_at IS NULL",
		unixNano(now), groupID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to remove group content: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check removed content: %w", err)
	}
	return int(n), nil
}
