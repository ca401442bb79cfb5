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

const memberColumns = `m.id, m.group_id, m.user_id, m.joined_at, m.left_at, m.content_removal_date`

func scanMember(row rowScanner) (*models.GroupMember, error) {
	member := &models.GroupMember{}
	var joinedAt int64
	var leftAt, removalDate sql.NullInt64

	if err := row.Scan(&member.ID, &member.GroupID, &member.UserID, &joinedAt, &leftAt, &removalDate); err != nil {
		return nil, err
	}

	member.JoinedAt = fromUnixNano(joinedAt)
	member.LeftAt = timePtr(leftAt)
	member.ContentRemovalDate = timePtr(removalDate)
	return member, nil
}

func (q *queries) listMembers(ctx context.Context, query string, args ...any) ([]*models.GroupMember, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.GroupMember
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}

	return members, nil
}

// GetMember returns the active membership row of userID in groupID.
func (q *queries) GetMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	member, err := scanMember(q.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+`
		FROM group_members m
		WHERE m.group_id = ? AND m.user_id = ? AND m.left_at IS NULL
		ORDER BY m.joined_at DESC
		LIMIT 1`,
		groupID, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not an active member
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

// ListMembers returns every membership row of a group.
func (q *queries) ListMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	return q.listMembers(ctx, `
		SELECT `+memberColumns+`
		FROM group_members m
		WHERE m.group_id = ?
		ORDER BY m.joined_at, m.id`,
		groupID,
	)
}

// ListActiveMembers returns the open membership rows of a group.
func (q *queries) ListActiveMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	return q.listMembers(ctx, `
		SELECT `+memberColumns+`
		FROM group_members m
		WHERE m.group_id = ? AND m.left_at IS NULL
		ORDER BY m.joined_at, m.id`,
		groupID,
	)
}

// CountActiveMembers returns the number of open membership rows of a group.
func (q *queries) CountActiveMembers(ctx context.Context, groupID string) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM group_members WHERE group_id = ? AND left_at IS NULL",
		groupID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}

// ListExpiredDepartures returns departed members whose grace period has
// elapsed and who still have visible content shared before they left.
// Users who have rejoined the group are excluded.
func (q *queries) ListExpiredDepartures(ctx context.Context, now time.Time) ([]*models.GroupMember, error) {
	return q.listMembers(ctx, `
		SELECT `+memberColumns+`
		FROM group_members m
		WHERE m.left_at IS NOT NULL
		  AND m.content_removal_date IS NOT NULL
		  AND m.content_removal_date <= ?
		  AND NOT EXISTS (
		      SELECT 1 FROM group_members a
		      WHERE a.group_id = m.group_id AND a.user_id = m.user_id AND a.left_at IS NULL
		  )
		  AND EXISTS (
		      SELECT 1 FROM group_shared_content c
		      WHERE c.group_id = m.group_id
		        AND c.shared_by_user_id = m.user_id
		        AND c.removed_at IS NULL
		        AND c.shared_at <= m.left_at
		  )
		ORDER BY m.content_removal_date, m.id`,
		unixNano(now),
	)
}

// SaveMember inserts or updates a membership row.
func (q *queries) SaveMember(ctx context.Context, member *models.GroupMember) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO group_members (id, group_id, user_id, joined_at, left_at, content_removal_date)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    left_at = excluded.left_at,
		    content_removal_date = excluded.content_removal_date`,
		member.ID, member.GroupID, member.UserID, unixNano(member.JoinedAt),
		nullTime(member.LeftAt), nullTime(member.ContentRemovalDate),
	)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}
	return nil
}

// CloseAllMemberships closes every active membership of a group.
func (q *queries) CloseAllMemberships(ctx context.Context, groupID string, now time.Time) (int, error) {
	res, err := q.db.ExecContext(ctx, `
		UPDATE group_members
		SET left_at = ?, content_removal_date = ?
		WHERE group_id = ? AND left_at IS NULL`,
		unixNano(now), unixNano(now), groupID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to close memberships: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check closed memberships: %w", err)
	}
	return int(n), nil
}
