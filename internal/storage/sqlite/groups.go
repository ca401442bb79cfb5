package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/groupshare/internal/models"
	"github.com/mmynk/groupshare/internal/storage"
)

const groupColumns = `g.id, g.name, g.description, g.owner_id, g.created_at, g.updated_at,
	g.deleted_at, g.deletion_scheduled_at, g.deletion_process_date, g.version`

func scanGroup(row rowScanner) (*models.Group, error) {
	group := &models.Group{}
	var createdAt, updatedAt int64
	var deletedAt, scheduledAt, processDate sql.NullInt64

	if err := row.Scan(&group.ID, &group.Name, &group.Description, &group.OwnerID,
		&createdAt, &updatedAt, &deletedAt, &scheduledAt, &processDate, &group.Version); err != nil {
		return nil, err
	}

	group.CreatedAt = fromUnixNano(createdAt)
	group.UpdatedAt = fromUnixNano(updatedAt)
	group.DeletedAt = timePtr(deletedAt)
	group.DeletionScheduledAt = timePtr(scheduledAt)
	group.DeletionProcessDate = timePtr(processDate)
	return group, nil
}

func (q *queries) listGroups(ctx context.Context, query string, args ...any) ([]*models.Group, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	return groups, nil
}

// GetGroup retrieves a group by ID.
func (q *queries) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := scanGroup(q.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM groups g WHERE g.id = ?",
		groupID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Group not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// ListGroupsForUser returns groups owned by or actively joined by userID.
func (q *queries) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	return q.listGroups(ctx, `
		SELECT `+groupColumns+`
		FROM groups g
		WHERE g.owner_id = ?
		   OR EXISTS (
		       SELECT 1 FROM group_members m
		       WHERE m.group_id = g.id AND m.user_id = ? AND m.left_at IS NULL
		   )
		ORDER BY g.updated_at DESC`,
		userID, userID,
	)
}

// ListGroupsDueForDeletion returns live groups whose deletion date has passed.
func (q *queries) ListGroupsDueForDeletion(ctx context.Context, now time.Time) ([]*models.Group, error) {
	return q.listGroups(ctx, `
		SELECT `+groupColumns+`
		FROM groups g
		WHERE g.deleted_at IS NULL
		  AND g.deletion_process_date IS NOT NULL
		  AND g.deletion_process_date <= ?
		ORDER BY g.deletion_process_date`,
		unixNano(now),
	)
}

// ListGroupsScheduledForDeletion returns every live group with a pending deletion.
func (q *queries) ListGroupsScheduledForDeletion(ctx context.Context) ([]*models.Group, error) {
	return q.listGroups(ctx, `
		SELECT `+groupColumns+`
		FROM groups g
		WHERE g.deleted_at IS NULL AND g.deletion_scheduled_at IS NOT NULL
		ORDER BY g.deletion_process_date`,
	)
}

// CreateGroup persists a new group and its owner's membership row.
func (q *queries) CreateGroup(ctx context.Context, group *models.Group, owner *models.GroupMember) error {
	// Generate IDs if not set
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if owner.ID == "" {
		owner.ID = uuid.New().String()
	}
	owner.GroupID = group.ID
	group.Version = 1

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO groups (id, name, description, owner_id, created_at, updated_at,
			deleted_at, deletion_scheduled_at, deletion_process_date, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.Name, group.Description, group.OwnerID,
		unixNano(group.CreatedAt), unixNano(group.UpdatedAt),
		nullTime(group.DeletedAt), nullTime(group.DeletionScheduledAt), nullTime(group.DeletionProcessDate),
		group.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	return q.SaveMember(ctx, owner)
}

// SaveGroup updates a group under its version guard.
// deleted_at is never cleared once set.
func (q *queries) SaveGroup(ctx context.Context, group *models.Group) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE groups
		SET name = ?, description = ?, owner_id = ?, updated_at = ?,
		    deleted_at = COALESCE(deleted_at, ?),
		    deletion_scheduled_at = ?, deletion_process_date = ?,
		    version = version + 1
		WHERE id = ? AND version = ?`,
		group.Name, group.Description, group.OwnerID, unixNano(group.UpdatedAt),
		nullTime(group.DeletedAt),
		nullTime(group.DeletionScheduledAt), nullTime(group.DeletionProcessDate),
		group.ID, group.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s at version %d: %w", group.ID, group.Version, storage.ErrConflict)
	}

	group.Version++
	return nil
}
