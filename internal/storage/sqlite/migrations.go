package sqlite

import (
	"context"
	"database/sql"
)

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// Timestamps are Unix nanoseconds in UTC. Nullable timestamps carry the
// soft-delete state; rows are never deleted.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    owner_id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    deleted_at INTEGER,
    deletion_scheduled_at INTEGER,
    deletion_process_date INTEGER,
    version INTEGER NOT NULL DEFAULT 1,
    CHECK ((deletion_scheduled_at IS NULL) = (deletion_process_date IS NULL))
);

CREATE TABLE IF NOT EXISTS group_members (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    joined_at INTEGER NOT NULL,
    left_at INTEGER,
    content_removal_date INTEGER,
    FOREIGN KEY (group_id) REFERENCES groups(id)
);

CREATE TABLE IF NOT EXISTS group_shared_content (
    id TEXT PRIMARY KEY,
    group_id TEXT NOT NULL,
    shared_by_user_id TEXT NOT NULL,
    content_type INTEGER NOT NULL,
    photo_id TEXT,
    album_id TEXT,
    shared_at INTEGER NOT NULL,
    removed_at INTEGER,
    FOREIGN KEY (group_id) REFERENCES groups(id),
    CHECK ((content_type = 0 AND photo_id IS NOT NULL AND album_id IS NULL)
        OR (content_type = 1 AND album_id IS NOT NULL AND photo_id IS NULL))
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS content_owners (
    content_type INTEGER NOT NULL,
    content_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    PRIMARY KEY (content_type, content_id)
);

CREATE INDEX IF NOT EXISTS idx_groups_owner_id ON groups(owner_id);
CREATE INDEX IF NOT EXISTS idx_groups_deletion_process_date ON groups(deletion_process_date) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_group_members_group_user ON group_members(group_id, user_id);
CREATE INDEX IF NOT EXISTS idx_group_members_user_id ON group_members(user_id);
CREATE INDEX IF NOT EXISTS idx_group_members_removal ON group_members(content_removal_date) WHERE left_at IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_shared_content_group_id ON group_shared_content(group_id, removed_at);
CREATE INDEX IF NOT EXISTS idx_shared_content_sharer ON group_shared_content(group_id, shared_by_user_id);
`

// runMigrations executes the schema setup.
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
