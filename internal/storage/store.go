// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/groupshare/internal/models"
)

// ErrConflict is returned by SaveGroup when the stored version no longer
// matches the version the caller read.
var ErrConflict = errors.New("storage: version conflict")

// Queries is the set of group, membership and shared-content operations.
// It is implemented both by the store itself and by the transaction handle
// passed to RunInTx.
//
// Lookups return nil and no error when the record does not exist.
type Queries interface {
	// GetGroup retrieves a group by ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns the groups userID owns or actively belongs to,
	// including deleted ones, ordered by UpdatedAt descending.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// ListGroupsDueForDeletion returns live groups whose DeletionProcessDate is at or before now.
	ListGroupsDueForDeletion(ctx context.Context, now time.Time) ([]*models.Group, error)

	// ListGroupsScheduledForDeletion returns every live group with a pending deletion.
	ListGroupsScheduledForDeletion(ctx context.Context) ([]*models.Group, error)

	// CreateGroup inserts a new group together with its owner's membership row.
	// Empty IDs are generated; Version is set to 1.
	CreateGroup(ctx context.Context, group *models.Group, owner *models.GroupMember) error

	// SaveGroup writes every mutable group field if the stored version equals
	// group.Version, then increments group.Version. Returns ErrConflict otherwise.
	SaveGroup(ctx context.Context, group *models.Group) error

	// GetMember returns the active membership of userID in groupID.
	GetMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error)

	// ListMembers returns every membership row of a group, oldest first.
	ListMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error)

	// ListActiveMembers returns the open membership rows of a group, oldest first.
	ListActiveMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error)

	// CountActiveMembers returns the number of open membership rows of a group.
	CountActiveMembers(ctx context.Context, groupID string) (int, error)

	// ListExpiredDepartures returns departed members whose ContentRemovalDate is at or before now.
	ListExpiredDepartures(ctx context.Context, now time.Time) ([]*models.GroupMember, error)

	// SaveMember inserts or updates a membership row. An empty ID is generated.
	SaveMember(ctx context.Context, member *models.GroupMember) error

	// GetSharedContent retrieves a shared-content row by ID.
	GetSharedContent(ctx context.Context, contentID string) (*models.GroupSharedContent, error)

	// FindActiveContent returns the active share of (contentType, contentID) in a group.
	FindActiveContent(ctx context.Context, groupID string, contentType models.ContentType, contentID string) (*models.GroupSharedContent, error)

	// ListActiveContent returns the visible content of a group, newest share first.
	ListActiveContent(ctx context.Context, groupID string) ([]*models.GroupSharedContent, error)

	// CountActiveContent returns the number of visible content rows of a group.
	CountActiveContent(ctx context.Context, groupID string) (int, error)

	// SaveSharedContent inserts or updates a shared-content row. An empty ID is generated.
	SaveSharedContent(ctx context.Context, content *models.GroupSharedContent) error

	// RemoveContentSharedBy soft-removes the active content userID shared into
	// groupID at or before sharedUntil. Returns the number of rows removed.
	RemoveContentSharedBy(ctx context.Context, groupID, userID string, sharedUntil, now time.Time) (int, error)

	// RemoveAllContent soft-removes every active content row of a group.
	RemoveAllContent(ctx context.Context, groupID string, now time.Time) (int, error)

	// CloseAllMemberships closes every active membership of a group at now,
	// with ContentRemovalDate = now. Returns the number of rows closed.
	CloseAllMemberships(ctx context.Context, groupID string, now time.Time) (int, error)
}

// Store is the Group Store. Writes that must be atomic run inside RunInTx.
// This abstraction allows swapping storage backends without changing the managers.
type Store interface {
	Queries

	// RunInTx executes fn in a single transaction. The transaction commits
	// if fn returns nil and rolls back otherwise, including on context cancellation.
	RunInTx(ctx context.Context, fn func(tx Queries) error) error

	// Close releases any resources held by the store.
	Close() error
}

// OwnershipChecker answers whether a photo or album belongs to a user.
// It is supplied by the Photo Store and Album Store collaborators.
type OwnershipChecker interface {
	IsOwnedBy(ctx context.Context, contentType models.ContentType, contentID, userID string) (bool, error)
}

// UserDirectory resolves user IDs to display metadata.
type UserDirectory interface {
	// GetUsersByIDs returns a map of user ID to User. Unknown IDs are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// GetUserByEmail returns nil and no error if no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}
