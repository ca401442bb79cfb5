package models

import (
	"math"
	"time"
)

const (
	// MaxGroupNameLength is the maximum length of Group.Name, in characters.
	MaxGroupNameLength = 200
	// MaxGroupDescriptionLength is the maximum length of Group.Description, in characters.
	MaxGroupDescriptionLength = 1000
)

// Group is a collaborative group of users.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Family", "Ski Trip 2026").
	Name string

	// Description is optional free text.
	Description string

	// OwnerID is the user who owns the group. Never empty while the group is alive.
	OwnerID string

	CreatedAt time.Time
	UpdatedAt time.Time

	// DeletedAt is set once the group has been torn down. Terminal.
	DeletedAt *time.Time

	// DeletionScheduledAt and DeletionProcessDate are set together when the
	// owner requests deletion, and cleared together on cancel.
	DeletionScheduledAt *time.Time
	DeletionProcessDate *time.Time

	// Version is the optimistic concurrency token. The store increments it on
	// every save; membership and content writes save the group too.
	Version int64
}

// IsDeleted reports whether the group has been torn down.
func (g *Group) IsDeleted() bool {
	return g.DeletedAt != nil
}

// IsDeletionScheduled reports whether a deletion request is pending.
func (g *Group) IsDeletionScheduled() bool {
	return g.DeletionScheduledAt != nil && g.DeletedAt == nil
}

// IsDeletionDue reports whether the scheduled deletion may be processed at now.
func (g *Group) IsDeletionDue(now time.Time) bool {
	return g.IsDeletionScheduled() && g.DeletionProcessDate != nil && !g.DeletionProcessDate.After(now)
}

// DaysUntilDeletion returns the whole days left until the deletion becomes
// eligible, rounded up. A deadline 13 days and 1 second away counts as 14.
// Returns 0 once eligible or when nothing is scheduled.
func (g *Group) DaysUntilDeletion(now time.Time) int {
	if g.DeletionProcessDate == nil || g.DeletedAt != nil {
		return 0
	}
	remaining := g.DeletionProcessDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

// IsOwner reports whether userID owns the group.
func (g *Group) IsOwner(userID string) bool {
	return userID != "" && g.OwnerID == userID
}
