package models

import "time"

// GroupMember is one membership period of a user in a group.
//
// A user has at most one active row per group. Leaving closes the row;
// rejoining creates a new one, so the table doubles as a membership history.
type GroupMember struct {
	ID      string
	GroupID string
	UserID  string

	JoinedAt time.Time

	// LeftAt is nil while the membership is active.
	LeftAt *time.Time

	// ContentRemovalDate is when content shared by this member is reaped.
	// Only set once the member has left.
	ContentRemovalDate *time.Time
}

// IsActive reports whether the membership is still open.
func (m *GroupMember) IsActive() bool {
	return m.LeftAt == nil
}

// IsInGracePeriod reports whether the member has left but their content is
// still visible to the group.
func (m *GroupMember) IsInGracePeriod(now time.Time) bool {
	return m.LeftAt != nil && m.ContentRemovalDate != nil && m.ContentRemovalDate.After(now)
}

// IsContentRemovalDue reports whether the member's grace period has elapsed.
func (m *GroupMember) IsContentRemovalDue(now time.Time) bool {
	return m.LeftAt != nil && m.ContentRemovalDate != nil && !m.ContentRemovalDate.After(now)
}

// Depart closes the membership at now and starts the content grace period.
func (m *GroupMember) Depart(now time.Time, grace time.Duration) {
	left := now
	removal := now.Add(grace)
	m.LeftAt = &left
	m.ContentRemovalDate = &removal
}
