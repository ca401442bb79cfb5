package models

import "time"

// GroupState is the lifecycle state of a group. It is one of
// GroupActive, GroupDeletionScheduled or GroupDeleted.
type GroupState interface {
	groupState()
}

// GroupActive is a live group with no pending deletion.
type GroupActive struct{}

// GroupDeletionScheduled is a live group whose deletion has been requested.
type GroupDeletionScheduled struct {
	Since     time.Time
	ProcessAt time.Time
}

// GroupDeleted is a torn-down group.
type GroupDeleted struct {
	Since time.Time
}

func (GroupActive) groupState()            {}
func (GroupDeletionScheduled) groupState() {}
func (GroupDeleted) groupState()           {}

// GroupStateOf derives the state of g from its stored timestamps.
func GroupStateOf(g *Group) GroupState {
	switch {
	case g.DeletedAt != nil:
		return GroupDeleted{Since: *g.DeletedAt}
	case g.DeletionScheduledAt != nil:
		st := GroupDeletionScheduled{Since: *g.DeletionScheduledAt}
		if g.DeletionProcessDate != nil {
			st.ProcessAt = *g.DeletionProcessDate
		}
		return st
	default:
		return GroupActive{}
	}
}

// MemberState is the state of a membership row. It is either MemberActive
// or MemberDeparted.
type MemberState interface {
	memberState()
}

// MemberActive is an open membership.
type MemberActive struct {
	Since time.Time
}

// MemberDeparted is a closed membership.
type MemberDeparted struct {
	Since                  time.Time
	ContentRemovalDeadline time.Time
}

// InGracePeriod reports whether the departed member's content is still visible at now.
func (d MemberDeparted) InGracePeriod(now time.Time) bool {
	return d.ContentRemovalDeadline.After(now)
}

func (MemberActive) memberState()   {}
func (MemberDeparted) memberState() {}

// MemberStateOf derives the state of m from its stored timestamps.
func MemberStateOf(m *GroupMember) MemberState {
	if m.LeftAt == nil {
		return MemberActive{Since: m.JoinedAt}
	}
	st := MemberDeparted{Since: *m.LeftAt}
	if m.ContentRemovalDate != nil {
		st.ContentRemovalDeadline = *m.ContentRemovalDate
	}
	return st
}
