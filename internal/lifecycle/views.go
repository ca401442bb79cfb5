package lifecycle

import (
	"context"
	"time"

	"github.com/mmynk/groupshare/internal/models"
)

// GroupSummary is the list projection of a group.
type GroupSummary struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	IsOwner     bool

	MemberCount  int
	ContentCount int

	CreatedAt time.Time
	UpdatedAt time.Time

	State               models.GroupState
	IsDeletionScheduled bool
	DeletionProcessDate *time.Time
	DaysUntilDeletion   int
}

// GroupDetails is a group with its members and visible content.
type GroupDetails struct {
	GroupSummary
	Members []MemberView
	Content []ContentView
}

// MemberView is one membership row with resolved user metadata.
type MemberView struct {
	ID          string
	UserID      string
	Email       string
	DisplayName string
	IsOwner     bool

	JoinedAt           time.Time
	LeftAt             *time.Time
	ContentRemovalDate *time.Time

	State           models.MemberState
	IsActive        bool
	IsInGracePeriod bool
}

// ContentView is one shared-content row.
type ContentView struct {
	ID             string
	ContentType    models.ContentType
	ContentID      string
	SharedByUserID string
	SharedByEmail  string
	SharedAt       time.Time
	RemovedAt      *time.Time
}

func summarize(g *models.Group, viewerID string, now time.Time, memberCount, contentCount int) GroupSummary {
	return GroupSummary{
		ID:                  g.ID,
		Name:                g.Name,
		Description:         g.Description,
		OwnerID:             g.OwnerID,
		IsOwner:             g.IsOwner(viewerID),
		MemberCount:         memberCount,
		ContentCount:        contentCount,
		CreatedAt:           g.CreatedAt,
		UpdatedAt:           g.UpdatedAt,
		State:               models.GroupStateOf(g),
		IsDeletionScheduled: g.IsDeletionScheduled(),
		DeletionProcessDate: g.DeletionProcessDate,
		DaysUntilDeletion:   g.DaysUntilDeletion(now),
	}
}

func memberView(m *models.GroupMember, g *models.Group, user *models.User, now time.Time) MemberView {
	v := MemberView{
		ID:                 m.ID,
		UserID:             m.UserID,
		IsOwner:            m.IsActive() && g.IsOwner(m.UserID),
		JoinedAt:           m.JoinedAt,
		LeftAt:             m.LeftAt,
		ContentRemovalDate: m.ContentRemovalDate,
		State:              models.MemberStateOf(m),
		IsActive:           m.IsActive(),
		IsInGracePeriod:    m.IsInGracePeriod(now),
	}
	if user != nil {
		v.Email = user.Email
		v.DisplayName = user.DisplayName
	}
	return v
}

func contentView(c *models.GroupSharedContent, user *models.User) ContentView {
	v := ContentView{
		ID:             c.ID,
		ContentType:    c.ContentType,
		ContentID:      c.ContentID(),
		SharedByUserID: c.SharedByUserID,
		SharedAt:       c.SharedAt,
		RemovedAt:      c.RemovedAt,
	}
	if user != nil {
		v.SharedByEmail = user.Email
	}
	return v
}

// resolveUsers looks up display metadata for ids. The directory is only
// used for projection, so a failure degrades to an empty map.
func (s *Service) resolveUsers(ctx context.Context, ids []string) map[string]*models.User {
	if s.users == nil || len(ids) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	users, err := s.users.GetUsersByIDs(ctx, unique)
	if err != nil {
		s.logger.Warn("Failed to resolve users", "count", len(unique), "error", err)
		return nil
	}
	return users
}

func (s *Service) memberViews(ctx context.Context, g *models.Group, rows []*models.GroupMember) []MemberView {
	ids := make([]string, len(rows))
	for i, m := range rows {
		ids[i] = m.UserID
	}
	users := s.resolveUsers(ctx, ids)

	now := s.clock.Now()
	views := make([]MemberView, len(rows))
	for i, m := range rows {
		views[i] = memberView(m, g, users[m.UserID], now)
	}
	return views
}

func (s *Service) contentViews(ctx context.Context, rows []*models.GroupSharedContent) []ContentView {
	ids := make([]string, len(rows))
	for i, c := range rows {
		ids[i] = c.SharedByUserID
	}
	users := s.resolveUsers(ctx, ids)

	views := make([]ContentView, len(rows))
	for i, c := range rows {
		views[i] = contentView(c, users[c.SharedByUserID])
	}
	return views
}
