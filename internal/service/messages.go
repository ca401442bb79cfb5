package service

import (
	"time"

	"github.com/mmynk/groupshare/internal/lifecycle"
	"github.com/mmynk/groupshare/internal/models"
)

// Group is the wire form of a group summary.
type Group struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description,omitempty"`
	OwnerID             string     `json:"owner_id"`
	IsOwner             bool       `json:"is_owner"`
	MemberCount         int        `json:"member_count"`
	ContentCount        int        `json:"content_count"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
	State               string     `json:"state"`
	DeletionProcessDate *time.Time `json:"deletion_process_date,omitempty"`
	DaysUntilDeletion   int        `json:"days_until_deletion"`
}

// Member is the wire form of a membership row.
type Member struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	Email              string     `json:"email,omitempty"`
	DisplayName        string     `json:"display_name,omitempty"`
	IsOwner            bool       `json:"is_owner"`
	JoinedAt           time.Time  `json:"joined_at"`
	LeftAt             *time.Time `json:"left_at,omitempty"`
	ContentRemovalDate *time.Time `json:"content_removal_date,omitempty"`
	State              string     `json:"state"`
	IsInGracePeriod    bool       `json:"is_in_grace_period"`
}

// Content is the wire form of a shared-content row.
type Content struct {
	ID             string     `json:"id"`
	ContentType    string     `json:"content_type"`
	ContentID      string     `json:"content_id"`
	SharedByUserID string     `json:"shared_by_user_id"`
	SharedByEmail  string     `json:"shared_by_email,omitempty"`
	SharedAt       time.Time  `json:"shared_at"`
	RemovedAt      *time.Time `json:"removed_at,omitempty"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type UpdateGroupRequest struct {
	GroupID     string `json:"group_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// GroupRequest addresses a single group. Used by GetGroup, ListMembers,
// ListContent, LeaveGroup, RequestDeletion and CancelDeletion.
type GroupRequest struct {
	GroupID string `json:"group_id"`
}

type ListGroupsRequest struct{}

// AddMemberRequest names the new member by user ID or by email.
type AddMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty"`
}

type RemoveMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

type TransferOwnershipRequest struct {
	GroupID    string `json:"group_id"`
	NewOwnerID string `json:"new_owner_id"`
}

type ShareContentRequest struct {
	GroupID     string `json:"group_id"`
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
}

type UnshareContentRequest struct {
	GroupID         string `json:"group_id"`
	SharedContentID string `json:"shared_content_id"`
}

type GroupResponse struct {
	Group *Group `json:"group"`
}

type GroupDetailsResponse struct {
	Group   *Group     `json:"group"`
	Members []*Member  `json:"members"`
	Content []*Content `json:"content"`
}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type MemberResponse struct {
	Member *Member `json:"member"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}

type ContentResponse struct {
	Content *Content `json:"content"`
}

type ListContentResponse struct {
	Content []*Content `json:"content"`
}

func toGroup(s *lifecycle.GroupSummary) *Group {
	return &Group{
		ID:                  s.ID,
		Name:                s.Name,
		Description:         s.Description,
		OwnerID:             s.OwnerID,
		IsOwner:             s.IsOwner,
		MemberCount:         s.MemberCount,
		ContentCount:        s.ContentCount,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
		State:               groupStateName(s.State),
		DeletionProcessDate: s.DeletionProcessDate,
		DaysUntilDeletion:   s.DaysUntilDeletion,
	}
}

func toDetails(d *lifecycle.GroupDetails) *GroupDetailsResponse {
	return &GroupDetailsResponse{
		Group:   toGroup(&d.GroupSummary),
		Members: toMembers(d.Members),
		Content: toContents(d.Content),
	}
}

func toMember(m *lifecycle.MemberView) *Member {
	return &Member{
		ID:                 m.ID,
		UserID:             m.UserID,
		Email:              m.Email,
		DisplayName:        m.DisplayName,
		IsOwner:            m.IsOwner,
		JoinedAt:           m.JoinedAt,
		LeftAt:             m.LeftAt,
		ContentRemovalDate: m.ContentRemovalDate,
		State:              memberStateName(m.State),
		IsInGracePeriod:    m.IsInGracePeriod,
	}
}

func toMembers(views []lifecycle.MemberView) []*Member {
	out := make([]*Member, len(views))
	for i := range views {
		out[i] = toMember(&views[i])
	}
	return out
}

func toContent(c *lifecycle.ContentView) *Content {
	return &Content{
		ID:             c.ID,
		ContentType:    c.ContentType.String(),
		ContentID:      c.ContentID,
		SharedByUserID: c.SharedByUserID,
		SharedByEmail:  c.SharedByEmail,
		SharedAt:       c.SharedAt,
		RemovedAt:      c.RemovedAt,
	}
}

func toContents(views []lifecycle.ContentView) []*Content {
	out := make([]*Content, len(views))
	for i := range views {
		out[i] = toContent(&views[i])
	}
	return out
}

func groupStateName(st models.GroupState) string {
	switch st.(type) {
	case models.GroupDeleted:
		return "deleted"
	case models.GroupDeletionScheduled:
		return "deletion_scheduled"
	default:
		return "active"
	}
}

func memberStateName(st models.MemberState) string {
	switch st.(type) {
	case models.MemberDeparted:
		return "departed"
	default:
		return "active"
	}
}
