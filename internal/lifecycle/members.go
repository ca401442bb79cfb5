package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmynk/groupshare/internal/apperr"
	"github.com/mmynk/groupshare/internal/models"
)

// AddMember adds targetUserID to the group. Owner only.
func (s *Service) AddMember(ctx context.Context, groupID, requestingUserID, targetUserID string) (_ *MemberView, err error) {
	defer func(start time.Time) { s.observe("add_member", start, err) }(time.Now())

	if targetUserID == "" {
		return nil, apperr.Invalid("user_id", "user id is required")
	}
	return s.addMember(ctx, groupID, requestingUserID, targetUserID)
}

// AddMemberByEmail resolves email through the user directory and adds that
// user to the group.
func (s *Service) AddMemberByEmail(ctx context.Context, groupID, requestingUserID, email string) (_ *MemberView, err error) {
	defer func(start time.Time) { s.observe("add_member_by_email", start, err) }(time.Now())

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Invalid("email", "email is required")
	}
	if s.users == nil {
		return nil, apperr.Upstream("resolve email", errNoDirectory)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Upstream("resolve email", err)
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound.With("email", email)
	}
	return s.addMember(ctx, groupID, requestingUserID, user.ID)
}

var errNoDirectory = errors.New("user directory not configured")

func (s *Service) addMember(ctx context.Context, groupID, requestingUserID, targetUserID string) (*MemberView, error) {
	var (
		group  *models.Group
		member *models.GroupMember
	)
	err := s.mutate(ctx, "add_member", groupID, func(g *models.Group) error {
		var err error
		group = g
		member, err = s.members.AddMember(ctx, g, requestingUserID, targetUserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	views := s.memberViews(ctx, group, []*models.GroupMember{member})
	return &views[0], nil
}

// LeaveGroup closes the caller's membership. Their content stays visible
// until the member grace period elapses.
func (s *Service) LeaveGroup(ctx context.Context, groupID, userID string) (_ *MemberView, err error) {
	defer func(start time.Time) { s.observe("leave_group", start, err) }(time.Now())

	var (
		group  *models.Group
		member *models.GroupMember
	)
	err = s.mutate(ctx, "leave_group", groupID, func(g *models.Group) error {
		var err error
		group = g
		member, err = s.members.LeaveGroup(ctx, g, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	views := s.memberViews(ctx, group, []*models.GroupMember{member})
	return &views[0], nil
}

// RemoveMember closes targetUserID's membership. Owner only; the owner
// cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, groupID, requestingUserID, targetUserID string) (_ *MemberView, err error) {
	defer func(start time.Time) { s.observe("remove_member", start, err) }(time.Now())

	var (
		group  *models.Group
		member *models.GroupMember
	)
	err = s.mutate(ctx, "remove_member", groupID, func(g *models.Group) error {
		var err error
		group = g
		member, err = s.members.RemoveMember(ctx, g, requestingUserID, targetUserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	views := s.memberViews(ctx, group, []*models.GroupMember{member})
	return &views[0], nil
}

// TransferOwnership hands the group to newOwnerID, who must be an active member.
func (s *Service) TransferOwnership(ctx context.Context, groupID, requestingUserID, newOwnerID string) (_ *GroupSummary, err error) {
	defer func(start time.Time) { s.observe("transfer_ownership", start, err) }(time.Now())

	var updated *models.Group
	err = s.mutate(ctx, "transfer_ownership", groupID, func(g *models.Group) error {
		updated = g
		return s.members.TransferOwnership(ctx, g, requestingUserID, newOwnerID)
	})
	if err != nil {
		return nil, err
	}
	return s.summary(ctx, updated, requestingUserID)
}

// ListMembers returns the group's membership history, active and departed rows alike.
func (s *Service) ListMembers(ctx context.Context, groupID, requestingUserID string) (_ []MemberView, err error) {
	defer func(start time.Time) { s.observe("list_members", start, err) }(time.Now())

	g, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, g, requestingUserID); err != nil {
		return nil, err
	}

	rows, err := s.members.ListMembers(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	return s.memberViews(ctx, g, rows), nil
}
