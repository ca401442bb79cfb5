package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/mmynk/groupshare/internal/apperr"
	"github.com/mmynk/groupshare/internal/models"
	"github.com/mmynk/groupshare/internal/storage"
)

// CreateGroup creates a group owned by ownerID, who becomes its first member.
func (s *Service) CreateGroup(ctx context.Context, ownerID, name, description string) (_ *GroupDetails, err error) {
	defer func(start time.Time) { s.observe("create_group", start, err) }(time.Now())

	if ownerID == "" {
		return nil, apperr.Invalid("owner_id", "owner is required")
	}
	if err := models.ValidateGroupFields(name, description); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	group := &models.Group{
		Name:        strings.TrimSpace(name),
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	owner := &models.GroupMember{UserID: ownerID, JoinedAt: now}

	err = s.store.RunInTx(ctx, func(tx storage.Queries) error {
		return tx.CreateGroup(ctx, group, owner)
	})
	if err != nil {
		return nil, storage.Translate("create group", err)
	}

	s.logger.Info("Group created", "group_id", group.ID, "owner_id", ownerID, "name", group.Name)

	return &GroupDetails{
		GroupSummary: summarize(group, ownerID, now, 1, 0),
		Members:      s.memberViews(ctx, group, []*models.GroupMember{owner}),
		Content:      []ContentView{},
	}, nil
}

// UpdateGroup changes the name and description. Owner only.
func (s *Service) UpdateGroup(ctx context.Context, groupID, requestingUserID, name, description string) (_ *GroupSummary, err error) {
	defer func(start time.Time) { s.observe("update_group", start, err) }(time.Now())

	if err := models.ValidateGroupFields(name, description); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	var updated *models.Group
	err = s.mutate(ctx, "update_group", groupID, func(g *models.Group) error {
		err := storage.WithGroup(ctx, s.store, g, s.clock.Now(), func(_ storage.Queries, cur *models.Group) error {
			if !cur.IsOwner(requestingUserID) {
				return apperr.ErrNotOwner.With("user", requestingUserID)
			}
			cur.Name = name
			cur.Description = description
			return nil
		})
		updated = g
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Group updated", "group_id", groupID, "by", requestingUserID)
	return s.summary(ctx, updated, requestingUserID)
}

// GetGroup returns the group with its members and visible content. Deleted
// groups stay readable by anyone who was ever a member.
func (s *Service) GetGroup(ctx context.Context, groupID, requestingUserID string) (_ *GroupDetails, err error) {
	defer func(start time.Time) { s.observe("get_group", start, err) }(time.Now())

	g, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, g, requestingUserID); err != nil {
		return nil, err
	}

	members, err := s.store.ListMembers(ctx, g.ID)
	if err != nil {
		return nil, storage.Translate("list members", err)
	}
	content, err := s.store.ListActiveContent(ctx, g.ID)
	if err != nil {
		return nil, storage.Translate("list content", err)
	}

	active := 0
	for _, m := range members {
		if m.IsActive() {
			active++
		}
	}

	return &GroupDetails{
		GroupSummary: summarize(g, requestingUserID, s.clock.Now(), active, len(content)),
		Members:      s.memberViews(ctx, g, members),
		Content:      s.contentViews(ctx, content),
	}, nil
}

// ListGroups returns the live groups userID owns or belongs to, most
// recently updated first.
func (s *Service) ListGroups(ctx context.Context, userID string) (_ []GroupSummary, err error) {
	defer func(start time.Time) { s.observe("list_groups", start, err) }(time.Now())

	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, storage.Translate("list groups", err)
	}

	summaries := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		if g.IsDeleted() {
			continue
		}
		summary, err := s.summary(ctx, g, userID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// RequestDeletion schedules the group for teardown after the group grace period.
func (s *Service) RequestDeletion(ctx context.Context, groupID, requestingUserID string) (_ *GroupSummary, err error) {
	defer func(start time.Time) { s.observe("request_deletion", start, err) }(time.Now())

	var updated *models.Group
	err = s.mutate(ctx, "request_deletion", groupID, func(g *models.Group) error {
		updated = g
		return s.deletion.RequestGroupDeletion(ctx, g, requestingUserID)
	})
	if err != nil {
		return nil, err
	}
	return s.summary(ctx, updated, requestingUserID)
}

// CancelDeletion clears a pending deletion.
func (s *Service) CancelDeletion(ctx context.Context, groupID, requestingUserID string) (_ *GroupSummary, err error) {
	defer func(start time.Time) { s.observe("cancel_deletion", start, err) }(time.Now())

	var updated *models.Group
	err = s.mutate(ctx, "cancel_deletion", groupID, func(g *models.Group) error {
		updated = g
		return s.deletion.CancelGroupDeletion(ctx, g, requestingUserID)
	})
	if err != nil {
		return nil, err
	}
	return s.summary(ctx, updated, requestingUserID)
}

func (s *Service) summary(ctx context.Context, g *models.Group, viewerID string) (*GroupSummary, error) {
	members, err := s.store.CountActiveMembers(ctx, g.ID)
	if err != nil {
		return nil, storage.Translate("count members", err)
	}
	content, err := s.store.CountActiveContent(ctx, g.ID)
	if err != nil {
		return nil, storage.Translate("count content", err)
	}
	summary := summarize(g, viewerID, s.clock.Now(), members, content)
	return &summary, nil
}
