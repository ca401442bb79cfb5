package lifecycle

import (
	"context"
	"time"

	"github.com/mmynk/groupshare/internal/models"
)

// ShareContent shares a photo or album the caller owns into the group.
func (s *Service) ShareContent(ctx context.Context, groupID, userID string, contentType models.ContentType, contentID string) (_ *ContentView, err error) {
	defer func(start time.Time) { s.observe("share_content", start, err) }(time.Now())

	var content *models.GroupSharedContent
	err = s.mutate(ctx, "share_content", groupID, func(g *models.Group) error {
		var err error
		content, err = s.sharing.ShareContent(ctx, g, userID, contentType, contentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	views := s.contentViews(ctx, []*models.GroupSharedContent{content})
	return &views[0], nil
}

// UnshareContent withdraws a shared row. Allowed for the sharer and the owner.
func (s *Service) UnshareContent(ctx context.Context, groupID, userID, sharedContentID string) (_ *ContentView, err error) {
	defer func(start time.Time) { s.observe("unshare_content", start, err) }(time.Now())

	var content *models.GroupSharedContent
	err = s.mutate(ctx, "unshare_content", groupID, func(g *models.Group) error {
		var err error
		content, err = s.sharing.UnshareContent(ctx, g, userID, sharedContentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	views := s.contentViews(ctx, []*models.GroupSharedContent{content})
	return &views[0], nil
}

// ListActiveContent returns the content currently visible to the group,
// newest share first. The caller must be the owner or an active member.
func (s *Service) ListActiveContent(ctx context.Context, groupID, userID string) (_ []ContentView, err error) {
	defer func(start time.Time) { s.observe("list_active_content", start, err) }(time.Now())

	g, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRead(ctx, g, userID); err != nil {
		return nil, err
	}

	rows, err := s.sharing.ListActiveContent(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	return s.contentViews(ctx, rows), nil
}
