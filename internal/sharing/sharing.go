// Package sharing implements sharing photos and albums into a group and
// withdrawing them.
package sharing

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mmynk/groupshare/internal/apperr"
	"github.com/mmynk/groupshare/internal/clock"
	"github.com/mmynk/groupshare/internal/models"
	"github.com/mmynk/groupshare/internal/storage"
)

// Manager owns shared-content operations.
type Manager struct {
	store     storage.Store
	ownership storage.OwnershipChecker
	clock     clock.Clock
	logger    *slog.Logger
}

// NewManager creates a sharing Manager.
func NewManager(store storage.Store, ownership storage.OwnershipChecker, clk clock.Clock, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, ownership: ownership, clock: clk, logger: logger}
}

// ShareContent shares a photo or album owned by sharingUserID into the group.
//
// Ownership is checked once, here. Re-sharing content that was unshared
// creates a new row; the old row keeps its history.
func (m *Manager) ShareContent(ctx context.Context, group *models.Group, sharingUserID string, contentType models.ContentType, contentID string) (*models.GroupSharedContent, error) {
	contentID = strings.TrimSpace(contentID)
	if !contentType.Valid() {
		return nil, apperr.Invalid("content_type", "unknown content type %d", int(contentType))
	}
	if contentID == "" {
		return nil, apperr.Invalid("content_id", "content id is required")
	}
	if group.IsDeleted() {
		return nil, apperr.ErrGroupDeleted.With("group", group.ID)
	}

	// Membership and ownership are checked before the transaction: the
	// ownership collaborator may share the store's connection. Any membership
	// change in between bumps the group version and fails the write.
	member, err := m.store.GetMember(ctx, group.ID, sharingUserID)
	if err != nil {
		return nil, storage.Translate("get member", err)
	}
	if member == nil {
		return nil, apperr.ErrNotMember.With("member", sharingUserID)
	}

	owned, err := m.ownership.IsOwnedBy(ctx, contentType, contentID, sharingUserID)
	if err != nil {
		return nil, apperr.Upstream("check content ownership", err)
	}
	if !owned {
		return nil, apperr.ErrNotContentOwner.With(contentType.String(), contentID)
	}

	now := m.clock.Now()
	content := &models.GroupSharedContent{
		GroupID:        group.ID,
		SharedByUserID: sharingUserID,
		ContentType:    contentType,
		SharedAt:       now,
	}
	content.SetContentID(contentID)

	err = storage.WithGroup(ctx, m.store, group, now, func(tx storage.Queries, g *models.Group) error {
		existing, err := tx.FindActiveContent(ctx, g.ID, contentType, contentID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.ErrAlreadyShared.With(contentType.String(), contentID)
		}
		return tx.SaveSharedContent(ctx, content)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Content shared to group", "group_id", group.ID, "user_id", sharingUserID,
		"content_type", contentType.String(), "content_id", contentID)
	return content, nil
}

// UnshareContent withdraws a shared row. Allowed for the original sharer and
// for the group owner.
func (m *Manager) UnshareContent(ctx context.Context, group *models.Group, requestingUserID, sharedContentID string) (*models.GroupSharedContent, error) {
	now := m.clock.Now()
	var content *models.GroupSharedContent

	err := storage.WithGroup(ctx, m.store, group, now, func(tx storage.Queries, g *models.Group) error {
		var err error
		content, err = tx.GetSharedContent(ctx, sharedContentID)
		if err != nil {
			return err
		}
		if content == nil || content.GroupID != g.ID || !content.IsActive() {
			return apperr.ErrContentNotFound.With("shared_content", sharedContentID)
		}
		if !g.IsOwner(requestingUserID) && content.SharedByUserID != requestingUserID {
			return apperr.ErrNotSharer.With("user", requestingUserID)
		}

		removed := now
		content.RemovedAt = &removed
		return tx.SaveSharedContent(ctx, content)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Content removed from group", "group_id", group.ID, "shared_content_id", sharedContentID,
		"by", requestingUserID)
	return content, nil
}

// ListActiveContent returns the group's visible content, newest share first.
func (m *Manager) ListActiveContent(ctx context.Context, groupID string) ([]*models.GroupSharedContent, error) {
	contents, err := m.store.ListActiveContent(ctx, groupID)
	if err != nil {
		return nil, storage.Translate("list content", err)
	}
	return contents, nil
}
