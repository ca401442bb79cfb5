// Package membership implements joining, leaving, removal and ownership
// transfer for groups.
//
// Departure never removes content directly. It stamps LeftAt and a
// ContentRemovalDate on the membership row; the departed member's content
// stays visible until the deletion package reaps it.
package membership

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/groupshare/internal/apperr"
	"github.com/mmynk/groupshare/internal/clock"
	"github.com/mmynk/groupshare/internal/models"
	"github.com/mmynk/groupshare/internal/storage"
)

// Config holds the membership rules.
type Config struct {
	// GracePeriod is how long a departed member's content stays visible.
	GracePeriod time.Duration

	// MaxMembers caps the number of active members per group. Zero means no cap.
	MaxMembers int
}

// Manager owns membership operations. Every method takes the group snapshot
// the caller authorized against; the write fails with
// apperr.ErrConcurrentModification if the group changed since.
type Manager struct {
	store  storage.Store
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
}

// NewManager creates a membership Manager.
func NewManager(store storage.Store, clk clock.Clock, cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, clock: clk, cfg: cfg, logger: logger}
}

// AddMember adds targetUserID to the group. Owner only.
func (m *Manager) AddMember(ctx context.Context, group *models.Group, requestingUserID, targetUserID string) (*models.GroupMember, error) {
	now := m.clock.Now()
	member := &models.GroupMember{GroupID: group.ID, UserID: targetUserID, JoinedAt: now}

	err := storage.WithGroup(ctx, m.store, group, now, func(tx storage.Queries, g *models.Group) error {
		if !g.IsOwner(requestingUserID) {
			return apperr.ErrNotOwner.With("user", requestingUserID)
		}
		if g.IsDeleted() {
			return apperr.ErrGroupDeleted.With("group", g.ID)
		}

		existing, err := tx.GetMember(ctx, g.ID, targetUserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.ErrAlreadyMember.With("member", targetUserID)
		}

		if m.cfg.MaxMembers > 0 {
			count, err := tx.CountActiveMembers(ctx, g.ID)
			if err != nil {
				return err
			}
			if count >= m.cfg.MaxMembers {
				return apperr.ErrGroupFull.With("group", g.ID)
			}
		}

		return tx.SaveMember(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Member added to group", "group_id", group.ID, "user_id", targetUserID, "by", requestingUserID)
	return member, nil
}

// LeaveGroup closes userID's membership and starts the content grace period.
// The owner must transfer ownership first.
func (m *Manager) LeaveGroup(ctx context.Context, group *models.Group, userID string) (*models.GroupMember, error) {
	now := m.clock.Now()
	var member *models.GroupMember

	err := storage.WithGroup(ctx, m.store, group, now, func(tx storage.Queries, g *models.Group) error {
		var err error
		member, err = tx.GetMember(ctx, g.ID, userID)
		if err != nil {
			return err
		}
		if member == nil {
			return apperr.ErrNotMember.With("member", userID)
		}
		if g.IsOwner(userID) {
			return apperr.ErrOwnerCannotLeave.With("member", userID)
		}
		return m.depart(ctx, tx, member, now)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Member left group", "group_id", group.ID, "user_id", userID,
		"content_removal_date", member.ContentRemovalDate)
	return member, nil
}

// RemoveMember closes targetUserID's membership on the owner's behalf.
// The effect is the same as LeaveGroup.
func (m *Manager) RemoveMember(ctx context.Context, group *models.Group, requestingUserID, targetUserID string) (*models.GroupMember, error) {
	now := m.clock.Now()
	var member *models.GroupMember

	err := storage.WithGroup(ctx, m.store, group, now, func(tx storage.Queries, g *models.Group) error {
		if !g.IsOwner(requestingUserID) {
			return apperr.ErrNotOwner.With("user", requestingUserID)
		}
		if g.IsOwner(targetUserID) {
			return apperr.ErrCannotRemoveOwner.With("member", targetUserID)
		}

		var err error
		member, err = tx.GetMember(ctx, g.ID, targetUserID)
		if err != nil {
			return err
		}
		if member == nil {
			return apperr.ErrTargetNotMember.With("member", targetUserID)
		}
		return m.depart(ctx, tx, member, now)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Member removed from group", "group_id", group.ID, "user_id", targetUserID,
		"by", requestingUserID, "content_removal_date", member.ContentRemovalDate)
	return member, nil
}

// TransferOwnership makes newOwnerID the owner. Membership rows are not
// touched; the former owner stays an ordinary active member.
func (m *Manager) TransferOwnership(ctx context.Context, group *models.Group, requestingUserID, newOwnerID string) error {
	now := m.clock.Now()

	err := storage.WithGroup(ctx, m.store, group, now, func(tx storage.Queries, g *models.Group) error {
		if !g.IsOwner(requestingUserID) {
			return apperr.ErrNotOwner.With("user", requestingUserID)
		}

		target, err := tx.GetMember(ctx, g.ID, newOwnerID)
		if err != nil {
			return err
		}
		if target == nil {
			return apperr.ErrTargetNotMember.With("member", newOwnerID)
		}

		g.OwnerID = newOwnerID
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Info("Group ownership transferred", "group_id", group.ID, "from", requestingUserID, "to", newOwnerID)
	return nil
}

// ListMembers returns every membership row of the group, active and departed.
func (m *Manager) ListMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	members, err := m.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, storage.Translate("list members", err)
	}
	return members, nil
}

func (m *Manager) depart(ctx context.Context, tx storage.Queries, member *models.GroupMember, now time.Time) error {
	member.Depart(now, m.cfg.GracePeriod)
	return tx.SaveMember(ctx, member)
}
