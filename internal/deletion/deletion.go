// Package deletion schedules group deletion and reaps expired state.
//
// Two independent decays are handled here:
//
//   - group deletion, requested by the owner and processed once
//     DeletionProcessDate has passed;
//   - member content removal, started when a member leaves and processed once
//     their ContentRemovalDate has passed.
//
// Both sweeps are idempotent and are driven from outside (see package reaper).
// Each group is reaped in its own transaction.
package deletion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mmynk/groupshare/internal/apperr"
	"github.com/mmynk/groupshare/internal/clock"
	"github.com/mmynk/groupshare/internal/models"
	"github.com/mmynk/groupshare/internal/storage"
)

// Config holds the deletion rules.
type Config struct {
	// Grace is the delay between a deletion request and the hard delete.
	Grace time.Duration

	// ReminderDays lists the DaysUntilDeletion values that trigger a reminder.
	ReminderDays []int
}

// Scheduler owns group deletion and both reaping sweeps.
type Scheduler struct {
	store  storage.Store
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(store storage.Store, clk clock.Clock, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{store: store, clock: clk, cfg: cfg, logger: logger}
}

// RequestGroupDeletion schedules the group for deletion after the grace delay. Owner only.
func (s *Scheduler) RequestGroupDeletion(ctx context.Context, group *models.Group, requestingUserID string) error {
	now := s.clock.Now()

	err := storage.WithGroup(ctx, s.store, group, now, func(_ storage.Queries, g *models.Group) error {
		if !g.IsOwner(requestingUserID) {
			return apperr.ErrNotOwner.With("user", requestingUserID)
		}
		if g.IsDeleted() {
			return apperr.ErrGroupDeleted.With("group", g.ID)
		}
		if g.IsDeletionScheduled() {
			return apperr.ErrAlreadyScheduled.With("group", g.ID)
		}

		scheduled := now
		process := now.Add(s.cfg.Grace)
		g.DeletionScheduledAt = &scheduled
		g.DeletionProcessDate = &process
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Warn("Group deletion scheduled", "group_id", group.ID, "by", requestingUserID,
		"deletion_process_date", group.DeletionProcessDate)
	return nil
}

// CancelGroupDeletion clears a pending deletion. Owner only.
func (s *Scheduler) CancelGroupDeletion(ctx context.Context, group *models.Group, requestingUserID string) error {
	now := s.clock.Now()

	err := storage.WithGroup(ctx, s.store, group, now, func(_ storage.Queries, g *models.Group) error {
		if !g.IsOwner(requestingUserID) {
			return apperr.ErrNotOwner.With("user", requestingUserID)
		}
		if g.IsDeleted() {
			return apperr.ErrGroupDeleted.With("group", g.ID)
		}
		if g.DeletionScheduledAt == nil {
			return apperr.ErrNotScheduled.With("group", g.ID)
		}

		g.DeletionScheduledAt = nil
		g.DeletionProcessDate = nil
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Group deletion cancelled", "group_id", group.ID, "by", requestingUserID)
	return nil
}

// GroupReapResult summarizes one ReapExpiredGroups pass.
type GroupReapResult struct {
	Groups  int
	Members int
	Content int
}

// ContentReapResult summarizes one ReapExpiredMemberContent pass.
type ContentReapResult struct {
	Members int
	Content int
}

// errSkip rolls back a reap transaction whose target no longer qualifies.
var errSkip = errors.New("skip")

// ReapExpiredGroups tears down every live group whose deletion date is at or
// before now: DeletedAt is set, every active membership is closed and every
// visible content row is removed, all in one transaction per group.
//
// Already-deleted and cancelled groups are skipped. A failing group does not
// stop the sweep; all failures are returned joined.
func (s *Scheduler) ReapExpiredGroups(ctx context.Context, now time.Time) (GroupReapResult, error) {
	var result GroupReapResult

	due, err := s.store.ListGroupsDueForDeletion(ctx, now)
	if err != nil {
		return result, storage.Translate("list groups due for deletion", err)
	}

	var errs []error
	for _, candidate := range due {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		var members, content int
		err := s.store.RunInTx(ctx, func(tx storage.Queries) error {
			g, err := tx.GetGroup(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if g == nil || !g.IsDeletionDue(now) {
				return errSkip
			}

			if content, err = tx.RemoveAllContent(ctx, g.ID, now); err != nil {
				return err
			}
			if members, err = tx.CloseAllMemberships(ctx, g.ID, now); err != nil {
				return err
			}

			deleted := now
			g.DeletedAt = &deleted
			g.UpdatedAt = now
			return tx.SaveGroup(ctx, g)
		})
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			s.logger.Error("Failed to reap group", "group_id", candidate.ID, "error", err)
			errs = append(errs, fmt.Errorf("group %s: %w", candidate.ID, storage.Translate("reap group", err)))
			continue
		}

		result.Groups++
		result.Members += members
		result.Content += content
		s.logger.Info("Group deleted", "group_id", candidate.ID, "members_closed", members, "content_removed", content)
	}

	return result, errors.Join(errs...)
}

// ReapExpiredMemberContent removes the content of every departed member whose
// grace period has elapsed. Only content shared before the member left is
// removed; members who rejoined keep their content.
func (s *Scheduler) ReapExpiredMemberContent(ctx context.Context, now time.Time) (ContentReapResult, error) {
	var result ContentReapResult

	expired, err := s.store.ListExpiredDepartures(ctx, now)
	if err != nil {
		return result, storage.Translate("list expired departures", err)
	}

	var errs []error
	for _, member := range expired {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		var removed int
		err := s.store.RunInTx(ctx, func(tx storage.Queries) error {
			g, err := tx.GetGroup(ctx, member.GroupID)
			if err != nil {
				return err
			}
			if g == nil {
				return errSkip
			}
			active, err := tx.GetMember(ctx, member.GroupID, member.UserID)
			if err != nil {
				return err
			}
			if active != nil {
				return errSkip
			}

			removed, err = tx.RemoveContentSharedBy(ctx, member.GroupID, member.UserID, *member.LeftAt, now)
			if err != nil {
				return err
			}
			if removed == 0 {
				return errSkip
			}

			g.UpdatedAt = now
			return tx.SaveGroup(ctx, g)
		})
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			s.logger.Error("Failed to reap member content", "group_id", member.GroupID, "user_id", member.UserID, "error", err)
			errs = append(errs, fmt.Errorf("member %s: %w", member.ID, storage.Translate("reap member content", err)))
			continue
		}

		result.Members++
		result.Content += removed
		s.logger.Info("Departed member content removed", "group_id", member.GroupID, "user_id", member.UserID, "content_removed", removed)
	}

	return result, errors.Join(errs...)
}

// Reminder announces an upcoming group deletion.
type Reminder struct {
	GroupID           string
	GroupName         string
	OwnerID           string
	DaysUntilDeletion int
	ProcessAt         time.Time
}

// DueReminders lists scheduled groups whose DaysUntilDeletion at now is one
// of the configured reminder days.
func (s *Scheduler) DueReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	if len(s.cfg.ReminderDays) == 0 {
		return nil, nil
	}

	groups, err := s.store.ListGroupsScheduledForDeletion(ctx)
	if err != nil {
		return nil, storage.Translate("list scheduled groups", err)
	}

	var reminders []Reminder
	for _, g := range groups {
		days := g.DaysUntilDeletion(now)
		if days == 0 || !slices.Contains(s.cfg.ReminderDays, days) {
			continue
		}
		reminders = append(reminders, Reminder{
			GroupID:           g.ID,
			GroupName:         g.Name,
			OwnerID:           g.OwnerID,
			DaysUntilDeletion: days,
			ProcessAt:         *g.DeletionProcessDate,
		})
	}
	return reminders, nil
}
