// Package lifecycle is the entry point to the group lifecycle engine.
//
// Service composes the membership, sharing and deletion managers. Every
// group-scoped operation follows the same pattern: load the group, fail with
// apperr.ErrGroupNotFound if it is absent and with apperr.ErrGroupDeleted if
// it has been torn down (historical reads excepted), then delegate. Writes
// that lose an optimistic-concurrency race are retried once against a fresh
// read before the conflict is surfaced.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/groupshare/internal/apperr"
	"github.com/mmynk/groupshare/internal/clock"
	"github.com/mmynk/groupshare/internal/deletion"
	"github.com/mmynk/groupshare/internal/membership"
	"github.com/mmynk/groupshare/internal/metrics"
	"github.com/mmynk/groupshare/internal/models"
	"github.com/mmynk/groupshare/internal/sharing"
	"github.com/mmynk/groupshare/internal/storage"
)

// Settings are the tunable lifecycle rules.
type Settings struct {
	// MemberGracePeriod is how long a departed member's content stays visible.
	MemberGracePeriod time.Duration
	// GroupDeleteGrace is the delay between a deletion request and the teardown.
	GroupDeleteGrace time.Duration
	// MaxMembersPerGroup caps active members per group. Zero disables the cap.
	MaxMembersPerGroup int
	// ReminderDays lists the days-before-deletion on which reminders fire.
	ReminderDays []int
}

// DefaultSettings returns 30 days of member grace, 14 days of group grace,
// 50 members per group and reminders 60, 30, 7 and 1 day out.
func DefaultSettings() Settings {
	return Settings{
		MemberGracePeriod:  30 * 24 * time.Hour,
		GroupDeleteGrace:   14 * 24 * time.Hour,
		MaxMembersPerGroup: 50,
		ReminderDays:       []int{60, 30, 7, 1},
	}
}

// Config wires the Service to its collaborators. Store, Ownership and Users
// are required.
type Config struct {
	Store     storage.Store
	Ownership storage.OwnershipChecker
	Users     storage.UserDirectory
	Clock     clock.Clock
	Settings  Settings
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Service is the lifecycle facade.
type Service struct {
	store    storage.Store
	users    storage.UserDirectory
	clock    clock.Clock
	settings Settings
	metrics  *metrics.Metrics
	logger   *slog.Logger

	members  *membership.Manager
	sharing  *sharing.Manager
	deletion *deletion.Scheduler
}

// New creates a Service. A nil Clock defaults to the system clock and a nil
// Logger to slog.Default.
func New(cfg Config) *Service {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:    cfg.Store,
		users:    cfg.Users,
		clock:    clk,
		settings: cfg.Settings,
		metrics:  cfg.Metrics,
		logger:   logger,
		members: membership.NewManager(cfg.Store, clk, membership.Config{
			GracePeriod: cfg.Settings.MemberGracePeriod,
			MaxMembers:  cfg.Settings.MaxMembersPerGroup,
		}, logger),
		sharing: sharing.NewManager(cfg.Store, cfg.Ownership, clk, logger),
		deletion: deletion.NewScheduler(cfg.Store, clk, deletion.Config{
			Grace:        cfg.Settings.GroupDeleteGrace,
			ReminderDays: cfg.Settings.ReminderDays,
		}, logger),
	}
}

// observe records the outcome of op and logs failures that are not plain
// business-rule rejections.
func (s *Service) observe(op string, start time.Time, err error) {
	s.metrics.ObserveOperation(op, start, err)
	if err == nil {
		return
	}

	switch apperr.KindOf(err) {
	case apperr.KindUpstreamFailure, apperr.KindUnknown:
		s.logger.Error("Operation failed", "op", op, "error", err)
	case apperr.KindConcurrentModification:
		s.logger.Warn("Operation lost a concurrent update", "op", op, "error", err)
	default:
		s.logger.Debug("Operation rejected", "op", op, "error", err)
	}
}

// load reads a group or fails with ErrGroupNotFound.
func (s *Service) load(ctx context.Context, groupID string) (*models.Group, error) {
	if groupID == "" {
		return nil, apperr.Invalid("group_id", "group id is required")
	}
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storage.Translate("get group", err)
	}
	if g == nil {
		return nil, apperr.ErrGroupNotFound.With("group", groupID)
	}
	return g, nil
}

// loadLive reads a group that has not been torn down.
func (s *Service) loadLive(ctx context.Context, groupID string) (*models.Group, error) {
	g, err := s.load(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.IsDeleted() {
		return nil, apperr.ErrGroupDeleted.With("group", groupID)
	}
	return g, nil
}

// mutate runs fn against a freshly loaded live group. A concurrent
// modification is retried once with a new read.
func (s *Service) mutate(ctx context.Context, op, groupID string, fn func(g *models.Group) error) error {
	attempt := func() error {
		g, err := s.loadLive(ctx, groupID)
		if err != nil {
			return err
		}
		return fn(g)
	}

	err := attempt()
	if errors.Is(err, apperr.ErrConcurrentModification) && ctx.Err() == nil {
		s.metrics.ObserveRetry(op)
		s.logger.Debug("Retrying after concurrent modification", "op", op, "group_id", groupID)
		err = attempt()
	}
	return err
}

// authorizeRead allows the owner and active members. For a deleted group,
// anyone who was ever a member may read its history.
func (s *Service) authorizeRead(ctx context.Context, g *models.Group, userID string) error {
	if g.IsOwner(userID) {
		return nil
	}

	member, err := s.store.GetMember(ctx, g.ID, userID)
	if err != nil {
		return storage.Translate("get member", err)
	}
	if member != nil {
		return nil
	}

	if g.IsDeleted() {
		rows, err := s.store.ListMembers(ctx, g.ID)
		if err != nil {
			return storage.Translate("list members", err)
		}
		for _, row := range rows {
			if row.UserID == userID {
				return nil
			}
		}
	}

	return apperr.ErrNotMember.With("member", userID)
}
