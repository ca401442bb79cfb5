package lifecycle

import (
	"context"
	"time"

	"github.com/mmynk/groupshare/internal/deletion"
)

// Sweep names used in metrics and logs.
const (
	SweepGroups        = "groups"
	SweepMemberContent = "member_content"
)

// ReapExpiredGroups tears down every group whose deletion date is at or before now.
// Safe to re-run.
func (s *Service) ReapExpiredGroups(ctx context.Context, now time.Time) (deletion.GroupReapResult, error) {
	res, err := s.deletion.ReapExpiredGroups(ctx, now)
	s.metrics.ObserveSweep(SweepGroups, map[string]int{
		"group":   res.Groups,
		"member":  res.Members,
		"content": res.Content,
	}, err)
	return res, err
}

// ReapExpiredMemberContent removes the content of departed members whose
// grace period ended at or before now. Safe to re-run.
func (s *Service) ReapExpiredMemberContent(ctx context.Context, now time.Time) (deletion.ContentReapResult, error) {
	res, err := s.deletion.ReapExpiredMemberContent(ctx, now)
	s.metrics.ObserveSweep(SweepMemberContent, map[string]int{
		"content": res.Content,
	}, err)
	return res, err
}

// DueReminders lists scheduled deletions whose countdown hits a reminder day at now.
func (s *Service) DueReminders(ctx context.Context, now time.Time) ([]deletion.Reminder, error) {
	reminders, err := s.deletion.DueReminders(ctx, now)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveReminders(len(reminders))
	return reminders, nil
}

// Now returns the engine's current time.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}
