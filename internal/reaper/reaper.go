// Package reaper drives the periodic lifecycle sweeps: group teardown,
// departed-member content removal and deletion reminders.
package reaper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/groupshare/internal/clock"
	"github.com/mmynk/groupshare/internal/deletion"
)

// Sweeper is the part of the lifecycle service the reaper drives.
type Sweeper interface {
	ReapExpiredGroups(ctx context.Context, now time.Time) (deletion.GroupReapResult, error)
	ReapExpiredMemberContent(ctx context.Context, now time.Time) (deletion.ContentReapResult, error)
	DueReminders(ctx context.Context, now time.Time) ([]deletion.Reminder, error)
}

// Notifier delivers deletion reminders.
type Notifier interface {
	NotifyDeletion(ctx context.Context, r deletion.Reminder) error
}

// LogNotifier writes reminders to the log.
type LogNotifier struct {
	Logger *slog.Logger
}

// NotifyDeletion logs r.
func (n LogNotifier) NotifyDeletion(_ context.Context, r deletion.Reminder) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("Group scheduled for deletion",
		"group_id", r.GroupID,
		"group_name", r.GroupName,
		"owner_id", r.OwnerID,
		"days_until_deletion", r.DaysUntilDeletion,
		"process_at", r.ProcessAt,
	)
	return nil
}

// ReminderLedger remembers the UTC days reminders were sent for. It is read
// and written while the Lock is held.
type ReminderLedger interface {
	Sent(ctx context.Context, day time.Time) (bool, error)
	MarkSent(ctx context.Context, day time.Time) error
}

// MemoryLedger is a ReminderLedger local to one process. A restarted process
// sends the day's reminders again.
type MemoryLedger struct {
	mu   sync.Mutex
	last time.Time
}

func (l *MemoryLedger) Sent(_ context.Context, day time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !day.After(l.last), nil
}

func (l *MemoryLedger) MarkSent(_ context.Context, day time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if day.After(l.last) {
		l.last = day
	}
	return nil
}

// Options configure a Runner. Zero values pick the defaults.
type Options struct {
	Interval time.Duration
	Lock     Lock
	Ledger   ReminderLedger
	Notifier Notifier
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Runner runs the sweeps on an interval.
type Runner struct {
	sweeper  Sweeper
	interval time.Duration
	lock     Lock
	ledger   ReminderLedger
	notifier Notifier
	clock    clock.Clock
	logger   *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(sweeper Sweeper, opts Options) *Runner {
	r := &Runner{
		sweeper:  sweeper,
		interval: opts.Interval,
		lock:     opts.Lock,
		ledger:   opts.Ledger,
		notifier: opts.Notifier,
		clock:    opts.Clock,
		logger:   opts.Logger,
	}
	if r.interval <= 0 {
		r.interval = time.Hour
	}
	if r.lock == nil {
		r.lock = LocalLock{}
	}
	if r.ledger == nil {
		r.ledger = &MemoryLedger{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.notifier == nil {
		r.notifier = LogNotifier{Logger: r.logger}
	}
	if r.clock == nil {
		r.clock = clock.System{}
	}
	return r
}

// Run sweeps immediately and then every interval until ctx is done.
// Sweep errors are logged, not returned.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("Reaper started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("Reaper pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			r.logger.Info("Reaper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Start runs Run in the background. The returned stop func cancels it and
// waits for the pass in flight, if any, to return.
func (r *Runner) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

// RunOnce performs one pass: both sweeps, then reminders if none were sent
// yet for the current day. The pass is skipped when another replica holds the lock.
func (r *Runner) RunOnce(ctx context.Context) error {
	acquired, err := r.lock.TryAcquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		r.logger.Debug("Reaper lock held elsewhere, skipping pass")
		return nil
	}
	defer func() {
		if err := r.lock.Release(context.WithoutCancel(ctx)); err != nil {
			r.logger.Warn("Failed to release reaper lock", "error", err)
		}
	}()

	now := r.clock.Now()
	var errs []error

	groups, err := r.sweeper.ReapExpiredGroups(ctx, now)
	if err != nil {
		errs = append(errs, err)
	}
	content, err := r.sweeper.ReapExpiredMemberContent(ctx, now)
	if err != nil {
		errs = append(errs, err)
	}
	if groups.Groups > 0 || content.Content > 0 {
		r.logger.Info("Reaper pass finished",
			"groups_deleted", groups.Groups,
			"memberships_closed", groups.Members,
			"group_content_removed", groups.Content,
			"departed_members_reaped", content.Members,
			"member_content_removed", content.Content,
		)
	}

	if err := r.sendReminders(ctx, now); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (r *Runner) sendReminders(ctx context.Context, now time.Time) error {
	today := now.UTC().Truncate(24 * time.Hour)
	sent, err := r.ledger.Sent(ctx, today)
	if err != nil {
		return err
	}
	if sent {
		return nil
	}

	reminders, err := r.sweeper.DueReminders(ctx, now)
	if err != nil {
		return err
	}

	var errs []error
	for _, rem := range reminders {
		if err := r.notifier.NotifyDeletion(ctx, rem); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.ledger.MarkSent(ctx, today); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
