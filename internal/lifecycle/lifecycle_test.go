package lifecycle

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/groupshare/internal/apperr"
	"github.com/mmynk/groupshare/internal/clock"
	"github.com/mmynk/groupshare/internal/metrics"
	"github.com/mmynk/groupshare/internal/models"
	"github.com/mmynk/groupshare/internal/storage"
	"github.com/mmynk/groupshare/internal/storage/sqlite"
)

const day = 24 * time.Hour

var t0 = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

type harness struct {
	svc      *Service
	store    *sqlite.SQLiteStore
	clock    *clock.Fake
	registry *prometheus.Registry
	users    map[string]*models.User
}

func newHarness(t *testing.T, wrap func(storage.Store) storage.Store) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "groups.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	users := make(map[string]*models.User)
	for _, name := range []string{"olivia", "ann", "ben", "cara"} {
		u := &models.User{Email: name + "@example.com", DisplayName: strings.ToUpper(name[:1]) + name[1:]}
		require.NoError(t, store.CreateUser(ctx, u))
		users[name] = u
	}

	var s storage.Store = store
	if wrap != nil {
		s = wrap(store)
	}

	clk := clock.NewFake(t0)
	reg := prometheus.NewRegistry()
	svc := New(Config{
		Store:     s,
		Ownership: store,
		Users:     store,
		Clock:     clk,
		Settings:  DefaultSettings(),
		Metrics:   metrics.New(reg),
	})

	return &harness{svc: svc, store: store, clock: clk, registry: reg, users: users}
}

func (h *harness) id(name string) string { return h.users[name].ID }

func (h *harness) createGroup(t *testing.T, owner string, members ...string) *GroupDetails {
	t.Helper()
	ctx := context.Background()

	g, err := h.svc.CreateGroup(ctx, h.id(owner), "Summer trip", "Photos from the lake")
	require.NoError(t, err)
	for _, m := range members {
		_, err := h.svc.AddMember(ctx, g.ID, h.id(owner), h.id(m))
		require.NoError(t, err)
	}
	return g
}

func (h *harness) photo(t *testing.T, owner, photoID string) {
	t.Helper()
	require.NoError(t, h.store.RegisterContent(context.Background(), models.ContentPhoto, photoID, h.id(owner)))
}

func TestCreateAndGetGroup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	created, err := h.svc.CreateGroup(ctx, h.id("olivia"), "  Summer trip  ", "")
	require.NoError(t, err)
	assert.Equal(t, "Summer trip", created.Name)
	assert.True(t, created.IsOwner)
	assert.Equal(t, 1, created.MemberCount)
	require.Len(t, created.Members, 1)
	assert.Equal(t, "olivia@example.com", created.Members[0].Email)
	assert.True(t, created.Members[0].IsOwner)
	assert.Equal(t, models.GroupActive{}, created.State)

	_, err = h.svc.AddMember(ctx, created.ID, h.id("olivia"), h.id("ann"))
	require.NoError(t, err)
	h.photo(t, "ann", "p-1")
	shared, err := h.svc.ShareContent(ctx, created.ID, h.id("ann"), models.ContentPhoto, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", shared.SharedByEmail)

	details, err := h.svc.GetGroup(ctx, created.ID, h.id("ann"))
	require.NoError(t, err)
	assert.False(t, details.IsOwner)
	assert.Equal(t, 2, details.MemberCount)
	assert.Equal(t, 1, details.ContentCount)
	require.Len(t, details.Content, 1)
	assert.Equal(t, "p-1", details.Content[0].ContentID)

	_, err = h.svc.GetGroup(ctx, created.ID, h.id("ben"))
	assert.ErrorIs(t, err, apperr.ErrNotMember)

	_, err = h.svc.GetGroup(ctx, "missing", h.id("olivia"))
	assert.ErrorIs(t, err, apperr.ErrGroupNotFound)

	t.Run("validation", func(t *testing.T) {
		_, err := h.svc.CreateGroup(ctx, h.id("olivia"), "   ", "")
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

		_, err = h.svc.CreateGroup(ctx, h.id("olivia"), strings.Repeat("x", models.MaxGroupNameLength+1), "")
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

		_, err = h.svc.CreateGroup(ctx, h.id("olivia"), "ok", strings.Repeat("d", models.MaxGroupDescriptionLength+1))
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	})
}

func TestUpdateGroup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	g := h.createGroup(t, "olivia", "ann")

	h.clock.Advance(time.Hour)
	updated, err := h.svc.UpdateGroup(ctx, g.ID, h.id("olivia"), "Winter trip", "Snow")
	require.NoError(t, err)
	assert.Equal(t, "Winter trip", updated.Name)
	assert.Equal(t, "Snow", updated.Description)
	assert.Equal(t, h.clock.Now(), updated.UpdatedAt)

	_, err = h.svc.UpdateGroup(ctx, g.ID, h.id("ann"), "Mine now", "")
	assert.ErrorIs(t, err, apperr.ErrNotOwner)
}

func TestListGroups(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	first := h.createGroup(t, "olivia", "ann")
	h.clock.Advance(time.Minute)
	second := h.createGroup(t, "ann")
	h.createGroup(t, "ben")

	groups, err := h.svc.ListGroups(ctx, h.id("ann"))
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, second.ID, groups[0].ID)
	assert.True(t, groups[0].IsOwner)
	assert.Equal(t, first.ID, groups[1].ID)
	assert.Equal(t, 2, groups[1].MemberCount)
}

func TestTransferThenLeave(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	g := h.createGroup(t, "olivia", "ann")

	_, err := h.svc.LeaveGroup(ctx, g.ID, h.id("olivia"))
	assert.ErrorIs(t, err, apperr.ErrOwnerCannotLeave)

	summary, err := h.svc.TransferOwnership(ctx, g.ID, h.id("olivia"), h.id("ann"))
	require.NoError(t, err)
	assert.Equal(t, h.id("ann"), summary.OwnerID)
	assert.False(t, summary.IsOwner)

	left, err := h.svc.LeaveGroup(ctx, g.ID, h.id("olivia"))
	require.NoError(t, err)
	assert.False(t, left.IsActive)
	assert.True(t, left.IsInGracePeriod)

	_, err = h.svc.RemoveMember(ctx, g.ID, h.id("ann"), h.id("ann"))
	assert.ErrorIs(t, err, apperr.ErrCannotRemoveOwner)
}

func TestAddMemberByEmail(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	g := h.createGroup(t, "olivia")

	view, err := h.svc.AddMemberByEmail(ctx, g.ID, h.id("olivia"), " Cara@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, h.id("cara"), view.UserID)
	assert.Equal(t, "Cara", view.DisplayName)

	_, err = h.svc.AddMemberByEmail(ctx, g.ID, h.id("olivia"), "nobody@example.com")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	_, err = h.svc.AddMemberByEmail(ctx, g.ID, h.id("olivia"), "cara@example.com")
	assert.ErrorIs(t, err, apperr.ErrAlreadyMember)
}

func TestReshareKeepsHistory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	g := h.createGroup(t, "olivia", "ann")
	h.photo(t, "ann", "p-1")

	first, err := h.svc.ShareContent(ctx, g.ID, h.id("ann"), models.ContentPhoto, "p-1")
	require.NoError(t, err)
	_, err = h.svc.UnshareContent(ctx, g.ID, h.id("olivia"), first.ID)
	require.NoError(t, err)
	second, err := h.svc.ShareContent(ctx, g.ID, h.id("ann"), models.ContentPhoto, "p-1")
	require.NoError(t, err)

	active, err := h.svc.ListActiveContent(ctx, g.ID, h.id("ann"))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	old, err := h.store.GetSharedContent(ctx, first.ID)
	require.NoError(t, err)
	assert.NotNil(t, old.RemovedAt)
}

func TestMemberGracePeriodScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	g := h.createGroup(t, "olivia", "ann", "ben")
	h.photo(t, "ann", "p-ann")
	h.photo(t, "ben", "p-ben")

	_, err := h.svc.ShareContent(ctx, g.ID, h.id("ann"), models.ContentPhoto, "p-ann")
	require.NoError(t, err)
	_, err = h.svc.ShareContent(ctx, g.ID, h.id("ben"), models.ContentPhoto, "p-ben")
	require.NoError(t, err)

	h.clock.Set(t0.Add(5 * day))
	_, err = h.svc.LeaveGroup(ctx, g.ID, h.id("ann"))
	require.NoError(t, err)

	h.clock.Set(t0.Add(6 * day))
	members, err := h.svc.ListMembers(ctx, g.ID, h.id("olivia"))
	require.NoError(t, err)
	ann := findMember(t, members, h.id("ann"))
	assert.True(t, ann.IsInGracePeriod)
	assert.IsType(t, models.MemberDeparted{}, ann.State)

	_, err = h.svc.ReapExpiredMemberContent(ctx, h.svc.Now())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p-ann", "p-ben"}, activeContentIDs(t, h, g.ID))

	h.clock.Set(t0.Add(36 * day))
	members, err = h.svc.ListMembers(ctx, g.ID, h.id("olivia"))
	require.NoError(t, err)
	assert.False(t, findMember(t, members, h.id("ann")).IsInGracePeriod)

	res, err := h.svc.ReapExpiredMemberContent(ctx, h.svc.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Content)
	assert.Equal(t, []string{"p-ben"}, activeContentIDs(t, h, g.ID))

	// The departed member can no longer read the group.
	_, err = h.svc.ListActiveContent(ctx, g.ID, h.id("ann"))
	assert.ErrorIs(t, err, apperr.ErrNotMember)

	assert.Equal(t, 1.0, counterValue(t, h, "groupshare_reaper_rows_total", "content"))
}

func TestGroupDeletionScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	g := h.createGroup(t, "olivia", "ann")
	h.photo(t, "ann", "p-1")
	_, err := h.svc.ShareContent(ctx, g.ID, h.id("ann"), models.ContentPhoto, "p-1")
	require.NoError(t, err)

	h.clock.Set(t0.Add(day))
	_, err = h.svc.RequestDeletion(ctx, g.ID, h.id("ann"))
	assert.ErrorIs(t, err, apperr.ErrNotOwner)

	summary, err := h.svc.RequestDeletion(ctx, g.ID, h.id("olivia"))
	require.NoError(t, err)
	assert.True(t, summary.IsDeletionScheduled)
	assert.Equal(t, 14, summary.DaysUntilDeletion)

	_, err = h.svc.RequestDeletion(ctx, g.ID, h.id("olivia"))
	assert.ErrorIs(t, err, apperr.ErrAlreadyScheduled)

	// Operations continue while deletion is pending.
	_, err = h.svc.AddMember(ctx, g.ID, h.id("olivia"), h.id("ben"))
	require.NoError(t, err)

	h.clock.Set(t0.Add(2 * day))
	details, err := h.svc.GetGroup(ctx, g.ID, h.id("ann"))
	require.NoError(t, err)
	assert.Equal(t, 13, details.DaysUntilDeletion)
	assert.IsType(t, models.GroupDeletionScheduled{}, details.State)

	h.clock.Set(t0.Add(15 * day))
	details, err = h.svc.GetGroup(ctx, g.ID, h.id("ann"))
	require.NoError(t, err)
	assert.Equal(t, 0, details.DaysUntilDeletion)

	res, err := h.svc.ReapExpiredGroups(ctx, h.svc.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Groups)
	assert.Equal(t, 3, res.Members)
	assert.Equal(t, 1, res.Content)

	res, err = h.svc.ReapExpiredGroups(ctx, h.svc.Now())
	require.NoError(t, err)
	assert.Zero(t, res.Groups)

	t.Run("deleted group is terminal", func(t *testing.T) {
		_, err := h.svc.AddMember(ctx, g.ID, h.id("olivia"), h.id("cara"))
		assert.ErrorIs(t, err, apperr.ErrGroupDeleted)

		_, err = h.svc.CancelDeletion(ctx, g.ID, h.id("olivia"))
		assert.ErrorIs(t, err, apperr.ErrGroupDeleted)

		_, err = h.svc.ShareContent(ctx, g.ID, h.id("ann"), models.ContentPhoto, "p-1")
		assert.ErrorIs(t, err, apperr.ErrGroupDeleted)
	})

	t.Run("history stays readable for past members", func(t *testing.T) {
		details, err := h.svc.GetGroup(ctx, g.ID, h.id("ann"))
		require.NoError(t, err)
		assert.Equal(t, models.GroupDeleted{Since: t0.Add(15 * day)}, details.State)
		assert.Zero(t, details.MemberCount)
		assert.Empty(t, details.Content)

		_, err = h.svc.GetGroup(ctx, g.ID, h.id("cara"))
		assert.ErrorIs(t, err, apperr.ErrNotMember)
	})

	t.Run("deleted group leaves the list", func(t *testing.T) {
		groups, err := h.svc.ListGroups(ctx, h.id("olivia"))
		require.NoError(t, err)
		assert.Empty(t, groups)
	})
}

func TestCancelDeletion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	g := h.createGroup(t, "olivia")

	_, err := h.svc.CancelDeletion(ctx, g.ID, h.id("olivia"))
	assert.ErrorIs(t, err, apperr.ErrNotScheduled)

	_, err = h.svc.RequestDeletion(ctx, g.ID, h.id("olivia"))
	require.NoError(t, err)
	summary, err := h.svc.CancelDeletion(ctx, g.ID, h.id("olivia"))
	require.NoError(t, err)
	assert.False(t, summary.IsDeletionScheduled)
	assert.Nil(t, summary.DeletionProcessDate)
	assert.Equal(t, models.GroupActive{}, summary.State)
}

func TestDueReminders(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	g := h.createGroup(t, "olivia")
	_, err := h.svc.RequestDeletion(ctx, g.ID, h.id("olivia"))
	require.NoError(t, err)

	reminders, err := h.svc.DueReminders(ctx, t0.Add(7*day))
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, g.ID, reminders[0].GroupID)
	assert.Equal(t, 7, reminders[0].DaysUntilDeletion)
}

// racingStore bumps the group's version before the next races transactions,
// as if another writer got there first.
type racingStore struct {
	storage.Store
	groupID string
	races   int
}

func (r *racingStore) RunInTx(ctx context.Context, fn func(tx storage.Queries) error) error {
	if r.races > 0 && r.groupID != "" {
		r.races--
		err := r.Store.RunInTx(ctx, func(tx storage.Queries) error {
			g, err := tx.GetGroup(ctx, r.groupID)
			if err != nil {
				return err
			}
			return tx.SaveGroup(ctx, g)
		})
		if err != nil {
			return err
		}
	}
	return r.Store.RunInTx(ctx, fn)
}

func TestConcurrentModification(t *testing.T) {
	ctx := context.Background()
	racing := &racingStore{}
	h := newHarness(t, func(s storage.Store) storage.Store {
		racing.Store = s
		return racing
	})
	g := h.createGroup(t, "olivia")
	racing.groupID = g.ID

	t.Run("retried once", func(t *testing.T) {
		racing.races = 1
		_, err := h.svc.AddMember(ctx, g.ID, h.id("olivia"), h.id("ann"))
		require.NoError(t, err)

		member, err := h.store.GetMember(ctx, g.ID, h.id("ann"))
		require.NoError(t, err)
		assert.NotNil(t, member)
		assert.Equal(t, 1.0, counterValue(t, h, "groupshare_concurrent_modification_retries_total", "add_member"))
	})

	t.Run("surfaced after the retry", func(t *testing.T) {
		racing.races = 2
		_, err := h.svc.TransferOwnership(ctx, g.ID, h.id("olivia"), h.id("ann"))
		assert.ErrorIs(t, err, apperr.ErrConcurrentModification)
		assert.Equal(t, apperr.KindConcurrentModification, apperr.KindOf(err))

		stored, err := h.store.GetGroup(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, h.id("olivia"), stored.OwnerID)
	})

	t.Run("business errors are not retried", func(t *testing.T) {
		racing.races = 0
		_, err := h.svc.LeaveGroup(ctx, g.ID, h.id("olivia"))
		assert.ErrorIs(t, err, apperr.ErrOwnerCannotLeave)
	})
}

// hookStore runs before once, ahead of the next transaction.
type hookStore struct {
	storage.Store
	before func()
}

func (h *hookStore) RunInTx(ctx context.Context, fn func(tx storage.Queries) error) error {
	if before := h.before; before != nil {
		h.before = nil
		before()
	}
	return h.Store.RunInTx(ctx, fn)
}

func TestLeaveRacingGroupReap(t *testing.T) {
	ctx := context.Background()
	hook := &hookStore{}
	h := newHarness(t, func(s storage.Store) storage.Store {
		hook.Store = s
		return hook
	})
	g := h.createGroup(t, "olivia", "ann")
	_, err := h.svc.RequestDeletion(ctx, g.ID, h.id("olivia"))
	require.NoError(t, err)
	h.clock.Advance(15 * day)

	// The sweep commits after LeaveGroup has read the group.
	hook.before = func() {
		res, err := h.svc.ReapExpiredGroups(ctx, h.clock.Now())
		require.NoError(t, err)
		require.Equal(t, 1, res.Groups)
	}

	_, err = h.svc.LeaveGroup(ctx, g.ID, h.id("ann"))
	assert.ErrorIs(t, err, apperr.ErrGroupDeleted)
	assert.Equal(t, 1.0, counterValue(t, h, "groupshare_concurrent_modification_retries_total", "leave_group"))

	stored, err := h.store.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsDeleted())
}

func TestCanceledContextWritesNothing(t *testing.T) {
	h := newHarness(t, nil)
	g := h.createGroup(t, "olivia")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.svc.AddMember(ctx, g.ID, h.id("olivia"), h.id("ann"))
	require.Error(t, err)

	member, err := h.store.GetMember(context.Background(), g.ID, h.id("ann"))
	require.NoError(t, err)
	assert.Nil(t, member)
}

func findMember(t *testing.T, views []MemberView, userID string) MemberView {
	t.Helper()
	for _, v := range views {
		if v.UserID == userID {
			return v
		}
	}
	t.Fatalf("member %s not found", userID)
	return MemberView{}
}

func activeContentIDs(t *testing.T, h *harness, groupID string) []string {
	t.Helper()
	views, err := h.svc.ListActiveContent(context.Background(), groupID, h.id("olivia"))
	require.NoError(t, err)

	ids := make([]string, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ContentID)
	}
	return ids
}

// counterValue returns the value of the counter sample of name carrying a
// label with the given value.
func counterValue(t *testing.T, h *harness, name, label string) float64 {
	t.Helper()

	families, err := h.registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	t.Fatalf("counter %s{%s} not found", name, label)
	return 0
}
