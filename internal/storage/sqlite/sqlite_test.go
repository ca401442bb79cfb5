package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmynk/groupshare/internal/models"
	"github.com/mmynk/groupshare/internal/storage"
)

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createGroup(t *testing.T, store *SQLiteStore, ownerID string) *models.Group {
	t.Helper()

	group := &models.Group{
		Name:      "Family",
		OwnerID:   ownerID,
		CreatedAt: base,
		UpdatedAt: base,
	}
	owner := &models.GroupMember{UserID: ownerID, JoinedAt: base}
	if err := store.CreateGroup(context.Background(), group, owner); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func TestGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup generates ID and owner membership", func(t *testing.T) {
		group := createGroup(t, store, "alice")

		if group.ID == "" {
			t.Fatal("Expected group ID to be generated")
		}
		if group.Version != 1 {
			t.Errorf("Version: got %d, want 1", group.Version)
		}

		member, err := store.GetMember(ctx, group.ID, "alice")
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if member == nil || !member.IsActive() {
			t.Fatal("Expected owner to be an active member")
		}
		if !member.JoinedAt.Equal(base) {
			t.Errorf("JoinedAt: got %v, want %v", member.JoinedAt, base)
		}
	})

	t.Run("GetGroup returns nil for nonexistent group", func(t *testing.T) {
		group, err := store.GetGroup(ctx, "nonexistent-id")
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if group != nil {
			t.Errorf("Expected nil group, got %+v", group)
		}
	})

	t.Run("SaveGroup round-trips deletion fields and bumps version", func(t *testing.T) {
		group := createGroup(t, store, "bob")
		scheduled := base.Add(time.Hour)
		process := scheduled.Add(14 * 24 * time.Hour)
		group.DeletionScheduledAt = &scheduled
		group.DeletionProcessDate = &process
		group.Description = "trip photos"

		if err := store.SaveGroup(ctx, group); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}
		if group.Version != 2 {
			t.Errorf("Version: got %d, want 2", group.Version)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Version != 2 {
			t.Errorf("stored Version: got %d, want 2", got.Version)
		}
		if got.DeletionProcessDate == nil || !got.DeletionProcessDate.Equal(process) {
			t.Errorf("DeletionProcessDate: got %v, want %v", got.DeletionProcessDate, process)
		}
		if got.Description != "trip photos" {
			t.Errorf("Description: got %q", got.Description)
		}
	})

	t.Run("SaveGroup with stale version conflicts", func(t *testing.T) {
		group := createGroup(t, store, "carol")
		stale := *group

		group.Name = "First"
		if err := store.SaveGroup(ctx, group); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}

		stale.Name = "Second"
		err := store.SaveGroup(ctx, &stale)
		if !errors.Is(err, storage.ErrConflict) {
			t.Fatalf("Expected ErrConflict, got %v", err)
		}

		got, _ := store.GetGroup(ctx, group.ID)
		if got.Name != "First" {
			t.Errorf("Name: got %q, want First", got.Name)
		}
	})

	t.Run("SaveGroup never clears DeletedAt", func(t *testing.T) {
		group := createGroup(t, store, "dave")
		deleted := base.Add(time.Hour)
		group.DeletedAt = &deleted
		if err := store.SaveGroup(ctx, group); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}

		group.DeletedAt = nil
		if err := store.SaveGroup(ctx, group); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}

		got, _ := store.GetGroup(ctx, group.ID)
		if got.DeletedAt == nil || !got.DeletedAt.Equal(deleted) {
			t.Errorf("DeletedAt: got %v, want %v", got.DeletedAt, deleted)
		}
	})

	t.Run("ListGroupsDueForDeletion", func(t *testing.T) {
		due := createGroup(t, store, "erin")
		later := createGroup(t, store, "erin")

		for g, at := range map[*models.Group]time.Time{due: base.Add(time.Hour), later: base.Add(48 * time.Hour)} {
			at := at
			g.DeletionScheduledAt = &base
			g.DeletionProcessDate = &at
			if err := store.SaveGroup(ctx, g); err != nil {
				t.Fatalf("SaveGroup failed: %v", err)
			}
		}

		groups, err := store.ListGroupsDueForDeletion(ctx, base.Add(2*time.Hour))
		if err != nil {
			t.Fatalf("ListGroupsDueForDeletion failed: %v", err)
		}
		if len(groups) != 1 || groups[0].ID != due.ID {
			t.Errorf("Expected only %s, got %d groups", due.ID, len(groups))
		}

		scheduled, err := store.ListGroupsScheduledForDeletion(ctx)
		if err != nil {
			t.Fatalf("ListGroupsScheduledForDeletion failed: %v", err)
		}
		if len(scheduled) < 2 {
			t.Errorf("Expected at least 2 scheduled groups, got %d", len(scheduled))
		}
	})

	t.Run("ListGroupsForUser includes owned and joined groups", func(t *testing.T) {
		owned := createGroup(t, store, "frank")
		joined := createGroup(t, store, "gina")
		if err := store.SaveMember(ctx, &models.GroupMember{GroupID: joined.ID, UserID: "frank", JoinedAt: base}); err != nil {
			t.Fatalf("SaveMember failed: %v", err)
		}

		groups, err := store.ListGroupsForUser(ctx, "frank")
		if err != nil {
			t.Fatalf("ListGroupsForUser failed: %v", err)
		}
		ids := map[string]bool{}
		for _, g := range groups {
			ids[g.ID] = true
		}
		if !ids[owned.ID] || !ids[joined.ID] || len(ids) != 2 {
			t.Errorf("Unexpected groups for frank: %v", ids)
		}
	})
}

func TestMembers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := createGroup(t, store, "alice")

	bob := &models.GroupMember{GroupID: group.ID, UserID: "bob", JoinedAt: base.Add(time.Minute)}
	if err := store.SaveMember(ctx, bob); err != nil {
		t.Fatalf("SaveMember failed: %v", err)
	}

	t.Run("CountActiveMembers", func(t *testing.T) {
		n, err := store.CountActiveMembers(ctx, group.ID)
		if err != nil {
			t.Fatalf("CountActiveMembers failed: %v", err)
		}
		if n != 2 {
			t.Errorf("Count: got %d, want 2", n)
		}
	})

	t.Run("departed member is no longer returned by GetMember", func(t *testing.T) {
		bob.Depart(base.Add(time.Hour), 30*24*time.Hour)
		if err := store.SaveMember(ctx, bob); err != nil {
			t.Fatalf("SaveMember failed: %v", err)
		}

		member, err := store.GetMember(ctx, group.ID, "bob")
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if member != nil {
			t.Errorf("Expected no active membership, got %+v", member)
		}

		all, _ := store.ListMembers(ctx, group.ID)
		if len(all) != 2 {
			t.Errorf("ListMembers: got %d rows, want 2", len(all))
		}
		active, _ := store.ListActiveMembers(ctx, group.ID)
		if len(active) != 1 || active[0].UserID != "alice" {
			t.Errorf("ListActiveMembers: got %+v", active)
		}
	})

	t.Run("rejoin creates a new row", func(t *testing.T) {
		again := &models.GroupMember{GroupID: group.ID, UserID: "bob", JoinedAt: base.Add(2 * time.Hour)}
		if err := store.SaveMember(ctx, again); err != nil {
			t.Fatalf("SaveMember failed: %v", err)
		}
		if again.ID == bob.ID {
			t.Fatal("Expected a new membership row")
		}
		all, _ := store.ListMembers(ctx, group.ID)
		if len(all) != 3 {
			t.Errorf("ListMembers: got %d rows, want 3", len(all))
		}
	})

	t.Run("CloseAllMemberships", func(t *testing.T) {
		n, err := store.CloseAllMemberships(ctx, group.ID, base.Add(3*time.Hour))
		if err != nil {
			t.Fatalf("CloseAllMemberships failed: %v", err)
		}
		if n != 2 {
			t.Errorf("Closed: got %d, want 2", n)
		}
		if n, _ := store.CountActiveMembers(ctx, group.ID); n != 0 {
			t.Errorf("Active after close: got %d, want 0", n)
		}
	})
}

func TestSharedContent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := createGroup(t, store, "alice")

	share := func(userID string, ct models.ContentType, id string, at time.Time) *models.GroupSharedContent {
		t.Helper()
		c := &models.GroupSharedContent{GroupID: group.ID, SharedByUserID: userID, ContentType: ct, SharedAt: at}
		c.SetContentID(id)
		if err := store.SaveSharedContent(ctx, c); err != nil {
			t.Fatalf("SaveSharedContent failed: %v", err)
		}
		return c
	}

	p1 := share("alice", models.ContentPhoto, "photo-1", base)
	share("alice", models.ContentAlbum, "album-1", base.Add(time.Minute))
	share("bob", models.ContentPhoto, "photo-2", base.Add(2*time.Minute))

	t.Run("ListActiveContent is newest first", func(t *testing.T) {
		contents, err := store.ListActiveContent(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListActiveContent failed: %v", err)
		}
		if len(contents) != 3 {
			t.Fatalf("Expected 3 rows, got %d", len(contents))
		}
		if contents[0].PhotoID != "photo-2" || contents[2].PhotoID != "photo-1" {
			t.Errorf("Unexpected order: %s, %s", contents[0].ContentID(), contents[2].ContentID())
		}
		if contents[1].ContentType != models.ContentAlbum || contents[1].AlbumID != "album-1" {
			t.Errorf("Album row mismatch: %+v", contents[1])
		}
	})

	t.Run("FindActiveContent distinguishes type", func(t *testing.T) {
		c, err := store.FindActiveContent(ctx, group.ID, models.ContentPhoto, "photo-1")
		if err != nil {
			t.Fatalf("FindActiveContent failed: %v", err)
		}
		if c == nil || c.ID != p1.ID {
			t.Fatalf("Expected %s, got %+v", p1.ID, c)
		}

		c, _ = store.FindActiveContent(ctx, group.ID, models.ContentAlbum, "photo-1")
		if c != nil {
			t.Errorf("Expected no album match, got %+v", c)
		}
	})

	t.Run("soft removal hides content", func(t *testing.T) {
		removed := base.Add(time.Hour)
		p1.RemovedAt = &removed
		if err := store.SaveSharedContent(ctx, p1); err != nil {
			t.Fatalf("SaveSharedContent failed: %v", err)
		}

		got, _ := store.GetSharedContent(ctx, p1.ID)
		if got == nil || got.IsActive() {
			t.Fatalf("Expected removed row to persist, got %+v", got)
		}
		if n, _ := store.CountActiveContent(ctx, group.ID); n != 2 {
			t.Errorf("CountActiveContent: got %d, want 2", n)
		}
	})

	t.Run("RemoveContentSharedBy respects sharedUntil", func(t *testing.T) {
		share("bob", models.ContentPhoto, "photo-3", base.Add(5*time.Hour))

		n, err := store.RemoveContentSharedBy(ctx, group.ID, "bob", base.Add(time.Hour), base.Add(6*time.Hour))
		if err != nil {
			t.Fatalf("RemoveContentSharedBy failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Removed: got %d, want 1", n)
		}
		c, _ := store.FindActiveContent(ctx, group.ID, models.ContentPhoto, "photo-3")
		if c == nil {
			t.Error("Content shared after the cutoff should stay visible")
		}
	})

	t.Run("RemoveAllContent", func(t *testing.T) {
		n, err := store.RemoveAllContent(ctx, group.ID, base.Add(7*time.Hour))
		if err != nil {
			t.Fatalf("RemoveAllContent failed: %v", err)
		}
		if n != 2 {
			t.Errorf("Removed: got %d, want 2", n)
		}
		again, _ := store.RemoveAllContent(ctx, group.ID, base.Add(8*time.Hour))
		if again != 0 {
			t.Errorf("Second pass removed %d rows, want 0", again)
		}
	})
}

func TestExpiredDepartures(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := createGroup(t, store, "alice")

	bob := &models.GroupMember{GroupID: group.ID, UserID: "bob", JoinedAt: base}
	if err := store.SaveMember(ctx, bob); err != nil {
		t.Fatalf("SaveMember failed: %v", err)
	}
	photo := &models.GroupSharedContent{GroupID: group.ID, SharedByUserID: "bob", ContentType: models.ContentPhoto, PhotoID: "p", SharedAt: base}
	if err := store.SaveSharedContent(ctx, photo); err != nil {
		t.Fatalf("SaveSharedContent failed: %v", err)
	}

	bob.Depart(base.Add(time.Hour), 24*time.Hour)
	if err := store.SaveMember(ctx, bob); err != nil {
		t.Fatalf("SaveMember failed: %v", err)
	}

	members, err := store.ListExpiredDepartures(ctx, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ListExpiredDepartures failed: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("Grace period still running, got %d", len(members))
	}

	members, _ = store.ListExpiredDepartures(ctx, base.Add(25*time.Hour))
	if len(members) != 1 || members[0].ID != bob.ID {
		t.Fatalf("Expected bob's departure, got %+v", members)
	}

	if _, err := store.RemoveContentSharedBy(ctx, group.ID, "bob", *bob.LeftAt, base.Add(25*time.Hour)); err != nil {
		t.Fatalf("RemoveContentSharedBy failed: %v", err)
	}
	members, _ = store.ListExpiredDepartures(ctx, base.Add(26*time.Hour))
	if len(members) != 0 {
		t.Errorf("Cleaned-up departures should not be listed, got %d", len(members))
	}
}

func TestRunInTx(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	group := createGroup(t, store, "alice")

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(tx storage.Queries) error {
		if err := tx.SaveMember(ctx, &models.GroupMember{GroupID: group.ID, UserID: "bob", JoinedAt: base}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	member, _ := store.GetMember(ctx, group.ID, "bob")
	if member != nil {
		t.Error("Rolled-back membership should not be visible")
	}
}

func TestUsersAndOwnership(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := &models.User{Email: "Alice@Example.com", DisplayName: "Alice"}
	if err := store.CreateUser(ctx, alice); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got == nil || got.ID != alice.ID {
		t.Fatalf("Expected alice, got %+v", got)
	}

	missing, err := store.GetUserByEmail(ctx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("Expected nil user, got %+v (err %v)", missing, err)
	}

	users, err := store.GetUsersByIDs(ctx, []string{alice.ID, "ghost"})
	if err != nil {
		t.Fatalf("GetUsersByIDs failed: %v", err)
	}
	if len(users) != 1 || users[alice.ID] == nil {
		t.Errorf("Unexpected users: %v", users)
	}

	if err := store.RegisterContent(ctx, models.ContentPhoto, "photo-1", alice.ID); err != nil {
		t.Fatalf("RegisterContent failed: %v", err)
	}
	owned, err := store.IsOwnedBy(ctx, models.ContentPhoto, "photo-1", alice.ID)
	if err != nil || !owned {
		t.Errorf("Expected photo-1 owned by alice (err %v)", err)
	}
	owned, _ = store.IsOwnedBy(ctx, models.ContentAlbum, "photo-1", alice.ID)
	if owned {
		t.Error("Album namespace should not match a photo id")
	}
	owned, _ = store.IsOwnedBy(ctx, models.ContentPhoto, "photo-1", "mallory")
	if owned {
		t.Error("Expected photo-1 not owned by mallory")
	}
}
