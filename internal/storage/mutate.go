package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/groupshare/internal/apperr"
	"github.com/mmynk/groupshare/internal/models"
)

// WithGroup runs a read-modify-write of one group inside a single transaction.
//
// The group is re-read inside the transaction and compared against the
// version of snapshot, the copy the caller based its decision on. A mismatch
// fails with apperr.ErrConcurrentModification before fn runs. After fn
// returns, the group is saved with UpdatedAt = now under the same version
// guard, and snapshot is refreshed with the committed state.
//
// Errors from fn that are not *apperr.Error are reported as upstream failures.
func WithGroup(ctx context.Context, store Store, snapshot *models.Group, now time.Time, fn func(tx Queries, g *models.Group) error) error {
	var committed models.Group
	err := store.RunInTx(ctx, func(tx Queries) error {
		g, err := tx.GetGroup(ctx, snapshot.ID)
		if err != nil {
			return err
		}
		if g == nil {
			return apperr.ErrGroupNotFound.With("group", snapshot.ID)
		}
		if g.Version != snapshot.Version {
			return apperr.ErrConcurrentModification.With("group", g.ID)
		}
		if err := fn(tx, g); err != nil {
			return err
		}
		g.UpdatedAt = now
		if err := tx.SaveGroup(ctx, g); err != nil {
			return err
		}
		committed = *g
		return nil
	})
	if err != nil {
		return Translate("update group", err)
	}
	*snapshot = committed
	return nil
}

// Translate maps a store error to the apperr taxonomy.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConflict) {
		return apperr.ErrConcurrentModification.Wrap(err)
	}
	return apperr.Upstream(op, err)
}
