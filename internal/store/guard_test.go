// ABOUTME: Guarded single-row writes on store.Tx against Postgres: a membership change
// ABOUTME: committed while the writer waits on the board lock blocks the write.
package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scarson/taskboard/internal/board"
	"github.com/scarson/taskboard/internal/store"
	"github.com/scarson/taskboard/internal/testutil"
)

func TestGuardCreate_RemovedWhileWaitingForLock(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()
	d := seed(t, s)

	// Another request holds the board lock and removes the writer.
	holder, err := s.Pool().Begin(ctx)
	require.NoError(t, err)
	defer holder.Rollback(ctx) //nolint:errcheck
	_, err = holder.Exec(ctx, `SELECT id FROM boards WHERE id = $1 FOR UPDATE`, d.board.ID)
	require.NoError(t, err)
	_, err = holder.Exec(ctx,
		`DELETE FROM board_participants WHERE board_id = $1 AND user_id = $2`, d.board.ID, d.writer.ID)
	require.NoError(t, err)

	result := make(chan error, 1)
	go func() {
		result <- s.RunTx(ctx, func(tx *store.Tx) error {
			if err := board.GuardCreate(ctx, tx, d.writer.ID, board.KindCategory, d.board.ID); err != nil {
				return err
			}
			_, err := tx.CreateCategory(ctx, d.board.ID, d.writer.ID, "late")
			return err
		})
	}()

	require.Eventually(t, func() bool {
		var waiting int
		err := s.Pool().QueryRow(ctx,
			`SELECT count(*) FROM pg_stat_activity WHERE wait_event_type = 'Lock' AND datname = current_database()`,
		).Scan(&waiting)
		return err == nil && waiting > 0
	}, 10*time.Second, 20*time.Millisecond, "writer never queued on the board lock")

	require.NoError(t, holder.Commit(ctx))
	require.ErrorIs(t, <-result, board.ErrNotFound)

	cats, err := s.ListCategories(ctx, d.owner.ID, d.board.ID)
	require.NoError(t, err)
	assert.Len(t, cats, 2, "no category may be written by a removed member")
}

var errAbort = errors.New("abort")

func TestGuard_WriteOnSameTx(t *testing.T) {
	t.Parallel()
	s := testutil.NewTestDB(t)
	ctx := context.Background()
	d := seed(t, s)
	target := board.Target{Kind: board.KindGoal, ID: d.goals[0].ID}

	title := "renamed"
	err := s.RunTx(ctx, func(tx *store.Tx) error {
		if err := board.Guard(ctx, tx, d.reader.ID, board.Unsafe, target); err != nil {
			return err
		}
		_, err := tx.UpdateGoal(ctx, target.ID, store.GoalPatch{Title: &title})
		return err
	})
	require.ErrorIs(t, err, board.ErrForbidden)

	var updated *store.Goal
	err = s.RunTx(ctx, func(tx *store.Tx) error {
		if err := board.Guard(ctx, tx, d.writer.ID, board.Unsafe, target); err != nil {
			return err
		}
		g, err := tx.UpdateGoal(ctx, target.ID, store.GoalPatch{Title: &title})
		updated = g
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, title, updated.Title)

	// A failed write after the guard rolls the transaction back.
	err = s.RunTx(ctx, func(tx *store.Tx) error {
		if err := board.Guard(ctx, tx, d.reader.ID, board.Unsafe, board.Target{Kind: board.KindComment, ID: d.comment.ID}); err != nil {
			return err
		}
		if _, err := tx.DeleteComment(ctx, d.comment.ID); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	got, err := s.GetComment(ctx, d.comment.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}
