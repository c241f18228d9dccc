package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalkeep/internal/db/dbtest"
	"github.com/templui/goalkeep/internal/model"
)

// TestUserIndex_Append verifies per-identity ordering and isolation.
func TestUserIndex_Append(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	ctx := context.Background()

	for id := model.GoalID(1); id <= 3; id++ {
		require.NoError(t, store.Goals().PutGoal(ctx, testGoal(id)))
	}

	users := store.Users()

	ids, err := users.GoalIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, users.Append(ctx, "alice", 1))
	require.NoError(t, users.Append(ctx, "bob", 2))
	require.NoError(t, users.Append(ctx, "alice", 3))

	ids, err = users.GoalIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []model.GoalID{1, 3}, ids)

	ids, err = users.GoalIDs(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []model.GoalID{2}, ids)
}

// TestUserIndex_Full verifies appends beyond the bound are rejected.
func TestUserIndex_Full(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	ctx := context.Background()

	err := store.InTx(ctx, func(tx *Tx) error {
		for id := model.GoalID(1); id <= model.MaxGoalsPerIdentity+1; id++ {
			if err := tx.Goals.PutGoal(ctx, testGoal(id)); err != nil {
				return err
			}
		}
		for id := model.GoalID(1); id <= model.MaxGoalsPerIdentity; id++ {
			if err := tx.Users.Append(ctx, "alice", id); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	err = store.Users().Append(ctx, "alice", model.MaxGoalsPerIdentity+1)
	assert.ErrorIs(t, err, ErrUserIndexFull)

	count, err := store.Users().Count(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.MaxGoalsPerIdentity, count)
}
