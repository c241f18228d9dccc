package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalkeep/internal/db/dbtest"
	"github.com/templui/goalkeep/internal/model"
)

func height(h model.Height) *model.Height {
	return &h
}

func testGoal(id model.GoalID) *model.Goal {
	return &model.Goal{
		ID:               id,
		Owner:            "alice",
		Title:            "Run a marathon",
		Description:      "Finish under four hours",
		Deadline:         500,
		VerificationType: model.VerificationThirdParty,
		Status:           model.GoalStatusActive,
		CreationTime:     10,
		Privacy:          model.PrivacyPublic,
	}
}

// TestNextID_Sequential verifies ids start at 1 and increase by one.
func TestNextID_Sequential(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	ctx := context.Background()

	for want := model.GoalID(1); want <= 3; want++ {
		id, err := store.Goals().NextID(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
}

// TestNextID_NotReusedAfterRollback verifies a rolled-back operation still burns its id.
func TestNextID_NotReusedAfterRollback(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	ctx := context.Background()

	first, err := store.Goals().NextID(ctx)
	require.NoError(t, err)

	boom := errors.New("boom")
	err = store.InTx(ctx, func(tx *Tx) error {
		return errors.Join(tx.Goals.PutGoal(ctx, testGoal(first)), boom)
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Goals().Goal(ctx, first)
	require.ErrorIs(t, err, ErrGoalNotFound)

	second, err := store.Goals().NextID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first+1, second)
}

// TestPutGoal_RoundTrip verifies every field survives a write and an overwrite.
func TestPutGoal_RoundTrip(t *testing.T) {
	goals := NewStore(dbtest.Open(t)).Goals()
	ctx := context.Background()

	goal := testGoal(1)
	require.NoError(t, goals.PutGoal(ctx, goal))

	got, err := goals.Goal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, goal, got)

	goal.Status = model.GoalStatusVerified
	goal.CompletionTime = height(40)
	goal.VerificationTime = height(42)
	goal.Privacy = model.PrivacyPrivate
	goal.RewardMinted = true
	require.NoError(t, goals.PutGoal(ctx, goal))

	got, err = goals.Goal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, goal, got)
}

// TestGoal_NotFound verifies a missing id is reported with ErrGoalNotFound.
func TestGoal_NotFound(t *testing.T) {
	goals := NewStore(dbtest.Open(t)).Goals()

	_, err := goals.Goal(context.Background(), 99)
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

// TestMilestones verifies ordering, overwrite semantics and the empty and missing cases.
func TestMilestones(t *testing.T) {
	goals := NewStore(dbtest.Open(t)).Goals()
	ctx := context.Background()

	_, err := goals.Milestones(ctx, 1)
	require.ErrorIs(t, err, ErrGoalNotFound)

	require.NoError(t, goals.PutGoal(ctx, testGoal(1)))

	milestones, err := goals.Milestones(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, milestones)

	milestones = model.NewMilestones([]string{"10k", "half", "full"})
	require.NoError(t, goals.PutMilestones(ctx, 1, milestones))

	milestones[1].Completed = true
	milestones[1].CompletionTime = height(77)
	require.NoError(t, goals.PutMilestones(ctx, 1, milestones))

	got, err := goals.Milestones(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, milestones, got)
}

// TestPutMilestones_TooMany verifies the list bound is enforced, not truncated.
func TestPutMilestones_TooMany(t *testing.T) {
	goals := NewStore(dbtest.Open(t)).Goals()
	ctx := context.Background()
	require.NoError(t, goals.PutGoal(ctx, testGoal(1)))

	titles := make([]string, model.MaxMilestonesPerGoal+1)
	for i := range titles {
		titles[i] = "step"
	}

	err := goals.PutMilestones(ctx, 1, model.NewMilestones(titles))
	assert.ErrorIs(t, err, ErrTooManyMilestones)
}

// TestValidators verifies lazy creation and ordered overwrite.
func TestValidators(t *testing.T) {
	goals := NewStore(dbtest.Open(t)).Goals()
	ctx := context.Background()
	require.NoError(t, goals.PutGoal(ctx, testGoal(1)))

	_, err := goals.Validators(ctx, 1)
	require.ErrorIs(t, err, ErrValidatorsNotFound)

	require.NoError(t, goals.PutValidators(ctx, 1, []model.Identity{"bob"}))
	require.NoError(t, goals.PutValidators(ctx, 1, []model.Identity{"bob", "carol"}))

	got, err := goals.Validators(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"bob", "carol"}, got)
}

// TestVerification verifies the single record per goal is overwritten in place.
func TestVerification(t *testing.T) {
	goals := NewStore(dbtest.Open(t)).Goals()
	ctx := context.Background()
	require.NoError(t, goals.PutGoal(ctx, testGoal(1)))

	_, err := goals.Verification(ctx, 1)
	require.ErrorIs(t, err, ErrVerificationNotFound)

	first := &model.Verification{VerifiedBy: "bob", VerificationTime: 50, VerificationNotes: "ok"}
	require.NoError(t, goals.PutVerification(ctx, 1, first))

	second := &model.Verification{VerifiedBy: "carol", VerificationTime: 51, VerificationNotes: "looks good"}
	require.NoError(t, goals.PutVerification(ctx, 1, second))

	got, err := goals.Verification(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

// TestInTx_RollsBackAllWrites verifies a failing unit leaves no partial state.
func TestInTx_RollsBackAllWrites(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	ctx := context.Background()
	require.NoError(t, store.Goals().PutGoal(ctx, testGoal(1)))

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx *Tx) error {
		goal, err := tx.Goals.Goal(ctx, 1)
		if err != nil {
			return err
		}
		goal.Status = model.GoalStatusCompleted
		if err := tx.Goals.PutGoal(ctx, goal); err != nil {
			return err
		}
		if err := tx.Goals.PutValidators(ctx, 1, []model.Identity{"bob"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	goal, err := store.Goals().Goal(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusActive, goal.Status)

	_, err = store.Goals().Validators(ctx, 1)
	assert.ErrorIs(t, err, ErrValidatorsNotFound)
}

// TestInTx_RetriesSerializationFailure verifies a conflicting unit is rerun
// from a clean transaction.
func TestInTx_RetriesSerializationFailure(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	ctx := context.Background()
	require.NoError(t, store.Goals().PutGoal(ctx, testGoal(1)))

	attempts := 0
	err := store.InTx(ctx, func(tx *Tx) error {
		attempts++
		if attempts == 1 {
			if err := tx.Goals.PutValidators(ctx, 1, []model.Identity{"bob"}); err != nil {
				return err
			}
			return fmt.Errorf("failed to update goal: %w", &pgconn.PgError{Code: "40001"})
		}
		return tx.Goals.PutValidators(ctx, 1, []model.Identity{"carol"})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	validators, err := store.Goals().Validators(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []model.Identity{"carol"}, validators)
}

// TestInTx_GivesUpAfterRepeatedConflicts verifies retries are bounded.
func TestInTx_GivesUpAfterRepeatedConflicts(t *testing.T) {
	store := NewStore(dbtest.Open(t))
	ctx := context.Background()

	attempts := 0
	err := store.InTx(ctx, func(tx *Tx) error {
		attempts++
		return &pgconn.PgError{Code: "40001"}
	})
	require.Error(t, err)
	assert.True(t, isSerializationFailure(err))
	assert.Equal(t, maxTxAttempts, attempts)
}

// TestInTx_DoesNotRetryOtherErrors verifies only serialization conflicts rerun the unit.
func TestInTx_DoesNotRetryOtherErrors(t *testing.T) {
	store := NewStore(dbtest.Open(t))

	attempts := 0
	err := store.InTx(context.Background(), func(tx *Tx) error {
		attempts++
		return &pgconn.PgError{Code: "23505"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestTxOptions(t *testing.T) {
	assert.Equal(t, &sql.TxOptions{Isolation: sql.LevelSerializable}, txOptions("pgx"))
	assert.Nil(t, txOptions("sqlite"))
}
