package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalkeep/internal/model"
)

var (
	ErrGoalNotFound         = errors.New("goal not found")
	ErrValidatorsNotFound   = errors.New("goal has no validators")
	ErrVerificationNotFound = errors.New("goal has no verification")
	ErrTooManyMilestones    = errors.New("too many milestones")
	ErrTooManyValidators    = errors.New("too many validators")
)

// GoalStore owns goal records and their child collections, all keyed by goal id.
// Put operations overwrite unconditionally.
type GoalStore interface {
	NextID(ctx context.Context) (model.GoalID, error)

	Goal(ctx context.Context, id model.GoalID) (*model.Goal, error)
	PutGoal(ctx context.Context, goal *model.Goal) error

	Milestones(ctx context.Context, id model.GoalID) ([]model.Milestone, error)
	PutMilestones(ctx context.Context, id model.GoalID, milestones []model.Milestone) error

	Validators(ctx context.Context, id model.GoalID) ([]model.Identity, error)
	PutValidators(ctx context.Context, id model.GoalID, validators []model.Identity) error

	Verification(ctx context.Context, id model.GoalID) (*model.Verification, error)
	PutVerification(ctx context.Context, id model.GoalID, verification *model.Verification) error
}

type goalStore struct {
	db sqlx.ExtContext
}

// NewGoalStore returns a GoalStore over either a *sqlx.DB or a *sqlx.Tx.
func NewGoalStore(db sqlx.ExtContext) GoalStore {
	return &goalStore{db: db}
}

// NextID advances the goal sequence and returns the new value. Ids handed out
// here are never returned again, even if the caller later fails.
func (r *goalStore) NextID(ctx context.Context) (model.GoalID, error) {
	var id model.GoalID
	query := `UPDATE goal_sequence SET value = value + 1 WHERE name = 'goals' RETURNING value`

	err := sqlx.GetContext(ctx, r.db, &id, query)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate goal id: %w", err)
	}

	return id, nil
}

func (r *goalStore) Goal(ctx context.Context, id model.GoalID) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT id, owner, title, description, deadline, verification_type, status,
	                 creation_time, completion_time, verification_time, privacy, reward_minted
	          FROM goals WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, goal, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalStore) PutGoal(ctx context.Context, goal *model.Goal) error {
	query := `INSERT INTO goals (id, owner, title, description, deadline, verification_type, status,
	                             creation_time, completion_time, verification_time, privacy, reward_minted)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          ON CONFLICT (id) DO UPDATE SET
	              owner = excluded.owner,
	              title = excluded.title,
	              description = excluded.description,
	              deadline = excluded.deadline,
	              verification_type = excluded.verification_type,
	              status = excluded.status,
	              creation_time = excluded.creation_time,
	              completion_time = excluded.completion_time,
	              verification_time = excluded.verification_time,
	              privacy = excluded.privacy,
	              reward_minted = excluded.reward_minted`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.Owner,
		goal.Title,
		goal.Description,
		goal.Deadline,
		goal.VerificationType,
		goal.Status,
		goal.CreationTime,
		goal.CompletionTime,
		goal.VerificationTime,
		goal.Privacy,
		goal.RewardMinted,
	)

	return err
}

// Milestones returns the goal's milestones in order. A goal created without
// milestone titles yields an empty list; a missing goal yields ErrGoalNotFound.
func (r *goalStore) Milestones(ctx context.Context, id model.GoalID) ([]model.Milestone, error) {
	milestones := []model.Milestone{}
	query := `SELECT title, completed, completion_time FROM goal_milestones
	          WHERE goal_id = $1 ORDER BY ordinal ASC`

	err := sqlx.SelectContext(ctx, r.db, &milestones, query, id)
	if err != nil {
		return nil, err
	}

	if len(milestones) == 0 {
		exists, err := r.exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrGoalNotFound
		}
	}

	return milestones, nil
}

func (r *goalStore) PutMilestones(ctx context.Context, id model.GoalID, milestones []model.Milestone) error {
	if len(milestones) > model.MaxMilestonesPerGoal {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyMilestones, len(milestones), model.MaxMilestonesPerGoal)
	}

	_, err := r.db.ExecContext(ctx, `DELETE FROM goal_milestones WHERE goal_id = $1`, id)
	if err != nil {
		return err
	}

	query := `INSERT INTO goal_milestones (goal_id, ordinal, title, completed, completion_time)
	          VALUES ($1, $2, $3, $4, $5)`

	for i, m := range milestones {
		_, err := r.db.ExecContext(ctx, query, id, i, m.Title, m.Completed, m.CompletionTime)
		if err != nil {
			return fmt.Errorf("failed to write milestone %d: %w", i, err)
		}
	}

	return nil
}

// Validators returns ErrValidatorsNotFound until the first validator is added.
func (r *goalStore) Validators(ctx context.Context, id model.GoalID) ([]model.Identity, error) {
	var validators []model.Identity
	query := `SELECT identity FROM goal_validators WHERE goal_id = $1 ORDER BY ordinal ASC`

	err := sqlx.SelectContext(ctx, r.db, &validators, query, id)
	if err != nil {
		return nil, err
	}

	if len(validators) == 0 {
		return nil, ErrValidatorsNotFound
	}

	return validators, nil
}

func (r *goalStore) PutValidators(ctx context.Context, id model.GoalID, validators []model.Identity) error {
	if len(validators) > model.MaxValidatorsPerGoal {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyValidators, len(validators), model.MaxValidatorsPerGoal)
	}

	_, err := r.db.ExecContext(ctx, `DELETE FROM goal_validators WHERE goal_id = $1`, id)
	if err != nil {
		return err
	}

	query := `INSERT INTO goal_validators (goal_id, ordinal, identity) VALUES ($1, $2, $3)`

	for i, v := range validators {
		_, err := r.db.ExecContext(ctx, query, id, i, v)
		if err != nil {
			return fmt.Errorf("failed to write validator %d: %w", i, err)
		}
	}

	return nil
}

func (r *goalStore) Verification(ctx context.Context, id model.GoalID) (*model.Verification, error) {
	verification := &model.Verification{}
	query := `SELECT verified_by, verification_time, verification_notes
	          FROM goal_verifications WHERE goal_id = $1`

	err := sqlx.GetContext(ctx, r.db, verification, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVerificationNotFound
	}
	if err != nil {
		return nil, err
	}

	return verification, nil
}

func (r *goalStore) PutVerification(ctx context.Context, id model.GoalID, verification *model.Verification) error {
	query := `INSERT INTO goal_verifications (goal_id, verified_by, verification_time, verification_notes)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (goal_id) DO UPDATE SET
	              verified_by = excluded.verified_by,
	              verification_time = excluded.verification_time,
	              verification_notes = excluded.verification_notes`

	_, err := r.db.ExecContext(ctx, query,
		id,
		verification.VerifiedBy,
		verification.VerificationTime,
		verification.VerificationNotes,
	)

	return err
}

func (r *goalStore) exists(ctx context.Context, id model.GoalID) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM goals WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
