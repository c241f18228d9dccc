package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalkeep/internal/model"
)

var (
	ErrUserIndexFull = errors.New("user goal index is full")
)

// UserIndex keeps, per identity, the ordered ids of the goals it created.
// Entries are only ever appended.
type UserIndex interface {
	Append(ctx context.Context, identity model.Identity, id model.GoalID) error
	GoalIDs(ctx context.Context, identity model.Identity) ([]model.GoalID, error)
	Count(ctx context.Context, identity model.Identity) (int, error)
}

type userIndex struct {
	db sqlx.ExtContext
}

func NewUserIndex(db sqlx.ExtContext) UserIndex {
	return &userIndex{db: db}
}

// Append adds id to the end of identity's list, creating the list on first use.
// It fails with ErrUserIndexFull once the list holds MaxGoalsPerIdentity entries.
func (r *userIndex) Append(ctx context.Context, identity model.Identity, id model.GoalID) error {
	count, err := r.Count(ctx, identity)
	if err != nil {
		return err
	}

	if count >= model.MaxGoalsPerIdentity {
		return fmt.Errorf("%w: %s has %d goals", ErrUserIndexFull, identity, count)
	}

	query := `INSERT INTO user_goals (identity, ordinal, goal_id) VALUES ($1, $2, $3)`
	_, err = r.db.ExecContext(ctx, query, identity, count, id)
	return err
}

func (r *userIndex) GoalIDs(ctx context.Context, identity model.Identity) ([]model.GoalID, error) {
	ids := []model.GoalID{}
	query := `SELECT goal_id FROM user_goals WHERE identity = $1 ORDER BY ordinal ASC`

	err := sqlx.SelectContext(ctx, r.db, &ids, query, identity)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *userIndex) Count(ctx context.Context, identity model.Identity) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM user_goals WHERE identity = $1`
	err := sqlx.GetContext(ctx, r.db, &count, query, identity)
	return count, err
}
