package service

import (
	"context"
	"errors"
	"slices"

	"github.com/templui/goalkeep/internal/model"
	"github.com/templui/goalkeep/internal/repository"
)

// Guard answers the two authorization questions every mutating operation asks.
// A missing goal or validator list is "no", not an error.
type Guard struct {
	goals repository.GoalStore
}

func NewGuard(goals repository.GoalStore) *Guard {
	return &Guard{goals: goals}
}

func (g *Guard) IsOwner(ctx context.Context, id model.GoalID, caller model.Identity) (bool, error) {
	goal, err := g.goals.Goal(ctx, id)
	if errors.Is(err, repository.ErrGoalNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return goal.IsOwnedBy(caller), nil
}

func (g *Guard) IsValidator(ctx context.Context, id model.GoalID, caller model.Identity) (bool, error) {
	validators, err := g.goals.Validators(ctx, id)
	if errors.Is(err, repository.ErrValidatorsNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return slices.Contains(validators, caller), nil
}
