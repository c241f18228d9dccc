package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/templui/goalkeep/internal/clock"
	"github.com/templui/goalkeep/internal/model"
	"github.com/templui/goalkeep/internal/repository"
	"github.com/templui/goalkeep/internal/validation"
)

type CreateGoalInput struct {
	Title            string
	Description      string
	Deadline         model.Height
	VerificationType model.VerificationType
	Privacy          model.Privacy
	MilestoneTitles  []string
}

// GoalService runs the goal lifecycle. Every mutating operation reads the
// clock once, checks all preconditions, then writes inside one transaction,
// so a failed operation leaves no trace except a burned goal id.
type GoalService struct {
	store   repository.Transactor
	clock   clock.Source
	rewards RewardIssuer

	// mu serializes mutating operations in this process. Across processes
	// the store's transaction isolation keeps operations atomic.
	mu sync.Mutex
}

func NewGoalService(store repository.Transactor, clock clock.Source, rewards RewardIssuer) *GoalService {
	if rewards == nil {
		rewards = LogRewardIssuer{}
	}
	return &GoalService{
		store:   store,
		clock:   clock,
		rewards: rewards,
	}
}

func (s *GoalService) Create(ctx context.Context, caller model.Identity, in CreateGoalInput) (id model.GoalID, err error) {
	defer observe("create", time.Now(), &err)

	if caller == "" {
		return 0, ErrNotAuthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now, err := s.now(ctx)
	if err != nil {
		return 0, err
	}

	if !in.VerificationType.Valid() {
		return 0, fmt.Errorf("%w: unknown verification type %q", ErrInvalidParameters, in.VerificationType)
	}
	if !in.Privacy.Valid() {
		return 0, fmt.Errorf("%w: unknown privacy %q", ErrInvalidParameters, in.Privacy)
	}
	if in.Deadline > model.MaxHeight {
		return 0, fmt.Errorf("%w: deadline %d exceeds max height %d", ErrInvalidParameters, in.Deadline, model.MaxHeight)
	}
	if in.Deadline <= now {
		return 0, fmt.Errorf("%w: deadline %d is not after current height %d", ErrInvalidParameters, in.Deadline, now)
	}

	text := validation.GoalInput{
		Title:           in.Title,
		Description:     in.Description,
		MilestoneTitles: slices.Clone(in.MilestoneTitles),
	}
	err = validation.ValidateGoal(&text)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	count, err := s.store.Users().Count(ctx, caller)
	if err != nil {
		return 0, err
	}
	if count >= model.MaxGoalsPerIdentity {
		return 0, fmt.Errorf("%w: identity already has %d goals (max %d)", ErrInvalidParameters, count, model.MaxGoalsPerIdentity)
	}

	id, err = s.store.Goals().NextID(ctx)
	if err != nil {
		return 0, err
	}

	goal := &model.Goal{
		ID:               id,
		Owner:            caller,
		Title:            text.Title,
		Description:      text.Description,
		Deadline:         in.Deadline,
		VerificationType: in.VerificationType,
		Status:           model.GoalStatusActive,
		CreationTime:     now,
		Privacy:          in.Privacy,
	}

	err = s.store.InTx(ctx, func(tx *repository.Tx) error {
		err := tx.Goals.PutGoal(ctx, goal)
		if err != nil {
			return fmt.Errorf("failed to create goal: %w", err)
		}

		err = tx.Goals.PutMilestones(ctx, id, model.NewMilestones(text.MilestoneTitles))
		if err != nil {
			return fmt.Errorf("failed to create milestones: %w", err)
		}

		return tx.Users.Append(ctx, caller, id)
	})
	if errors.Is(err, repository.ErrUserIndexFull) {
		return 0, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "goal created", "goal_id", id, "owner", caller, "deadline", in.Deadline)
	return id, nil
}

func (s *GoalService) AddValidator(ctx context.Context, caller model.Identity, id model.GoalID, validator model.Identity) error {
	return s.mutate(ctx, "add_validator", func(tx *repository.Tx, _ model.Height) error {
		guard := NewGuard(tx.Goals)

		owner, err := guard.IsOwner(ctx, id, caller)
		if err != nil {
			return err
		}
		if !owner {
			return ErrNotAuthorized
		}

		_, err = tx.Goals.Goal(ctx, id)
		if err != nil {
			return err
		}

		validators, err := tx.Goals.Validators(ctx, id)
		if errors.Is(err, repository.ErrValidatorsNotFound) {
			validators = nil
		} else if err != nil {
			return err
		}

		if slices.Contains(validators, validator) {
			return ErrValidatorAlreadyAdded
		}
		if validator == "" {
			return fmt.Errorf("%w: validator identity is empty", ErrInvalidParameters)
		}
		if len(validators) >= model.MaxValidatorsPerGoal {
			return fmt.Errorf("%w: goal already has %d validators (max %d)", ErrInvalidParameters, len(validators), model.MaxValidatorsPerGoal)
		}

		return tx.Goals.PutValidators(ctx, id, append(validators, validator))
	})
}

func (s *GoalService) UpdateMilestone(ctx context.Context, caller model.Identity, id model.GoalID, index int, completed bool) error {
	return s.mutate(ctx, "update_milestone", func(tx *repository.Tx, now model.Height) error {
		goal, err := tx.Goals.Goal(ctx, id)
		if err != nil {
			return err
		}
		if !goal.IsOwnedBy(caller) {
			return ErrNotAuthorized
		}
		if goal.Status != model.GoalStatusActive {
			return ErrInvalidGoalStatus
		}

		milestones, err := tx.Goals.Milestones(ctx, id)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(milestones) {
			return fmt.Errorf("%w: index %d out of range [0, %d)", ErrInvalidMilestone, index, len(milestones))
		}

		milestones[index].Completed = completed
		milestones[index].CompletionTime = nil
		if completed {
			milestones[index].CompletionTime = &now
		}

		return tx.Goals.PutMilestones(ctx, id, milestones)
	})
}

// Complete marks an active goal completed. A self-verified goal is verified
// in the same operation and ends Verified rather than Completed.
func (s *GoalService) Complete(ctx context.Context, caller model.Identity, id model.GoalID) error {
	return s.mutate(ctx, "complete", func(tx *repository.Tx, now model.Height) error {
		goal, err := tx.Goals.Goal(ctx, id)
		if err != nil {
			return err
		}
		if !goal.IsOwnedBy(caller) {
			return ErrNotAuthorized
		}
		if goal.Status != model.GoalStatusActive {
			return ErrInvalidGoalStatus
		}
		if now > goal.Deadline {
			return ErrGoalExpired
		}

		goal.Status = model.GoalStatusCompleted
		goal.CompletionTime = &now

		err = tx.Goals.PutGoal(ctx, goal)
		if err != nil {
			return err
		}

		if goal.VerificationType == model.VerificationSelf {
			return s.verify(ctx, tx, goal, caller, model.SelfVerificationNotes, now)
		}
		return nil
	})
}

func (s *GoalService) Verify(ctx context.Context, caller model.Identity, id model.GoalID, notes string) error {
	return s.mutate(ctx, "verify", func(tx *repository.Tx, now model.Height) error {
		goal, err := tx.Goals.Goal(ctx, id)
		if err != nil {
			return err
		}
		return s.verify(ctx, tx, goal, caller, notes, now)
	})
}

func (s *GoalService) verify(ctx context.Context, tx *repository.Tx, goal *model.Goal, caller model.Identity, notes string, now model.Height) error {
	selfVerified := goal.VerificationType == model.VerificationSelf

	if goal.Status != model.GoalStatusCompleted && !(selfVerified && goal.Status == model.GoalStatusActive) {
		return ErrInvalidGoalStatus
	}

	var authorized bool
	switch goal.VerificationType {
	case model.VerificationSelf:
		authorized = goal.IsOwnedBy(caller)
	case model.VerificationThirdParty:
		isValidator, err := NewGuard(tx.Goals).IsValidator(ctx, goal.ID, caller)
		if err != nil {
			return err
		}
		authorized = isValidator
	}
	if !authorized {
		return ErrNotAuthorized
	}

	in := validation.NotesInput{Notes: notes}
	err := validation.ValidateNotes(&in)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	goal.Status = model.GoalStatusVerified
	goal.VerificationTime = &now
	if goal.CompletionTime == nil {
		goal.CompletionTime = &now
	}

	err = tx.Goals.PutGoal(ctx, goal)
	if err != nil {
		return err
	}

	return tx.Goals.PutVerification(ctx, goal.ID, &model.Verification{
		VerifiedBy:        caller,
		VerificationTime:  now,
		VerificationNotes: in.Notes,
	})
}

// MintReward records that the verified goal's reward has been issued, then
// hands the goal to the reward issuer. Issuer failures are logged and do not
// undo the record.
func (s *GoalService) MintReward(ctx context.Context, caller model.Identity, id model.GoalID) error {
	var minted *model.Goal

	err := s.mutate(ctx, "mint_reward", func(tx *repository.Tx, _ model.Height) error {
		goal, err := tx.Goals.Goal(ctx, id)
		if err != nil {
			return err
		}
		if !goal.IsOwnedBy(caller) {
			return ErrNotAuthorized
		}
		if goal.Status != model.GoalStatusVerified {
			return ErrGoalNotVerified
		}
		if goal.RewardMinted {
			return ErrRewardAlreadyMinted
		}

		goal.RewardMinted = true
		minted = goal
		return tx.Goals.PutGoal(ctx, goal)
	})
	if err != nil {
		return err
	}

	err = s.rewards.IssueReward(ctx, minted)
	if err != nil {
		rewardIssuances.WithLabelValues("error").Inc()
		slog.ErrorContext(ctx, "failed to issue reward", "error", err, "goal_id", id)
		return nil
	}

	rewardIssuances.WithLabelValues("ok").Inc()
	return nil
}

func (s *GoalService) UpdatePrivacy(ctx context.Context, caller model.Identity, id model.GoalID, privacy model.Privacy) error {
	return s.mutate(ctx, "update_privacy", func(tx *repository.Tx, _ model.Height) error {
		goal, err := tx.Goals.Goal(ctx, id)
		if err != nil {
			return err
		}
		if !goal.IsOwnedBy(caller) {
			return ErrNotAuthorized
		}
		if !privacy.Valid() {
			return fmt.Errorf("%w: unknown privacy %q", ErrInvalidParameters, privacy)
		}

		goal.Privacy = privacy
		return tx.Goals.PutGoal(ctx, goal)
	})
}

// Expire moves an active goal past its deadline to Expired. Anyone may call it.
func (s *GoalService) Expire(ctx context.Context, id model.GoalID) error {
	return s.mutate(ctx, "expire", func(tx *repository.Tx, now model.Height) error {
		goal, err := tx.Goals.Goal(ctx, id)
		if err != nil {
			return err
		}
		if goal.Status != model.GoalStatusActive {
			return ErrInvalidGoalStatus
		}
		if now <= goal.Deadline {
			return fmt.Errorf("%w: deadline %d not yet passed at height %d", ErrInvalidParameters, goal.Deadline, now)
		}

		goal.Status = model.GoalStatusExpired
		return tx.Goals.PutGoal(ctx, goal)
	})
}

func (s *GoalService) GetGoal(ctx context.Context, id model.GoalID) (*model.Goal, error) {
	return s.store.Goals().Goal(ctx, id)
}

func (s *GoalService) GetGoalMilestones(ctx context.Context, id model.GoalID) ([]model.Milestone, error) {
	return s.store.Goals().Milestones(ctx, id)
}

// GetGoalValidators returns an empty list for a goal with no validators yet.
func (s *GoalService) GetGoalValidators(ctx context.Context, id model.GoalID) ([]model.Identity, error) {
	goals := s.store.Goals()

	_, err := goals.Goal(ctx, id)
	if err != nil {
		return nil, err
	}

	validators, err := goals.Validators(ctx, id)
	if errors.Is(err, repository.ErrValidatorsNotFound) {
		return []model.Identity{}, nil
	}
	return validators, err
}

// GetGoalVerification returns nil, nil for an existing goal that has not been verified.
func (s *GoalService) GetGoalVerification(ctx context.Context, id model.GoalID) (*model.Verification, error) {
	goals := s.store.Goals()

	_, err := goals.Goal(ctx, id)
	if err != nil {
		return nil, err
	}

	verification, err := goals.Verification(ctx, id)
	if errors.Is(err, repository.ErrVerificationNotFound) {
		return nil, nil
	}
	return verification, err
}

func (s *GoalService) GetUserGoals(ctx context.Context, identity model.Identity) ([]model.GoalID, error) {
	return s.store.Users().GoalIDs(ctx, identity)
}

// CanAccess reports whether caller may view the goal: public goals are open
// to everyone, private ones to their owner. A missing goal is not accessible.
func (s *GoalService) CanAccess(ctx context.Context, id model.GoalID, caller model.Identity) (bool, error) {
	goal, err := s.store.Goals().Goal(ctx, id)
	if errors.Is(err, repository.ErrGoalNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return goal.Privacy == model.PrivacyPublic || goal.IsOwnedBy(caller), nil
}

func (s *GoalService) mutate(ctx context.Context, operation string, fn func(tx *repository.Tx, now model.Height) error) (err error) {
	defer observe(operation, time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	now, err := s.now(ctx)
	if err != nil {
		return err
	}

	return s.store.InTx(ctx, func(tx *repository.Tx) error {
		return fn(tx, now)
	})
}

func (s *GoalService) now(ctx context.Context) (model.Height, error) {
	now, err := s.clock.Now(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read clock: %w", err)
	}
	return now, nil
}
