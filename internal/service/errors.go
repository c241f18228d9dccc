package service

import (
	"errors"

	"github.com/templui/goalkeep/internal/repository"
)

// Caller-visible failures of lifecycle operations. None is transient: the
// request was invalid and retrying it unchanged fails the same way.
var (
	ErrNotAuthorized         = errors.New("not authorized")
	ErrGoalNotFound          = repository.ErrGoalNotFound
	ErrInvalidGoalStatus     = errors.New("invalid goal status")
	ErrValidatorAlreadyAdded = errors.New("validator already added")
	ErrRewardAlreadyMinted   = errors.New("reward already minted")
	ErrInvalidMilestone      = errors.New("invalid milestone")
	ErrInvalidParameters     = errors.New("invalid parameters")
	ErrGoalExpired           = errors.New("goal expired")
	ErrGoalNotVerified       = errors.New("goal not verified")

	// Reserved. No transition returns these today.
	ErrAlreadyVerified  = errors.New("goal already verified")
	ErrNotValidator     = errors.New("not a validator")
	ErrGoalNotCompleted = errors.New("goal not completed")
)

// CodeInternal is the code of any failure outside the taxonomy above.
const CodeInternal = "internal_error"

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotAuthorized, "not_authorized"},
	{ErrGoalNotFound, "goal_not_found"},
	{ErrInvalidGoalStatus, "invalid_goal_status"},
	{ErrAlreadyVerified, "already_verified"},
	{ErrNotValidator, "not_validator"},
	{ErrValidatorAlreadyAdded, "validator_already_added"},
	{ErrGoalNotCompleted, "goal_not_completed"},
	{ErrRewardAlreadyMinted, "reward_already_minted"},
	{ErrInvalidMilestone, "invalid_milestone"},
	{ErrInvalidParameters, "invalid_parameters"},
	{ErrGoalExpired, "goal_expired"},
	{ErrGoalNotVerified, "goal_not_verified"},
}

// Code returns the stable snake_case code for err's kind, or CodeInternal.
func Code(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}
