package model

import "math"

// Field and collection bounds. Inputs over a bound are rejected, never truncated.
const (
	MaxTitleLength        = 100
	MaxDescriptionLength  = 500
	MaxNotesLength        = 200
	MaxMilestoneTitleLen  = 100
	MaxMilestonesPerGoal  = 10
	MaxValidatorsPerGoal  = 10
	MaxGoalsPerIdentity   = 100
	SelfVerificationNotes = "Self-verified goal completion"
)

// MaxHeight is the largest height a goal column can hold (signed BIGINT).
const MaxHeight Height = math.MaxInt64

