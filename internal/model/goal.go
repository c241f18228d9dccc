package model

// GoalID identifies a goal. Ids are assigned sequentially starting at 1.
type GoalID int64

// Identity is an opaque, unforgeable caller identifier.
type Identity string

// Height is an opaque, monotonically non-decreasing time value (a block height).
type Height uint64

type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusVerified  GoalStatus = "verified"
	GoalStatusExpired   GoalStatus = "expired"
)

// Terminal reports whether no operation can move the goal out of this status.
func (s GoalStatus) Terminal() bool {
	return s == GoalStatusVerified || s == GoalStatusExpired
}

type VerificationType string

const (
	VerificationSelf       VerificationType = "self"
	VerificationThirdParty VerificationType = "third_party"
)

func (v VerificationType) Valid() bool {
	return v == VerificationSelf || v == VerificationThirdParty
}

type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyPrivate Privacy = "private"
)

func (p Privacy) Valid() bool {
	return p == PrivacyPublic || p == PrivacyPrivate
}

type Goal struct {
	ID               GoalID           `db:"id" json:"id"`
	Owner            Identity         `db:"owner" json:"owner"`
	Title            string           `db:"title" json:"title"`
	Description      string           `db:"description" json:"description"`
	Deadline         Height           `db:"deadline" json:"deadline"`
	VerificationType VerificationType `db:"verification_type" json:"verification_type"`
	Status           GoalStatus       `db:"status" json:"status"`
	CreationTime     Height           `db:"creation_time" json:"creation_time"`
	CompletionTime   *Height          `db:"completion_time" json:"completion_time,omitempty"`
	VerificationTime *Height          `db:"verification_time" json:"verification_time,omitempty"`
	Privacy          Privacy          `db:"privacy" json:"privacy"`
	RewardMinted     bool             `db:"reward_minted" json:"reward_minted"`
}

// IsOwnedBy reports whether caller created the goal.
func (g *Goal) IsOwnedBy(caller Identity) bool {
	return g.Owner == caller
}
