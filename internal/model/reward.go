package model

import "time"

// RewardCertificate is the document handed to the reward-issuance collaborator
// once a verified goal's reward has been minted.
type RewardCertificate struct {
	ID         string    `json:"id"`
	GoalID     GoalID    `json:"goal_id"`
	Owner      Identity  `json:"owner"`
	Title      string    `json:"title"`
	VerifiedAt Height    `json:"verified_at"`
	IssuedAt   time.Time `json:"issued_at"`
}
