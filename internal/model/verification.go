package model

// Verification is the attestation recorded when a goal is verified.
// A goal has at most one; re-verification overwrites it.
type Verification struct {
	VerifiedBy        Identity `db:"verified_by" json:"verified_by"`
	VerificationTime  Height   `db:"verification_time" json:"verification_time"`
	VerificationNotes string   `db:"verification_notes" json:"verification_notes"`
}
