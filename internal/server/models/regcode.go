package models

import "time"

// CodeStatus is the lifecycle state of a registration code.
//
// unused ──consume──▶ used (terminal)
// unused ◀─enable/disable─▶ disabled
type CodeStatus string

const (
	CodeStatusUnused   CodeStatus = "unused"
	CodeStatusUsed     CodeStatus = "used"
	CodeStatusDisabled CodeStatus = "disabled"
)

// Valid reports whether s is one of the known statuses.
func (s CodeStatus) Valid() bool {
	switch s {
	case CodeStatusUnused, CodeStatusUsed, CodeStatusDisabled:
		return true
	}
	return false
}

// RegistrationCode is a single-use token gating new-account creation.
// UsedAt and UsedByUserID are both nil until the code is consumed and are
// set exactly once, in the same atomic step as the status transition.
type RegistrationCode struct {
	Code         string     `db:"code" json:"code"`
	Status       CodeStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UsedAt       *time.Time `db:"used_at" json:"used_at,omitempty"`
	UsedByUserID *string    `db:"used_by_user_id" json:"used_by_user_id,omitempty"`
}
