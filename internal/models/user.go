package models

import (
	"time"
)

// MaxVotes is the vote budget: how many submissions a single user may
// have an active vote on at the same time.
const MaxVotes = 5

type UserProfile struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"` // opaque: uuid, or google:<sub>
	Username  string    `gorm:"not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `json:"-"` // Hash, empty for Google-only accounts
	Avatar    string    `gorm:"default:🌱" json:"avatar"`
	GoogleID  string    `gorm:"index" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Not stored; filled from the votes table.
	VotedSubmissionIDs []string `gorm:"-" json:"voted_submission_ids"`
}

// VotesRemaining reports how many votes the user can still cast.
// VotedSubmissionIDs must be filled first.
func (u *UserProfile) VotesRemaining() int {
	remaining := MaxVotes - len(u.VotedSubmissionIDs)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
