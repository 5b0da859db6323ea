package models

import (
	"time"
)

// Vote is the authoritative record of one active vote. A submission's
// voter set and a user's voted-submission set are both projections of
// these rows; Submission.VoteCount is recomputed from them inside the
// same transaction that changes them.
type Vote struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"not null;size:64;uniqueIndex:idx_votes_user_submission" json:"user_id"`
	SubmissionID string    `gorm:"not null;size:64;uniqueIndex:idx_votes_user_submission;index" json:"submission_id"`
	CreatedAt    time.Time `json:"created_at"`
}
