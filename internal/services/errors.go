package services

import (
	"errors"
	"fmt"
	"strings"

	"vibecheck/internal/models"
)

// Error taxonomy surfaced by the ledger. Handlers translate these to
// HTTP statuses; nothing below this package sees a raw store error.
var (
	// ErrIdentityRequired means the operation ran without an
	// authenticated profile behind it.
	ErrIdentityRequired = errors.New("authentication required")

	// ErrSelfVote means an author tried to vote for their own submission.
	ErrSelfVote = errors.New("you cannot vote for your own submission")

	// ErrVoteBudgetExceeded means the cast would push the user past the
	// vote budget. Nothing was changed.
	ErrVoteBudgetExceeded = fmt.Errorf("you have used all %d votes", models.MaxVotes)

	// ErrVoteConflict means the operation kept losing races after the
	// bounded retries; the caller may try again.
	ErrVoteConflict = errors.New("could not save your change, please try again")

	// ErrSubmissionNotFound means the submission id resolves to nothing.
	ErrSubmissionNotFound = errors.New("submission not found")
)

// ValidationError rejects malformed submission fields before any store
// interaction, one message per field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}
