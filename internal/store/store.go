package store

import (
	"context"
	"errors"

	"vibecheck/internal/models"
)

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict marks a transaction that lost a race with a concurrent
	// writer and may be retried against fresh state.
	ErrConflict = errors.New("store: transaction conflict")
	// ErrDuplicate means a unique constraint rejected the write.
	ErrDuplicate = errors.New("store: duplicate record")
)

// Store is the persistence contract the ledger and the query views run
// against. RunInTransaction executes fn against a consistent snapshot;
// every mutation made through the transactional Store commits together
// or not at all. Implementations must not let two conflicting
// transactions both commit: the loser gets ErrConflict. Calling
// RunInTransaction from inside a transaction joins the outer one.
type Store interface {
	GetProfile(ctx context.Context, id string) (*models.UserProfile, error)
	GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	GetProfileByGoogleID(ctx context.Context, googleID string) (*models.UserProfile, error)
	CreateProfile(ctx context.Context, profile *models.UserProfile) error

	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	SaveSubmission(ctx context.Context, sub *models.Submission) error
	ListSubmissionsByVotes(ctx context.Context, limit int) ([]models.Submission, error)
	ListSubmissionsByCreated(ctx context.Context) ([]models.Submission, error)

	HasVote(ctx context.Context, userID, submissionID string) (bool, error)
	AddVote(ctx context.Context, userID, submissionID string) error
	RemoveVote(ctx context.Context, userID, submissionID string) error
	RemoveSubmissionVotes(ctx context.Context, submissionID string) error
	CountUserVotes(ctx context.Context, userID string) (int, error)
	CountSubmissionVotes(ctx context.Context, submissionID string) (int, error)
	UserVotedSubmissionIDs(ctx context.Context, userID string) ([]string, error)
	SubmissionVoters(ctx context.Context, submissionID string) ([]string, error)

	RunInTransaction(ctx context.Context, fn func(tx Store) error) error
}
