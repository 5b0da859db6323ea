package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"vibecheck/internal/models"
	"vibecheck/internal/store"
	"vibecheck/internal/utils"
)

// conflictRetries bounds how often a ledger transaction that lost a
// serialization race is retried before the failure is surfaced.
const conflictRetries = 3

// Ledger is the single authority over the vote relationship between
// users and submissions. Every mutation runs inside one store
// transaction, so the voter set, the user's vote set and the vote count
// can never be observed out of step.
type Ledger struct {
	store   store.Store
	changed func()
}

// NewLedger wires the ledger to its store. changed is invoked after
// every committed mutation (cache invalidation, live view refresh); nil
// is allowed.
func NewLedger(st store.Store, changed func()) *Ledger {
	if changed == nil {
		changed = func() {}
	}
	return &Ledger{store: st, changed: changed}
}

// VoteResult reports the relationship state after a toggle.
type VoteResult struct {
	SubmissionID   string `json:"submission_id"`
	Voted          bool   `json:"voted"`
	VoteCount      int    `json:"vote_count"`
	VotesRemaining int    `json:"votes_remaining"`
}

// CastOrRetractVote toggles userID's vote on submissionID. Casting
// checks the budget against a fresh in-transaction count; retracting an
// active vote frees the slot. The submission's vote count is recomputed
// from the vote rows inside the same transaction, never incremented
// blindly.
func (l *Ledger) CastOrRetractVote(ctx context.Context, userID, submissionID string) (*VoteResult, error) {
	if userID == "" {
		return nil, ErrIdentityRequired
	}

	var result VoteResult
	err := l.transact(ctx, func(tx store.Store) error {
		if _, err := tx.GetProfile(ctx, userID); err != nil {
			return err
		}
		sub, err := tx.GetSubmission(ctx, submissionID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}
		if sub.AuthorID == userID {
			return ErrSelfVote
		}

		voted, err := tx.HasVote(ctx, userID, submissionID)
		if err != nil {
			return err
		}
		if voted {
			if err := tx.RemoveVote(ctx, userID, submissionID); err != nil {
				return err
			}
		} else {
			used, err := tx.CountUserVotes(ctx, userID)
			if err != nil {
				return err
			}
			if used >= models.MaxVotes {
				return ErrVoteBudgetExceeded
			}
			if err := tx.AddVote(ctx, userID, submissionID); err != nil {
				// A concurrent cast of the same pair slipped in; let the
				// retry loop re-read the relationship.
				if errors.Is(err, store.ErrDuplicate) {
					return store.ErrConflict
				}
				return err
			}
		}

		count, err := tx.CountSubmissionVotes(ctx, submissionID)
		if err != nil {
			return err
		}
		sub.VoteCount = count
		if err := tx.SaveSubmission(ctx, sub); err != nil {
			return err
		}

		used, err := tx.CountUserVotes(ctx, userID)
		if err != nil {
			return err
		}
		result = VoteResult{
			SubmissionID:   submissionID,
			Voted:          !voted,
			VoteCount:      count,
			VotesRemaining: models.MaxVotes - used,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.changed()
	return &result, nil
}

// SubmissionDraft is the user-authored content of a submission.
type SubmissionDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Prompt      string `json:"prompt"`
	Link        string `json:"link"`
	Thumbnail   string `json:"thumbnail"`
}

// Validate rejects malformed drafts before any store interaction.
func (d *SubmissionDraft) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(d.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(d.Description) == "" {
		fields["description"] = "description is required"
	}
	if strings.TrimSpace(d.Prompt) == "" {
		fields["prompt"] = "prompt is required"
	}
	if !utils.IsValidURL(d.Link) {
		fields["link"] = "must be a valid URL including http:// or https://"
	}
	if !utils.IsValidURL(d.Thumbnail) {
		fields["thumbnail"] = "must be a valid URL including http:// or https://"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Submit creates the author's submission, or replaces it. Replacement
// retracts every recorded vote for the old submission in the same
// transaction, so the old voters get their budget slot back atomically
// with the overwrite.
func (l *Ledger) Submit(ctx context.Context, userID string, draft SubmissionDraft) (*models.Submission, error) {
	if userID == "" {
		return nil, ErrIdentityRequired
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var result *models.Submission
	err := l.transact(ctx, func(tx store.Store) error {
		author, err := tx.GetProfile(ctx, userID)
		if err != nil {
			return err
		}

		if err := tx.RemoveSubmissionVotes(ctx, userID); err != nil {
			return err
		}

		sub := &models.Submission{
			ID:          userID,
			AuthorID:    userID,
			AuthorName:  author.Username,
			Title:       strings.TrimSpace(draft.Title),
			Description: draft.Description,
			Prompt:      draft.Prompt,
			Link:        strings.TrimSpace(draft.Link),
			Thumbnail:   strings.TrimSpace(draft.Thumbnail),
			VoteCount:   0,
			CreatedAt:   time.Now(),
		}
		if err := tx.SaveSubmission(ctx, sub); err != nil {
			return err
		}
		result = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.changed()
	return result, nil
}

// Profile loads a profile together with its derived vote set.
func (l *Ledger) Profile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if userID == "" {
		return nil, ErrIdentityRequired
	}
	var profile *models.UserProfile
	err := l.store.RunInTransaction(ctx, func(tx store.Store) error {
		user, err := tx.GetProfile(ctx, userID)
		if err != nil {
			return err
		}
		ids, err := tx.UserVotedSubmissionIDs(ctx, userID)
		if err != nil {
			return err
		}
		user.VotedSubmissionIDs = ids
		profile = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// transact runs fn through the store, retrying bounded times when the
// transaction lost a serialization race.
func (l *Ledger) transact(ctx context.Context, fn func(tx store.Store) error) error {
	var err error
	for attempt := 1; attempt <= conflictRetries; attempt++ {
		err = l.store.RunInTransaction(ctx, fn)
		if err == nil || !errors.Is(err, store.ErrConflict) {
			return err
		}
		log.Printf("ledger: transaction conflict, retry %d/%d", attempt, conflictRetries)
	}
	return fmt.Errorf("%w (%d attempts)", ErrVoteConflict, conflictRetries)
}
