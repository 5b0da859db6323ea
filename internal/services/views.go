package services

import (
	"context"
	"fmt"
	"time"

	"vibecheck/internal/models"
	"vibecheck/internal/store"
	"vibecheck/internal/utils"
)

// LeaderboardLimit caps how many entries the leaderboard returns.
const LeaderboardLimit = 50

const viewCacheTTL = 1 * time.Minute

// Views serves the read-only projections of the submission store: the
// leaderboard (ranked by vote count) and the gallery (newest first).
// Each snapshot is read inside one store transaction, so a vote
// committing mid-read can never surface a submission whose count and
// voter set disagree. Snapshots are cached briefly; the ledger
// invalidates the cache after every committed mutation.
type Views struct {
	store store.Store
	cache *utils.Cache
}

func NewViews(st store.Store) *Views {
	return &Views{
		store: st,
		cache: utils.NewCache(16),
	}
}

// Leaderboard returns up to limit submissions ordered by vote count
// descending, ties broken by oldest submission first.
func (v *Views) Leaderboard(ctx context.Context, limit int) ([]models.Submission, error) {
	if limit <= 0 || limit > LeaderboardLimit {
		limit = LeaderboardLimit
	}

	cacheKey := fmt.Sprintf("views:leaderboard:%d", limit)
	if cached := v.cache.Get(cacheKey); cached != nil {
		if subs, ok := cached.([]models.Submission); ok {
			return subs, nil
		}
	}

	var subs []models.Submission
	err := v.store.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		subs, err = tx.ListSubmissionsByVotes(ctx, limit)
		if err != nil {
			return err
		}
		return v.decorate(ctx, tx, subs)
	})
	if err != nil {
		return nil, err
	}

	v.cache.Set(cacheKey, subs, viewCacheTTL)
	return subs, nil
}

// Gallery returns all submissions, newest first.
func (v *Views) Gallery(ctx context.Context) ([]models.Submission, error) {
	cacheKey := "views:gallery"
	if cached := v.cache.Get(cacheKey); cached != nil {
		if subs, ok := cached.([]models.Submission); ok {
			return subs, nil
		}
	}

	var subs []models.Submission
	err := v.store.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		subs, err = tx.ListSubmissionsByCreated(ctx)
		if err != nil {
			return err
		}
		return v.decorate(ctx, tx, subs)
	})
	if err != nil {
		return nil, err
	}

	v.cache.Set(cacheKey, subs, viewCacheTTL)
	return subs, nil
}

// Invalidate drops every cached snapshot; called by the ledger after a
// committed mutation.
func (v *Views) Invalidate() {
	v.cache.Purge()
}

// decorate fills the derived fields: sanitized description HTML and the
// voter set. Must run inside the same transaction that listed subs.
func (v *Views) decorate(ctx context.Context, tx store.Store, subs []models.Submission) error {
	for i := range subs {
		subs[i].DescriptionHTML = utils.RenderMarkdown(subs[i].Description)
		voters, err := tx.SubmissionVoters(ctx, subs[i].ID)
		if err != nil {
			return err
		}
		subs[i].Voters = voters
	}
	return nil
}
