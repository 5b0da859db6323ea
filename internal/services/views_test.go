package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"vibecheck/internal/models"
	"vibecheck/internal/store"
)

// seedRanked builds four submissions with vote counts 7, 3, 7, 0 in
// that creation order.
func seedRanked(t *testing.T, ledger *Ledger, st store.Store) (ids [4]string) {
	t.Helper()
	ctx := context.Background()

	authors := []string{"author-a", "author-b", "author-c", "author-d"}
	for _, author := range authors {
		addUser(t, st, author)
	}
	for i := 0; i < 7; i++ {
		addUser(t, st, fmt.Sprintf("fan%d", i))
	}

	for i, author := range authors {
		ids[i] = addSubmission(t, ledger, author).ID
		// Keep creation timestamps strictly ordered.
		time.Sleep(time.Millisecond)
	}

	vote := func(voter, target string) {
		t.Helper()
		if _, err := ledger.CastOrRetractVote(ctx, voter, target); err != nil {
			t.Fatalf("%s votes %s: %v", voter, target, err)
		}
	}
	for i := 0; i < 7; i++ {
		vote(fmt.Sprintf("fan%d", i), ids[0])
		vote(fmt.Sprintf("fan%d", i), ids[2])
	}
	for i := 0; i < 3; i++ {
		vote(fmt.Sprintf("fan%d", i), ids[1])
	}
	return ids
}

func TestLeaderboardOrdering(t *testing.T) {
	ledger, st := newTestLedger(t)
	views := NewViews(st)
	ids := seedRanked(t, ledger, st)

	subs, err := views.Leaderboard(context.Background(), 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(subs) != 4 {
		t.Fatalf("leaderboard has %d entries, want 4", len(subs))
	}

	// [7, 3, 7, 0] ranks as the two 7s in insertion order, then 3, then 0.
	want := []string{ids[0], ids[2], ids[1], ids[3]}
	for i, sub := range subs {
		if sub.ID != want[i] {
			t.Errorf("rank %d = %s (count %d), want %s", i+1, sub.ID, sub.VoteCount, want[i])
		}
	}
	if subs[0].VoteCount != 7 || subs[2].VoteCount != 3 || subs[3].VoteCount != 0 {
		t.Errorf("unexpected counts: %d %d %d %d",
			subs[0].VoteCount, subs[1].VoteCount, subs[2].VoteCount, subs[3].VoteCount)
	}
}

func TestLeaderboardLimit(t *testing.T) {
	ledger, st := newTestLedger(t)
	views := NewViews(st)
	seedRanked(t, ledger, st)

	subs, err := views.Leaderboard(context.Background(), 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(subs) != 2 {
		t.Errorf("limit 2 returned %d entries", len(subs))
	}
}

func TestGalleryOrdering(t *testing.T) {
	ledger, st := newTestLedger(t)
	views := NewViews(st)
	ids := seedRanked(t, ledger, st)

	subs, err := views.Gallery(context.Background())
	if err != nil {
		t.Fatalf("gallery: %v", err)
	}
	if len(subs) != 4 {
		t.Fatalf("gallery has %d entries, want 4", len(subs))
	}
	// Newest first.
	want := []string{ids[3], ids[2], ids[1], ids[0]}
	for i, sub := range subs {
		if sub.ID != want[i] {
			t.Errorf("gallery[%d] = %s, want %s", i, sub.ID, want[i])
		}
	}
}

func TestGalleryDecoratesSubmissions(t *testing.T) {
	ledger, st := newTestLedger(t)
	views := NewViews(st)
	ctx := context.Background()
	addUser(t, st, "alice")
	addUser(t, st, "bob")
	sub := addSubmission(t, ledger, "bob")
	if _, err := ledger.CastOrRetractVote(ctx, "alice", sub.ID); err != nil {
		t.Fatalf("cast: %v", err)
	}

	subs, err := views.Gallery(ctx)
	if err != nil {
		t.Fatalf("gallery: %v", err)
	}
	got := subs[0]
	if len(got.Voters) != 1 || got.Voters[0] != "alice" {
		t.Errorf("voters = %v, want [alice]", got.Voters)
	}
	if !strings.Contains(string(got.DescriptionHTML), "<em>vibe</em>") {
		t.Errorf("description not rendered: %q", got.DescriptionHTML)
	}
}

// interleavingStore fires commit after any list read taken outside a
// transaction, standing in for a vote that lands between the listing
// and the voter reads.
type interleavingStore struct {
	store.Store
	commit func()
}

func (s *interleavingStore) ListSubmissionsByVotes(ctx context.Context, limit int) ([]models.Submission, error) {
	subs, err := s.Store.ListSubmissionsByVotes(ctx, limit)
	s.commit()
	return subs, err
}

func (s *interleavingStore) ListSubmissionsByCreated(ctx context.Context) ([]models.Submission, error) {
	subs, err := s.Store.ListSubmissionsByCreated(ctx)
	s.commit()
	return subs, err
}

func TestSnapshotConsistentUnderRacingVote(t *testing.T) {
	st := store.NewMemoryStore()
	ledger := NewLedger(st, nil)
	ctx := context.Background()
	addUser(t, st, "alice")
	addUser(t, st, "bob")
	sub := addSubmission(t, ledger, "bob")

	racing := &interleavingStore{Store: st, commit: func() {
		if _, err := ledger.CastOrRetractVote(ctx, "alice", sub.ID); err != nil {
			t.Errorf("racing vote: %v", err)
		}
	}}
	views := NewViews(racing)

	snapshots := map[string]func() ([]models.Submission, error){
		"gallery":     func() ([]models.Submission, error) { return views.Gallery(ctx) },
		"leaderboard": func() ([]models.Submission, error) { return views.Leaderboard(ctx, 10) },
	}
	for name, snapshot := range snapshots {
		views.Invalidate()
		subs, err := snapshot()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		// Whatever state the snapshot caught, count and voter set agree.
		for _, got := range subs {
			if got.VoteCount != len(got.Voters) {
				t.Errorf("%s: submission %s has count %d but %d voters %v",
					name, got.ID, got.VoteCount, len(got.Voters), got.Voters)
			}
		}
	}
}

func TestViewCacheInvalidation(t *testing.T) {
	st := store.NewMemoryStore()
	views := NewViews(st)
	ledger := NewLedger(st, views.Invalidate)
	ctx := context.Background()

	addUser(t, st, "alice")
	addUser(t, st, "bob")
	sub := addSubmission(t, ledger, "bob")

	before, err := views.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if before[0].VoteCount != 0 {
		t.Fatalf("fresh submission has count %d", before[0].VoteCount)
	}

	if _, err := ledger.CastOrRetractVote(ctx, "alice", sub.ID); err != nil {
		t.Fatalf("cast: %v", err)
	}

	after, err := views.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard after vote: %v", err)
	}
	if after[0].VoteCount != 1 {
		t.Errorf("cached snapshot served after invalidation: count %d, want 1", after[0].VoteCount)
	}
}
