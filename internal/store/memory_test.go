package store

import (
	"context"
	"errors"
	"testing"

	"vibecheck/internal/models"
)

func seedProfile(t *testing.T, st *MemoryStore, id string) {
	t.Helper()
	err := st.CreateProfile(context.Background(), &models.UserProfile{
		ID:       id,
		Username: id,
		Email:    id + "@example.com",
	})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
}

func TestMemoryTransactionCommit(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	seedProfile(t, st, "alice")

	err := st.RunInTransaction(ctx, func(tx Store) error {
		if err := tx.SaveSubmission(ctx, &models.Submission{ID: "alice", AuthorID: "alice", Title: "t", Link: "https://a.com"}); err != nil {
			return err
		}
		return tx.AddVote(ctx, "bob", "alice")
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}

	if _, err := st.GetSubmission(ctx, "alice"); err != nil {
		t.Errorf("committed submission missing: %v", err)
	}
	if count, _ := st.CountSubmissionVotes(ctx, "alice"); count != 1 {
		t.Errorf("committed vote missing: count %d", count)
	}
}

func TestMemoryTransactionRollback(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	seedProfile(t, st, "alice")

	boom := errors.New("boom")
	err := st.RunInTransaction(ctx, func(tx Store) error {
		if err := tx.SaveSubmission(ctx, &models.Submission{ID: "alice", AuthorID: "alice", Title: "t", Link: "https://a.com"}); err != nil {
			return err
		}
		if err := tx.AddVote(ctx, "bob", "alice"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	// Nothing from the failed transaction is visible.
	if _, err := st.GetSubmission(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("rolled-back submission visible: %v", err)
	}
	if count, _ := st.CountSubmissionVotes(ctx, "alice"); count != 0 {
		t.Errorf("rolled-back vote visible: count %d", count)
	}
}

func TestMemoryNestedTransactionJoins(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	err := st.RunInTransaction(ctx, func(tx Store) error {
		return tx.RunInTransaction(ctx, func(inner Store) error {
			return inner.SaveSubmission(ctx, &models.Submission{ID: "x", AuthorID: "x", Title: "t", Link: "https://a.com"})
		})
	})
	if err != nil {
		t.Fatalf("nested transaction: %v", err)
	}
	if _, err := st.GetSubmission(ctx, "x"); err != nil {
		t.Errorf("nested write missing: %v", err)
	}
}

func TestMemoryDuplicateVoteRejected(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	if err := st.AddVote(ctx, "alice", "sub"); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if err := st.AddVote(ctx, "alice", "sub"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestMemoryDuplicateEmailRejected(t *testing.T) {
	st := NewMemoryStore()
	seedProfile(t, st, "alice")

	err := st.CreateProfile(context.Background(), &models.UserProfile{
		ID:       "alice2",
		Username: "alice2",
		Email:    "alice@example.com",
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
}

func TestMemoryRemoveSubmissionVotes(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	st.AddVote(ctx, "a", "sub1")
	st.AddVote(ctx, "b", "sub1")
	st.AddVote(ctx, "a", "sub2")

	if err := st.RemoveSubmissionVotes(ctx, "sub1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if count, _ := st.CountSubmissionVotes(ctx, "sub1"); count != 0 {
		t.Errorf("sub1 still has %d votes", count)
	}
	if ids, _ := st.UserVotedSubmissionIDs(ctx, "a"); len(ids) != 1 || ids[0] != "sub2" {
		t.Errorf("a's votes = %v, want [sub2]", ids)
	}
}
