package store

import (
	"context"
	"sync"
	"time"

	"vibecheck/internal/models"
)

// MemoryStore keeps everything in process memory. It is the dev and
// test backend: a single mutex serializes all transactions, so the
// Store contract holds trivially. Transactions run against a copy of
// the state and swap it in on success, so a failed fn leaves nothing
// behind.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

type memVote struct {
	UserID       string
	SubmissionID string
	CreatedAt    time.Time
	Seq          int
}

type memState struct {
	profiles    map[string]models.UserProfile
	submissions map[string]models.Submission
	votes       []memVote
	seq         int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			profiles:    make(map[string]models.UserProfile),
			submissions: make(map[string]models.Submission),
		},
	}
}

func (st *memState) clone() *memState {
	next := &memState{
		profiles:    make(map[string]models.UserProfile, len(st.profiles)),
		submissions: make(map[string]models.Submission, len(st.submissions)),
		votes:       make([]memVote, len(st.votes)),
		seq:         st.seq,
	}
	for id, p := range st.profiles {
		next.profiles[id] = p
	}
	for id, s := range st.submissions {
		next.submissions[id] = s
	}
	copy(next.votes, st.votes)
	return next
}

func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	next := s.state.clone()
	if err := fn(&memTx{state: next}); err != nil {
		return err
	}
	s.state = next
	return nil
}

func (s *MemoryStore) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getProfile(id)
}

func (s *MemoryStore) GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getProfileByEmail(email)
}

func (s *MemoryStore) GetProfileByGoogleID(ctx context.Context, googleID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getProfileByGoogleID(googleID)
}

func (s *MemoryStore) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.createProfile(profile)
}

func (s *MemoryStore) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.getSubmission(id)
}

func (s *MemoryStore) SaveSubmission(ctx context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.saveSubmission(sub)
}

func (s *MemoryStore) ListSubmissionsByVotes(ctx context.Context, limit int) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listSubmissionsByVotes(limit)
}

func (s *MemoryStore) ListSubmissionsByCreated(ctx context.Context) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.listSubmissionsByCreated()
}

func (s *MemoryStore) HasVote(ctx context.Context, userID, submissionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.hasVote(userID, submissionID), nil
}

func (s *MemoryStore) AddVote(ctx context.Context, userID, submissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.addVote(userID, submissionID)
}

func (s *MemoryStore) RemoveVote(ctx context.Context, userID, submissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.removeVote(userID, submissionID)
	return nil
}

func (s *MemoryStore) RemoveSubmissionVotes(ctx context.Context, submissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.removeSubmissionVotes(submissionID)
	return nil
}

func (s *MemoryStore) CountUserVotes(ctx context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.countUserVotes(userID), nil
}

func (s *MemoryStore) CountSubmissionVotes(ctx context.Context, submissionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.countSubmissionVotes(submissionID), nil
}

func (s *MemoryStore) UserVotedSubmissionIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.userVotedSubmissionIDs(userID), nil
}

func (s *MemoryStore) SubmissionVoters(ctx context.Context, submissionID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.submissionVoters(submissionID), nil
}

// memTx is the view of a MemoryStore transaction: same operations, no
// locking, applied to the transaction's private state copy.
type memTx struct {
	state *memState
}

func (t *memTx) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	// Already inside a transaction; join it.
	return fn(t)
}

func (t *memTx) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	return t.state.getProfile(id)
}

func (t *memTx) GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	return t.state.getProfileByEmail(email)
}

func (t *memTx) GetProfileByGoogleID(ctx context.Context, googleID string) (*models.UserProfile, error) {
	return t.state.getProfileByGoogleID(googleID)
}

func (t *memTx) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	return t.state.createProfile(profile)
}

func (t *memTx) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	return t.state.getSubmission(id)
}

func (t *memTx) SaveSubmission(ctx context.Context, sub *models.Submission) error {
	return t.state.saveSubmission(sub)
}

func (t *memTx) ListSubmissionsByVotes(ctx context.Context, limit int) ([]models.Submission, error) {
	return t.state.listSubmissionsByVotes(limit)
}

func (t *memTx) ListSubmissionsByCreated(ctx context.Context) ([]models.Submission, error) {
	return t.state.listSubmissionsByCreated()
}

func (t *memTx) HasVote(ctx context.Context, userID, submissionID string) (bool, error) {
	return t.state.hasVote(userID, submissionID), nil
}

func (t *memTx) AddVote(ctx context.Context, userID, submissionID string) error {
	return t.state.addVote(userID, submissionID)
}

func (t *memTx) RemoveVote(ctx context.Context, userID, submissionID string) error {
	t.state.removeVote(userID, submissionID)
	return nil
}

func (t *memTx) RemoveSubmissionVotes(ctx context.Context, submissionID string) error {
	t.state.removeSubmissionVotes(submissionID)
	return nil
}

func (t *memTx) CountUserVotes(ctx context.Context, userID string) (int, error) {
	return t.state.countUserVotes(userID), nil
}

func (t *memTx) CountSubmissionVotes(ctx context.Context, submissionID string) (int, error) {
	return t.state.countSubmissionVotes(submissionID), nil
}

func (t *memTx) UserVotedSubmissionIDs(ctx context.Context, userID string) ([]string, error) {
	return t.state.userVotedSubmissionIDs(userID), nil
}

func (t *memTx) SubmissionVoters(ctx context.Context, submissionID string) ([]string, error) {
	return t.state.submissionVoters(submissionID), nil
}

func (st *memState) getProfile(id string) (*models.UserProfile, error) {
	p, ok := st.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (st *memState) getProfileByEmail(email string) (*models.UserProfile, error) {
	for _, p := range st.profiles {
		if p.Email == email {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (st *memState) getProfileByGoogleID(googleID string) (*models.UserProfile, error) {
	for _, p := range st.profiles {
		if p.GoogleID != "" && p.GoogleID == googleID {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (st *memState) createProfile(profile *models.UserProfile) error {
	if _, ok := st.profiles[profile.ID]; ok {
		return ErrDuplicate
	}
	if _, err := st.getProfileByEmail(profile.Email); err == nil {
		return ErrDuplicate
	}
	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	st.profiles[profile.ID] = *profile
	return nil
}

func (st *memState) getSubmission(id string) (*models.Submission, error) {
	s, ok := st.submissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (st *memState) saveSubmission(sub *models.Submission) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	sub.UpdatedAt = time.Now()
	st.submissions[sub.ID] = *sub
	return nil
}

func (st *memState) listSubmissionsByVotes(limit int) ([]models.Submission, error) {
	subs := st.allSubmissions()
	sortSubmissions(subs, func(a, b models.Submission) bool {
		if a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

func (st *memState) listSubmissionsByCreated() ([]models.Submission, error) {
	subs := st.allSubmissions()
	sortSubmissions(subs, func(a, b models.Submission) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return subs, nil
}

func (st *memState) allSubmissions() []models.Submission {
	subs := make([]models.Submission, 0, len(st.submissions))
	for _, s := range st.submissions {
		subs = append(subs, s)
	}
	return subs
}

func sortSubmissions(subs []models.Submission, less func(a, b models.Submission) bool) {
	// Insertion sort; the gallery is small and the order must be stable.
	for i := 1; i < len(subs); i++ {
		for j := i; j > 0 && less(subs[j], subs[j-1]); j-- {
			subs[j], subs[j-1] = subs[j-1], subs[j]
		}
	}
}

func (st *memState) hasVote(userID, submissionID string) bool {
	for _, v := range st.votes {
		if v.UserID == userID && v.SubmissionID == submissionID {
			return true
		}
	}
	return false
}

func (st *memState) addVote(userID, submissionID string) error {
	if st.hasVote(userID, submissionID) {
		return ErrDuplicate
	}
	st.seq++
	st.votes = append(st.votes, memVote{
		UserID:       userID,
		SubmissionID: submissionID,
		CreatedAt:    time.Now(),
		Seq:          st.seq,
	})
	return nil
}

func (st *memState) removeVote(userID, submissionID string) {
	kept := st.votes[:0]
	for _, v := range st.votes {
		if v.UserID != userID || v.SubmissionID != submissionID {
			kept = append(kept, v)
		}
	}
	st.votes = kept
}

func (st *memState) removeSubmissionVotes(submissionID string) {
	kept := st.votes[:0]
	for _, v := range st.votes {
		if v.SubmissionID != submissionID {
			kept = append(kept, v)
		}
	}
	st.votes = kept
}

func (st *memState) countUserVotes(userID string) int {
	count := 0
	for _, v := range st.votes {
		if v.UserID == userID {
			count++
		}
	}
	return count
}

func (st *memState) countSubmissionVotes(submissionID string) int {
	count := 0
	for _, v := range st.votes {
		if v.SubmissionID == submissionID {
			count++
		}
	}
	return count
}

func (st *memState) userVotedSubmissionIDs(userID string) []string {
	ids := []string{}
	for _, v := range st.votes {
		if v.UserID == userID {
			ids = append(ids, v.SubmissionID)
		}
	}
	return ids
}

func (st *memState) submissionVoters(submissionID string) []string {
	ids := []string{}
	for _, v := range st.votes {
		if v.SubmissionID == submissionID {
			ids = append(ids, v.UserID)
		}
	}
	return ids
}
