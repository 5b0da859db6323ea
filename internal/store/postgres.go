package store

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"vibecheck/internal/models"
)

// PostgresStore backs the Store contract with gorm on PostgreSQL.
// RunInTransaction runs at SERIALIZABLE isolation, so racing ledger
// operations abort with ErrConflict instead of both committing.
type PostgresStore struct {
	db   *gorm.DB
	inTx bool
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&models.UserProfile{},
		&models.Submission{},
		&models.Vote{},
	); err != nil {
		return nil, err
	}
	log.Println("Database migration completed")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, id string) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *PostgresStore) GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *PostgresStore) GetProfileByGoogleID(ctx context.Context, googleID string) (*models.UserProfile, error) {
	var user models.UserProfile
	if err := s.db.WithContext(ctx).First(&user, "google_id = ?", googleID).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *PostgresStore) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	return translate(s.db.WithContext(ctx).Create(profile).Error)
}

func (s *PostgresStore) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	var sub models.Submission
	if err := s.db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (s *PostgresStore) SaveSubmission(ctx context.Context, sub *models.Submission) error {
	return translate(s.db.WithContext(ctx).Save(sub).Error)
}

func (s *PostgresStore) ListSubmissionsByVotes(ctx context.Context, limit int) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).
		Order("vote_count DESC, created_at ASC, id ASC").
		Limit(limit).
		Find(&subs).Error
	if err != nil {
		return nil, translate(err)
	}
	return subs, nil
}

func (s *PostgresStore) ListSubmissionsByCreated(ctx context.Context) ([]models.Submission, error) {
	var subs []models.Submission
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id ASC").
		Find(&subs).Error
	if err != nil {
		return nil, translate(err)
	}
	return subs, nil
}

func (s *PostgresStore) HasVote(ctx context.Context, userID, submissionID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("user_id = ? AND submission_id = ?", userID, submissionID).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (s *PostgresStore) AddVote(ctx context.Context, userID, submissionID string) error {
	vote := models.Vote{UserID: userID, SubmissionID: submissionID}
	return translate(s.db.WithContext(ctx).Create(&vote).Error)
}

func (s *PostgresStore) RemoveVote(ctx context.Context, userID, submissionID string) error {
	return translate(s.db.WithContext(ctx).
		Where("user_id = ? AND submission_id = ?", userID, submissionID).
		Delete(&models.Vote{}).Error)
}

func (s *PostgresStore) RemoveSubmissionVotes(ctx context.Context, submissionID string) error {
	return translate(s.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Delete(&models.Vote{}).Error)
}

func (s *PostgresStore) CountUserVotes(ctx context.Context, userID string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, translate(err)
	}
	return int(count), nil
}

func (s *PostgresStore) CountSubmissionVotes(ctx context.Context, submissionID string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("submission_id = ?", submissionID).
		Count(&count).Error
	if err != nil {
		return 0, translate(err)
	}
	return int(count), nil
}

func (s *PostgresStore) UserVotedSubmissionIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Pluck("submission_id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	return ids, nil
}

func (s *PostgresStore) SubmissionVoters(ctx context.Context, submissionID string) ([]string, error) {
	ids := []string{}
	err := s.db.WithContext(ctx).Model(&models.Vote{}).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC, id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	return ids, nil
}

func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresStore{db: tx, inTx: true})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
	return translate(err)
}

// translate maps gorm and PostgreSQL failures onto the store's error
// taxonomy. SQLSTATE 40001 (serialization failure) and 40P01 (deadlock)
// both mean the transaction lost a race and can be retried.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return ErrConflict
		case "23505":
			return ErrDuplicate
		}
	}
	return err
}
