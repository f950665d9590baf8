package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Eursukkul/waitlist-service/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrReferralCodeTaken = errors.New("referral code already in use")
)

const pgUniqueViolation = "23505"

type EntryRepository interface {
	Create(ctx context.Context, entry *models.WaitlistEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.WaitlistEntry, error)
	FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error)
	FindByReferralCode(ctx context.Context, code string) (*models.WaitlistEntry, error)
	CountByEmail(ctx context.Context, email string) (int64, error)
	UpdateHandle(ctx context.Context, id uuid.UUID, field models.SocialField, value string) error
	MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error)
	IncrementReferralCount(ctx context.Context, code string) error
}

type entryRepository struct {
	db *gorm.DB
}

func NewEntryRepository(db *gorm.DB) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return classifyUniqueViolation(err)
	}
	return nil
}

func (r *entryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

func (r *entryRepository) FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&entry).Error; err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

func (r *entryRepository) FindByReferralCode(ctx context.Context, code string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&entry).Error; err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

func (r *entryRepository) CountByEmail(ctx context.Context, email string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("email = ?", email).
		Count(&count).Error
	return count, err
}

func (r *entryRepository) UpdateHandle(ctx context.Context, id uuid.UUID, field models.SocialField, value string) error {
	column := field.Column()
	if column == "" {
		return errors.New("unknown social field " + string(field))
	}
	result := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCompleted flips a pending entry to completed once both handles are stored.
// It reports whether this call made the change.
func (r *entryRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("id = ? AND status <> ?", id, models.StatusCompleted).
		Where("twitter_username IS NOT NULL AND twitter_username <> ''").
		Where("discord_username IS NOT NULL AND discord_username <> ''").
		Update("status", models.StatusCompleted)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IncrementReferralCount bumps the counter in a single UPDATE so concurrent
// referrals of the same code never lose an increment.
func (r *entryRepository) IncrementReferralCount(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Model(&models.WaitlistEntry{}).
		Where("referral_code = ?", code).
		UpdateColumn("referral_count", gorm.Expr("referral_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// classifyUniqueViolation maps a unique-index violation to the sentinel for the
// column that collided. Postgres reports the index name; sqlite reports the column.
func classifyUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return err
		}
		return uniqueSentinel(pgErr.ConstraintName, err)
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return uniqueSentinel(msg, err)
	}
	return err
}

func uniqueSentinel(hint string, err error) error {
	switch {
	case strings.Contains(hint, "referral_code"):
		return ErrReferralCodeTaken
	case strings.Contains(hint, "email"):
		return ErrEmailTaken
	}
	return err
}
