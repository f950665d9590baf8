package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Eursukkul/waitlist-service/internal/models"
	"github.com/google/uuid"
)

// memoryRepository keeps entries in process memory. It enforces the same
// uniqueness rules as the SQL schema and is used for local runs and tests.
type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.WaitlistEntry
	byEmail map[string]uuid.UUID
	byCode  map[string]uuid.UUID
	now     func() time.Time
}

func NewMemoryRepository() EntryRepository {
	return &memoryRepository{
		byID:    make(map[uuid.UUID]*models.WaitlistEntry),
		byEmail: make(map[string]uuid.UUID),
		byCode:  make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func (r *memoryRepository) Create(ctx context.Context, entry *models.WaitlistEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[entry.Email]; ok {
		return ErrEmailTaken
	}
	if _, ok := r.byCode[entry.ReferralCode]; ok {
		return ErrReferralCodeTaken
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if _, ok := r.byID[entry.ID]; ok {
		return errors.New("duplicate primary key")
	}
	if entry.Status == "" {
		entry.Status = models.StatusPending
	}
	now := r.now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	stored := clone(entry)
	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	r.byCode[stored.ReferralCode] = stored.ID
	return nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.WaitlistEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(e), nil
}

func (r *memoryRepository) FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *memoryRepository) FindByReferralCode(ctx context.Context, code string) (*models.WaitlistEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *memoryRepository) CountByEmail(ctx context.Context, email string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, e := range r.byID {
		if e.Email == email {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepository) UpdateHandle(ctx context.Context, id uuid.UUID, field models.SocialField, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	switch field {
	case models.FieldTwitter:
		e.TwitterUsername = &value
	case models.FieldDiscord:
		e.DiscordUsername = &value
	default:
		return errors.New("unknown social field " + string(field))
	}
	e.UpdatedAt = r.now()
	return nil
}

func (r *memoryRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok || e.Status == models.StatusCompleted || e.ResumeStep() != models.StepConfirmation {
		return false, nil
	}
	e.Status = models.StatusCompleted
	e.UpdatedAt = r.now()
	return true, nil
}

func (r *memoryRepository) IncrementReferralCount(ctx context.Context, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byCode[code]
	if !ok {
		return ErrNotFound
	}
	r.byID[id].ReferralCount++
	return nil
}

func clone(e *models.WaitlistEntry) *models.WaitlistEntry {
	c := *e
	c.TwitterUsername = cloneStr(e.TwitterUsername)
	c.DiscordUsername = cloneStr(e.DiscordUsername)
	c.ReferredBy = cloneStr(e.ReferredBy)
	return &c
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
