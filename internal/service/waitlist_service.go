package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Eursukkul/waitlist-service/internal/models"
	"github.com/Eursukkul/waitlist-service/internal/referral"
	"github.com/Eursukkul/waitlist-service/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultTimeout = 5 * time.Second

	// MaxCodeAttempts bounds referral-code regeneration after a collision.
	MaxCodeAttempts = 5

	RoutingJoined    = "waitlist.joined"
	RoutingCompleted = "waitlist.completed"
	RoutingReferred  = "waitlist.referred"
)

// Resume tells the wizard which entry it is addressing and where to continue.
type Resume struct {
	EntryID uuid.UUID   `json:"entry_id"`
	Email   string      `json:"email"`
	Step    models.Step `json:"step"`
	Created bool        `json:"created"`
}

type ReferralInfo struct {
	Code     string `json:"referral_code"`
	Count    int    `json:"referral_count"`
	Link     string `json:"referral_link"`
	ShareURL string `json:"share_url"`
}

// EntryEvent is the payload published for waitlist lifecycle events.
type EntryEvent struct {
	EntryID      uuid.UUID `json:"entry_id"`
	Email        string    `json:"email"`
	ReferralCode string    `json:"referral_code"`
	ReferredBy   string    `json:"referred_by,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type WaitlistService interface {
	CreateOrResume(ctx context.Context, email, referrerCode string) (*Resume, error)
	SetSocialHandle(ctx context.Context, entryID uuid.UUID, field models.SocialField, value string) error
	GetReferralInfo(ctx context.Context, entryID uuid.UUID) (*ReferralInfo, error)
	IncrementReferralCount(ctx context.Context, referralCode string) error
}

type Option func(*waitlistService)

func WithTimeout(d time.Duration) Option {
	return func(s *waitlistService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithPublisher(p EventPublisher) Option {
	return func(s *waitlistService) { s.publisher = p }
}

func WithSiteURL(url string) Option {
	return func(s *waitlistService) { s.siteURL = url }
}

func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *waitlistService) { s.newCode = gen }
}

func WithClock(now func() time.Time) Option {
	return func(s *waitlistService) { s.now = now }
}

type waitlistService struct {
	repo      repository.EntryRepository
	publisher EventPublisher
	log       *zap.Logger
	timeout   time.Duration
	siteURL   string
	newCode   func() (string, error)
	now       func() time.Time
}

func NewWaitlistService(repo repository.EntryRepository, log *zap.Logger, opts ...Option) WaitlistService {
	s := &waitlistService{
		repo:    repo,
		log:     log,
		timeout: DefaultTimeout,
		siteURL: "https://neftit.xyz",
		newCode: referral.NewCode,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *waitlistService) CreateOrResume(ctx context.Context, email, referrerCode string) (*Resume, error) {
	email = models.NormalizeEmail(email)
	if !models.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return resumeFrom(existing), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeError("find entry by email", err)
	}

	referrer := s.resolveReferrer(ctx, strings.TrimSpace(referrerCode))

	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, storeError("generate referral code", err)
		}

		entry := &models.WaitlistEntry{
			Email:        email,
			ReferralCode: code,
			Status:       models.StatusPending,
		}
		if referrer != nil {
			entry.ReferredBy = &referrer.ReferralCode
		}

		err = s.repo.Create(ctx, entry)
		switch {
		case err == nil:
			s.log.Info("waitlist entry created",
				zap.String("entry_id", entry.ID.String()),
				zap.Bool("referred", referrer != nil))
			s.publish(ctx, RoutingJoined, s.event(entry))
			if referrer != nil {
				s.creditReferrer(ctx, referrer.ReferralCode, entry)
			}
			return &Resume{EntryID: entry.ID, Email: email, Step: models.StepTwitter, Created: true}, nil

		case errors.Is(err, repository.ErrReferralCodeTaken):
			s.log.Debug("referral code collision, regenerating", zap.Int("attempt", attempt))
			continue

		case errors.Is(err, repository.ErrEmailTaken):
			// A concurrent submit for the same email won the insert.
			existing, err := s.repo.FindByEmail(ctx, email)
			if err != nil {
				return nil, storeError("find entry after email conflict", err)
			}
			return resumeFrom(existing), nil

		default:
			return nil, storeError("create entry", err)
		}
	}

	s.log.Error("referral code attempts exhausted", zap.Int("attempts", MaxCodeAttempts))
	return nil, ErrReferralCodeExhausted
}

func (s *waitlistService) SetSocialHandle(ctx context.Context, entryID uuid.UUID, field models.SocialField, value string) error {
	if field.Column() == "" {
		return ErrUnknownField
	}
	value = models.NormalizeHandle(field, value)
	if value == "" {
		return ErrInvalidHandle
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.UpdateHandle(ctx, entryID, field, value); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return storeError("update "+string(field)+" handle", err)
	}

	completed, err := s.repo.MarkCompleted(ctx, entryID)
	if err != nil {
		// The handle is stored; status is bookkeeping only.
		s.log.Warn("failed to mark entry completed", zap.String("entry_id", entryID.String()), zap.Error(err))
		return nil
	}
	if completed {
		if entry, err := s.repo.FindByID(ctx, entryID); err == nil {
			s.publish(ctx, RoutingCompleted, s.event(entry))
		}
	}
	return nil
}

func (s *waitlistService) GetReferralInfo(ctx context.Context, entryID uuid.UUID) (*ReferralInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("find entry", err)
	}

	link := referral.Link(s.siteURL, entry.ReferralCode)
	return &ReferralInfo{
		Code:     entry.ReferralCode,
		Count:    entry.ReferralCount,
		Link:     link,
		ShareURL: referral.ShareURL(link),
	}, nil
}

func (s *waitlistService) IncrementReferralCount(ctx context.Context, referralCode string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.IncrementReferralCount(ctx, referralCode); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return storeError("increment referral count", err)
	}
	return nil
}

// resolveReferrer looks up the referring entry. Any failure means "no referrer":
// a bad or unreachable referral code must never block a signup.
func (s *waitlistService) resolveReferrer(ctx context.Context, code string) *models.WaitlistEntry {
	if code == "" {
		return nil
	}
	referrer, err := s.repo.FindByReferralCode(ctx, code)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("referrer lookup failed", zap.String("referral_code", code), zap.Error(err))
		}
		return nil
	}
	return referrer
}

func (s *waitlistService) creditReferrer(ctx context.Context, code string, entry *models.WaitlistEntry) {
	if err := s.IncrementReferralCount(ctx, code); err != nil {
		s.log.Warn("failed to credit referrer",
			zap.String("referral_code", code),
			zap.String("entry_id", entry.ID.String()),
			zap.Error(err))
		return
	}
	s.publish(ctx, RoutingReferred, s.event(entry))
}

func (s *waitlistService) publish(ctx context.Context, routingKey string, ev EntryEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, routingKey, ev); err != nil {
		s.log.Warn("failed to publish waitlist event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

func (s *waitlistService) event(e *models.WaitlistEntry) EntryEvent {
	ev := EntryEvent{
		EntryID:      e.ID,
		Email:        e.Email,
		ReferralCode: e.ReferralCode,
		OccurredAt:   s.now().UTC(),
	}
	if e.ReferredBy != nil {
		ev.ReferredBy = *e.ReferredBy
	}
	return ev
}

func resumeFrom(e *models.WaitlistEntry) *Resume {
	return &Resume{EntryID: e.ID, Email: e.Email, Step: e.ResumeStep()}
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
