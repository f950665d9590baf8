package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/Eursukkul/waitlist-service/internal/models"
	"github.com/Eursukkul/waitlist-service/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrIllegalTransition = errors.New("illegal wizard transition")

// Registry is the part of the waitlist service the wizard drives.
type Registry interface {
	CreateOrResume(ctx context.Context, email, referrerCode string) (*service.Resume, error)
	SetSocialHandle(ctx context.Context, entryID uuid.UUID, field models.SocialField, value string) error
	GetReferralInfo(ctx context.Context, entryID uuid.UUID) (*service.ReferralInfo, error)
}

// State is a snapshot of one wizard run.
type State struct {
	Step            models.Step `json:"step"`
	EntryID         uuid.UUID   `json:"entry_id"`
	Email           string      `json:"email,omitempty"`
	TwitterUsername string      `json:"twitter_username,omitempty"`
	DiscordUsername string      `json:"discord_username,omitempty"`
	ReferralCode    string      `json:"referral_code,omitempty"`
	ReferralLink    string      `json:"referral_link,omitempty"`
	ShareURL        string      `json:"share_url,omitempty"`
	ReferralCount   int         `json:"referral_count"`
	Error           string      `json:"error,omitempty"`
}

// transition lists, per step, where a successful submit may lead and where
// back leads. Anything not listed here cannot happen.
type transition struct {
	forward []models.Step
	back    models.Step
	field   models.SocialField
}

var transitions = map[models.Step]transition{
	models.StepEmail: {
		// The registry may resume a returning registrant further along.
		forward: []models.Step{models.StepTwitter, models.StepDiscord, models.StepConfirmation},
	},
	models.StepTwitter: {
		forward: []models.Step{models.StepDiscord},
		back:    models.StepEmail,
		field:   models.FieldTwitter,
	},
	models.StepDiscord: {
		forward: []models.Step{models.StepConfirmation},
		back:    models.StepTwitter,
		field:   models.FieldDiscord,
	},
	models.StepConfirmation: {
		back: models.StepDiscord,
	},
}

// Wizard is a single user's run through the sign-up steps. It is not safe
// for concurrent use; Store serializes access per session.
type Wizard struct {
	registry     Registry
	log          *zap.Logger
	referrerCode string
	state        State
}

func New(registry Registry, log *zap.Logger, referrerCode string) *Wizard {
	return &Wizard{
		registry:     registry,
		log:          log,
		referrerCode: referrerCode,
		state:        State{Step: models.StepEmail},
	}
}

func (w *Wizard) State() State {
	return w.state
}

// Submit sends value as the answer for the current step. The step only
// advances after the registry accepts it; on failure the state keeps its step
// and carries a user-facing message.
func (w *Wizard) Submit(ctx context.Context, value string) error {
	var err error
	switch w.state.Step {
	case models.StepEmail:
		err = w.submitEmail(ctx, value)
	case models.StepTwitter, models.StepDiscord:
		err = w.submitHandle(ctx, value)
	default:
		err = fmt.Errorf("%w: no forward step from %s", ErrIllegalTransition, w.state.Step)
	}

	if err != nil {
		w.state.Error = Message(err)
		return err
	}
	w.state.Error = ""
	return nil
}

// Back returns to the immediately preceding step.
func (w *Wizard) Back() error {
	prev := transitions[w.state.Step].back
	if prev == "" {
		return fmt.Errorf("%w: no step before %s", ErrIllegalTransition, w.state.Step)
	}
	w.state.Step = prev
	w.state.Error = ""
	return nil
}

func (w *Wizard) submitEmail(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if !models.ValidEmail(email) {
		return service.ErrInvalidEmail
	}

	res, err := w.registry.CreateOrResume(ctx, email, w.referrerCode)
	if err != nil {
		w.log.Warn("email step failed", zap.Error(err))
		return err
	}

	if err := w.advance(res.Step); err != nil {
		return err
	}
	if res.EntryID != w.state.EntryID {
		w.state = State{Step: w.state.Step}
	}
	w.state.EntryID = res.EntryID
	w.state.Email = res.Email
	if w.state.Step == models.StepConfirmation {
		w.loadReferral(ctx)
	}
	return nil
}

func (w *Wizard) submitHandle(ctx context.Context, value string) error {
	field := transitions[w.state.Step].field
	value = models.NormalizeHandle(field, value)
	if value == "" {
		return service.ErrInvalidHandle
	}

	if err := w.registry.SetSocialHandle(ctx, w.state.EntryID, field, value); err != nil {
		w.log.Warn("handle step failed", zap.String("field", string(field)), zap.Error(err))
		return err
	}

	next := transitions[w.state.Step].forward[0]
	if err := w.advance(next); err != nil {
		return err
	}
	switch field {
	case models.FieldTwitter:
		w.state.TwitterUsername = value
	case models.FieldDiscord:
		w.state.DiscordUsername = value
	}
	if next == models.StepConfirmation {
		w.loadReferral(ctx)
	}
	return nil
}

func (w *Wizard) advance(to models.Step) error {
	for _, allowed := range transitions[w.state.Step].forward {
		if allowed == to {
			w.state.Step = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, w.state.Step, to)
}

// loadReferral fetches display values once on arrival at confirmation. The
// entry is already complete, so a failed fetch only leaves them empty.
func (w *Wizard) loadReferral(ctx context.Context) {
	info, err := w.registry.GetReferralInfo(ctx, w.state.EntryID)
	if err != nil {
		w.log.Warn("referral info unavailable", zap.String("entry_id", w.state.EntryID.String()), zap.Error(err))
		w.state.ReferralCode = ""
		w.state.ReferralLink = ""
		w.state.ShareURL = ""
		w.state.ReferralCount = 0
		return
	}
	w.state.ReferralCode = info.Code
	w.state.ReferralLink = info.Link
	w.state.ShareURL = info.ShareURL
	w.state.ReferralCount = info.Count
}
