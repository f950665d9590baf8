package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EntryStatus string

const (
	StatusPending   EntryStatus = "pending"
	StatusCompleted EntryStatus = "completed"
)

// SocialField names a social handle column that the wizard collects.
type SocialField string

const (
	FieldTwitter SocialField = "twitter"
	FieldDiscord SocialField = "discord"
)

// Column returns the database column backing the field, or "" for unknown fields.
func (f SocialField) Column() string {
	switch f {
	case FieldTwitter:
		return "twitter_username"
	case FieldDiscord:
		return "discord_username"
	}
	return ""
}

type WaitlistEntry struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string      `gorm:"type:varchar(320);not null;uniqueIndex:idx_waitlist_email" json:"email"`
	TwitterUsername *string     `gorm:"type:varchar(100)" json:"twitter_username,omitempty"`
	DiscordUsername *string     `gorm:"type:varchar(100)" json:"discord_username,omitempty"`
	ReferralCode    string      `gorm:"type:varchar(16);not null;uniqueIndex:idx_waitlist_referral_code" json:"referral_code"`
	ReferralCount   int         `gorm:"not null;default:0;check:chk_referral_count_non_negative,referral_count >= 0" json:"referral_count"`
	ReferredBy      *string     `gorm:"type:varchar(16);index" json:"referred_by,omitempty"`
	Status          EntryStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (WaitlistEntry) TableName() string {
	return "waitlist_entries"
}

func (e *WaitlistEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ResumeStep is the wizard step a returning registrant lands on, derived from
// which handles are already stored.
func (e *WaitlistEntry) ResumeStep() Step {
	switch {
	case e.TwitterUsername == nil || *e.TwitterUsername == "":
		return StepTwitter
	case e.DiscordUsername == nil || *e.DiscordUsername == "":
		return StepDiscord
	default:
		return StepConfirmation
	}
}

// Handle returns the stored value of a social field, or "" when unset.
func (e *WaitlistEntry) Handle(f SocialField) string {
	var v *string
	switch f {
	case FieldTwitter:
		v = e.TwitterUsername
	case FieldDiscord:
		v = e.DiscordUsername
	}
	if v == nil {
		return ""
	}
	return *v
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// NormalizeHandle trims surrounding whitespace and, for Twitter, a single leading "@".
func NormalizeHandle(f SocialField, value string) string {
	value = strings.TrimSpace(value)
	if f == FieldTwitter {
		value = strings.TrimPrefix(value, "@")
	}
	return value
}
