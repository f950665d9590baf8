package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestResumeStep(t *testing.T) {
	tests := []struct {
		name    string
		twitter *string
		discord *string
		want    Step
	}{
		{"no handles", nil, nil, StepTwitter},
		{"empty twitter", strPtr(""), strPtr("alice#1234"), StepTwitter},
		{"only discord unset", strPtr("alice"), nil, StepDiscord},
		{"both set", strPtr("alice"), strPtr("alice#1234"), StepConfirmation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &WaitlistEntry{TwitterUsername: tt.twitter, DiscordUsername: tt.discord}
			assert.Equal(t, tt.want, e.ResumeStep())
		})
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@example.com"))
	assert.True(t, ValidEmail("first.last+tag@sub.example.co"))
	assert.False(t, ValidEmail(""))
	assert.False(t, ValidEmail("a@example"))
	assert.False(t, ValidEmail("a example@x.com"))
	assert.False(t, ValidEmail("@example.com"))
	assert.False(t, ValidEmail("a@@example.com"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@example.com", NormalizeEmail("  A@Example.COM "))
}

func TestNormalizeHandle(t *testing.T) {
	assert.Equal(t, "alice", NormalizeHandle(FieldTwitter, "@alice"))
	assert.Equal(t, "alice", NormalizeHandle(FieldTwitter, "  @alice "))
	assert.Equal(t, "@alice", NormalizeHandle(FieldTwitter, "@@alice"))
	assert.Equal(t, "@alice#1234", NormalizeHandle(FieldDiscord, "@alice#1234"))
	assert.Equal(t, "", NormalizeHandle(FieldTwitter, "@"))
}

func TestSocialFieldColumn(t *testing.T) {
	assert.Equal(t, "twitter_username", FieldTwitter.Column())
	assert.Equal(t, "discord_username", FieldDiscord.Column())
	assert.Equal(t, "", SocialField("email").Column())
}

func TestBeforeCreateAssignsID(t *testing.T) {
	e := &WaitlistEntry{}
	assert.NoError(t, e.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, e.ID)

	id := uuid.New()
	e = &WaitlistEntry{ID: id}
	assert.NoError(t, e.BeforeCreate(nil))
	assert.Equal(t, id, e.ID)
}

func TestStepNumber(t *testing.T) {
	assert.Equal(t, 1, StepEmail.Number())
	assert.Equal(t, 4, StepConfirmation.Number())
	assert.False(t, Step("done").Valid())
}
