package dto

import (
	"github.com/Eursukkul/waitlist-service/internal/models"
	"github.com/Eursukkul/waitlist-service/internal/service"
	"github.com/Eursukkul/waitlist-service/internal/wizard"
	"github.com/google/uuid"
)

type JoinWaitlistResponse struct {
	EntryID uuid.UUID   `json:"entry_id"`
	Step    models.Step `json:"step"`
	Created bool        `json:"created"`
}

type StepResponse struct {
	Step models.Step `json:"step"`
}

type ReferralResponse struct {
	ReferralCode  string `json:"referral_code"`
	ReferralCount int    `json:"referral_count"`
	ReferralLink  string `json:"referral_link"`
	ShareURL      string `json:"share_url"`
}

type SessionResponse struct {
	SessionID  uuid.UUID    `json:"session_id"`
	StepNumber int          `json:"step_number"`
	TotalSteps int          `json:"total_steps"`
	CanGoBack  bool         `json:"can_go_back"`
	State      wizard.State `json:"state"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToJoinWaitlistResponse(r *service.Resume) JoinWaitlistResponse {
	return JoinWaitlistResponse{
		EntryID: r.EntryID,
		Step:    r.Step,
		Created: r.Created,
	}
}

func ToReferralResponse(info *service.ReferralInfo) ReferralResponse {
	return ReferralResponse{
		ReferralCode:  info.Code,
		ReferralCount: info.Count,
		ReferralLink:  info.Link,
		ShareURL:      info.ShareURL,
	}
}

func ToSessionResponse(id uuid.UUID, st wizard.State) SessionResponse {
	return SessionResponse{
		SessionID:  id,
		StepNumber: st.Step.Number(),
		TotalSteps: models.StepConfirmation.Number(),
		CanGoBack:  st.Step != models.StepEmail,
		State:      st,
	}
}
