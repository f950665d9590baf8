package dto

type JoinWaitlistRequest struct {
	Email        string `json:"email"`
	ReferrerCode string `json:"referrer_code"`
}

type SetHandleRequest struct {
	Username string `json:"username"`
}

type CreateSessionRequest struct {
	ReferrerCode string `json:"referrer_code"`
}

type SubmitStepRequest struct {
	Value string `json:"value"`
}
